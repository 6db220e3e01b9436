// Package encoders implements the feature transformers applied to trip records, along with the stateful stages
// (scaling, one-hot encoding) that follow them inside a feature block.
//
// Every encoder implements Stage. The feature transformers are stateless: Fit returns the receiver unchanged and
// Transform derives new columns from a frame without touching it, returning a frame holding only those columns.
// StandardScaler and OneHotEncoder learn parameters in Fit which Transform then applies unchanged.
package encoders

import (
	// The time feature encoder resolves named zones, which must not depend on the host having tzdata installed.
	_ "time/tzdata"

	"github.com/hscells/taxifare/frame"
)

// Stage is a step of a feature block.
type Stage interface {
	// Fit learns whatever parameters the stage requires from a training frame and returns the fitted stage.
	Fit(X *frame.Frame, y []float64) (Stage, error)
	// Transform derives the output columns of the stage.
	Transform(X *frame.Frame) (*frame.Frame, error)
}

// FitTransform fits a stage and transforms the same frame with it.
func FitTransform(s Stage, X *frame.Frame, y []float64) (Stage, *frame.Frame, error) {
	fitted, err := s.Fit(X, y)
	if err != nil {
		return nil, nil, err
	}
	out, err := fitted.Transform(X)
	if err != nil {
		return nil, nil, err
	}
	return fitted, out, nil
}
