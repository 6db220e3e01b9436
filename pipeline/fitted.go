// Package pipeline joins a feature composer and an estimator into the single object that is trained, persisted and
// served.
package pipeline

import (
	"encoding/gob"
	"io"

	"github.com/hscells/taxifare/encoders"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/features"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/learning"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&encoders.TimeFeatures{})
	gob.Register(&encoders.Distance{})
	gob.Register(&encoders.DistanceToCenter{})
	gob.Register(&encoders.Direction{})
	gob.Register(&encoders.Geohash{})
	gob.Register(&encoders.StandardScaler{})
	gob.Register(&encoders.OneHotEncoder{})
	gob.Register(encoders.DataframeNormalizer{})

	gob.Register(&learning.LinearRegression{})
	gob.Register(&learning.Ridge{})
	gob.Register(&learning.Lasso{})
	gob.Register(&learning.SGDRegressor{})
	gob.Register(&learning.GradientBoosting{})
	gob.Register(&learning.RandomForest{})
	gob.Register(&learning.XGBRegressor{})
}

// Pipeline is a feature composer followed by an estimator. Once fitted it is only ever read.
type Pipeline struct {
	Composer  *features.Composer
	Estimator learning.Regressor
	Fitted    bool
}

// New creates an unfitted pipeline.
func New(c *features.Composer, e learning.Regressor) *Pipeline {
	return &Pipeline{Composer: c, Estimator: e}
}

// Fit fits the composer and then the estimator on the composed features of X.
func (p *Pipeline) Fit(X *frame.Frame, y []float64) error {
	if X.Len() != len(y) {
		return faults.Newf(faults.DataFormat, "pipeline", "", "%d rows but %d targets", X.Len(), len(y))
	}
	m, err := p.Composer.FitTransform(X, y)
	if err != nil {
		return err
	}
	if err := p.Estimator.Fit(m, y); err != nil {
		return err
	}
	p.Fitted = true
	return nil
}

// Predict a fare for every row of X.
func (p *Pipeline) Predict(X *frame.Frame) ([]float64, error) {
	if !p.Fitted {
		return nil, faults.NotFitted("pipeline")
	}
	m, err := p.Composer.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.Predict(m)
}

// Features composes the model input of X, along with the name of every column.
func (p *Pipeline) Features(X *frame.Frame) (*mat.Dense, []string, error) {
	if !p.Fitted {
		return nil, nil, faults.NotFitted("pipeline")
	}
	m, err := p.Composer.Transform(X)
	if err != nil {
		return nil, nil, err
	}
	return m, p.Composer.Names(), nil
}

// FeatureFrame composes the model input of X as a frame with one float column per feature.
func (p *Pipeline) FeatureFrame(X *frame.Frame) (*frame.Frame, error) {
	m, names, err := p.Features(X)
	if err != nil {
		return nil, err
	}
	return encoders.DataframeNormalizer{}.FromMatrix(m, names)
}

// Encode writes the fitted pipeline.
func (p *Pipeline) Encode(w io.Writer) error {
	if !p.Fitted {
		return faults.NotFitted("pipeline")
	}
	return errors.Wrap(gob.NewEncoder(w).Encode(p), "encoding pipeline")
}

// Decode reads a pipeline written by Encode.
func Decode(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, faults.New(faults.DataFormat, "pipeline", "", errors.Wrap(err, "decoding pipeline"))
	}
	if !p.Fitted || p.Composer == nil || p.Estimator == nil {
		return nil, faults.NotFitted("pipeline")
	}
	return &p, nil
}
