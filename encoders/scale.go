package encoders

import (
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardises every column of its input to zero mean and unit variance, using the population
// statistics of the training frame. Columns that are constant during training are only centred.
type StandardScaler struct {
	Columns []string
	Mean    []float64
	Std     []float64
	Fitted  bool
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

func (s *StandardScaler) Fit(X *frame.Frame, y []float64) (Stage, error) {
	s.Columns = X.Names()
	s.Mean = make([]float64, len(s.Columns))
	s.Std = make([]float64, len(s.Columns))
	for j, name := range s.Columns {
		v, err := X.Floats(name)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			s.Std[j] = 1
			continue
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(v, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	s.Fitted = true
	return s, nil
}

func (s *StandardScaler) Transform(X *frame.Frame) (*frame.Frame, error) {
	if !s.Fitted {
		return nil, faults.NotFitted("standard_scaler")
	}
	cols := make([]frame.Column, len(s.Columns))
	for j, name := range s.Columns {
		v, err := X.Floats(name)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = (x - s.Mean[j]) / s.Std[j]
		}
		cols[j] = frame.FloatColumn(name, out)
	}
	return frame.New(cols...)
}
