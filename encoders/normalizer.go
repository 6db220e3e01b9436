package encoders

import (
	"log"
	"strconv"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"gonum.org/v1/gonum/mat"
)

// Sparse is a binary matrix stored as the active column indices of each row.
type Sparse struct {
	Rows   int
	Names  []string
	Active [][]int
}

// DataframeNormalizer turns whatever an upstream step produced into a frame of float columns.
//
// As a stage it widens integer columns and leaves float columns untouched, so it can terminate any block whose
// output is already numeric. Non-numeric columns are a type conversion error.
type DataframeNormalizer struct {
	Verbose bool
}

// FromMatrix converts a matrix to a frame. Missing names are replaced with the column index.
func (n DataframeNormalizer) FromMatrix(m mat.Matrix, names []string) (*frame.Frame, error) {
	r, c := m.Dims()
	cols := make([]frame.Column, c)
	for j := 0; j < c; j++ {
		v := make([]float64, r)
		for i := 0; i < r; i++ {
			v[i] = m.At(i, j)
		}
		cols[j] = frame.FloatColumn(columnName(names, j), v)
	}
	return n.done(frame.New(cols...))
}

// FromSparse converts a sparse matrix to a frame of dense float columns.
func (n DataframeNormalizer) FromSparse(s *Sparse) (*frame.Frame, error) {
	cols := make([]frame.Column, len(s.Names))
	for j := range cols {
		cols[j] = frame.FloatColumn(columnName(s.Names, j), make([]float64, s.Rows))
	}
	for i, active := range s.Active {
		for _, j := range active {
			cols[j].Floats[i] = 1
		}
	}
	return n.done(frame.New(cols...))
}

func (n DataframeNormalizer) Fit(X *frame.Frame, y []float64) (Stage, error) {
	return n, nil
}

func (n DataframeNormalizer) Transform(X *frame.Frame) (*frame.Frame, error) {
	cols := make([]frame.Column, len(X.Columns))
	for j, c := range X.Columns {
		switch c.Kind {
		case frame.Float:
			cols[j] = c
		case frame.Int:
			v, _ := X.Floats(c.Name)
			cols[j] = frame.FloatColumn(c.Name, v)
		default:
			return nil, faults.Newf(faults.TypeConversion, "normalizer", c.Name, "column %q of kind %s is not numeric", c.Name, c.Kind)
		}
	}
	return n.done(frame.New(cols...))
}

func (n DataframeNormalizer) done(f *frame.Frame, err error) (*frame.Frame, error) {
	if err != nil {
		return nil, err
	}
	if n.Verbose {
		log.Printf("normalised frame of %d rows: %v\n", f.Len(), f.Names())
	}
	return f, nil
}

func columnName(names []string, j int) string {
	if j < len(names) && len(names[j]) > 0 {
		return names[j]
	}
	return strconv.Itoa(j)
}
