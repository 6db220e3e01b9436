package encoders

import (
	"sort"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/xtgo/set"
)

// OneHotEncoder expands every column of its input into one indicator column per category seen during training,
// named "<column>_<category>". Categories not seen during training encode as all zeros.
type OneHotEncoder struct {
	Columns    []string
	Categories [][]string
	Fitted     bool
}

// NewOneHotEncoder creates an unfitted one-hot encoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

func (e *OneHotEncoder) Fit(X *frame.Frame, y []float64) (Stage, error) {
	e.Columns = X.Names()
	e.Categories = make([][]string, len(e.Columns))
	for j, name := range e.Columns {
		v, err := X.Strings(name)
		if err != nil {
			return nil, err
		}
		cats := append([]string(nil), v...)
		sort.Strings(cats)
		n := set.Uniq(sort.StringSlice(cats))
		e.Categories[j] = cats[:n]
	}
	e.Fitted = true
	return e, nil
}

// Names of the indicator columns, in output order.
func (e *OneHotEncoder) Names() []string {
	var names []string
	for j, name := range e.Columns {
		for _, c := range e.Categories[j] {
			names = append(names, name+"_"+c)
		}
	}
	return names
}

// Encode produces the sparse indicator representation of a frame.
func (e *OneHotEncoder) Encode(X *frame.Frame) (*Sparse, error) {
	if !e.Fitted {
		return nil, faults.NotFitted("one_hot")
	}
	sp := &Sparse{Rows: X.Len(), Names: e.Names(), Active: make([][]int, X.Len())}
	offset := 0
	for j, name := range e.Columns {
		v, err := X.Strings(name)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(e.Categories[j]))
		for k, c := range e.Categories[j] {
			index[c] = offset + k
		}
		for i, x := range v {
			if k, ok := index[x]; ok {
				sp.Active[i] = append(sp.Active[i], k)
			}
		}
		offset += len(e.Categories[j])
	}
	return sp, nil
}

func (e *OneHotEncoder) Transform(X *frame.Frame) (*frame.Frame, error) {
	sp, err := e.Encode(X)
	if err != nil {
		return nil, err
	}
	return DataframeNormalizer{}.FromSparse(sp)
}
