// Package frame provides the record batch used throughout taxifare: a small columnar table of named, typed columns.
//
// A Frame is treated as a value. Every operation that changes the shape or content of a frame returns a new one,
// so transformers can be handed the same frame without defensive copying on the caller's side.
package frame

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"github.com/hscells/taxifare/faults"
)

// Kind is the type of the values held by a column.
type Kind uint8

const (
	Float Kind = iota
	Int
	String
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Time:
		return "time"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Column is a named sequence of values. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
	Times   []time.Time
}

// FloatColumn creates a float column.
func FloatColumn(name string, v []float64) Column {
	return Column{Name: name, Kind: Float, Floats: v}
}

// IntColumn creates an integer column.
func IntColumn(name string, v []int64) Column {
	return Column{Name: name, Kind: Int, Ints: v}
}

// StringColumn creates a string column.
func StringColumn(name string, v []string) Column {
	return Column{Name: name, Kind: String, Strings: v}
}

// TimeColumn creates a timestamp column.
func TimeColumn(name string, v []time.Time) Column {
	return Column{Name: name, Kind: Time, Times: v}
}

// Len is the number of values in the column.
func (c Column) Len() int {
	switch c.Kind {
	case Float:
		return len(c.Floats)
	case Int:
		return len(c.Ints)
	case String:
		return len(c.Strings)
	case Time:
		return len(c.Times)
	}
	return 0
}

// Missing reports whether the value at row i is missing (NaN, empty string or zero time).
func (c Column) Missing(i int) bool {
	switch c.Kind {
	case Float:
		return math.IsNaN(c.Floats[i])
	case String:
		return len(c.Strings[i]) == 0
	case Time:
		return c.Times[i].IsZero()
	}
	return false
}

// Format returns the value at row i as a string.
func (c Column) Format(i int) string {
	switch c.Kind {
	case Float:
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case String:
		return c.Strings[i]
	case Time:
		return c.Times[i].Format(time.RFC3339)
	}
	return ""
}

func (c Column) take(idx []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Float:
		out.Floats = make([]float64, len(idx))
		for i, j := range idx {
			out.Floats[i] = c.Floats[j]
		}
	case Int:
		out.Ints = make([]int64, len(idx))
		for i, j := range idx {
			out.Ints[i] = c.Ints[j]
		}
	case String:
		out.Strings = make([]string, len(idx))
		for i, j := range idx {
			out.Strings[i] = c.Strings[j]
		}
	case Time:
		out.Times = make([]time.Time, len(idx))
		for i, j := range idx {
			out.Times[i] = c.Times[j]
		}
	}
	return out
}

func (c Column) copy() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Float:
		out.Floats = append([]float64(nil), c.Floats...)
	case Int:
		out.Ints = append([]int64(nil), c.Ints...)
	case String:
		out.Strings = append([]string(nil), c.Strings...)
	case Time:
		out.Times = append([]time.Time(nil), c.Times...)
	}
	return out
}

// Frame is an ordered collection of equal length columns.
type Frame struct {
	Columns []Column
}

// New creates a frame, checking that column names are unique and that every column has the same length.
func New(columns ...Column) (*Frame, error) {
	seen := make(map[string]struct{})
	for _, c := range columns {
		if _, ok := seen[c.Name]; ok {
			return nil, faults.Newf(faults.DataFormat, "frame", c.Name, "duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != columns[0].Len() {
			return nil, faults.Newf(faults.DataFormat, "frame", c.Name, "column %q has %d rows, expected %d", c.Name, c.Len(), columns[0].Len())
		}
	}
	return &Frame{Columns: columns}, nil
}

// Must is like New but panics on error. It is intended for tests and literals.
func Must(columns ...Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len is the number of rows.
func (f *Frame) Len() int {
	if f == nil || len(f.Columns) == 0 {
		return 0
	}
	return f.Columns[0].Len()
}

// Width is the number of columns.
func (f *Frame) Width() int {
	return len(f.Columns)
}

// Names of the columns, in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Floats returns the values of a numeric column as float64. Integer columns are widened.
func (f *Frame) Floats(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, faults.Newf(faults.DataFormat, "frame", name, "missing column %q", name)
	}
	switch c.Kind {
	case Float:
		return c.Floats, nil
	case Int:
		v := make([]float64, len(c.Ints))
		for i, x := range c.Ints {
			v[i] = float64(x)
		}
		return v, nil
	}
	return nil, faults.Newf(faults.DataFormat, "frame", name, "column %q is %s, not numeric", name, c.Kind)
}

// Strings returns the values of a column formatted as strings.
func (f *Frame) Strings(name string) ([]string, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, faults.Newf(faults.DataFormat, "frame", name, "missing column %q", name)
	}
	if c.Kind == String {
		return c.Strings, nil
	}
	v := make([]string, c.Len())
	for i := range v {
		v[i] = c.Format(i)
	}
	return v, nil
}

// Select creates a frame holding only the named columns, in the order they were requested.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		c, ok := f.Column(name)
		if !ok {
			return nil, faults.Newf(faults.DataFormat, "frame", name, "missing column %q", name)
		}
		cols[i] = c
	}
	return New(cols...)
}

// With creates a frame with the column added, or replaced if a column of the same name exists.
func (f *Frame) With(c Column) (*Frame, error) {
	cols := make([]Column, 0, len(f.Columns)+1)
	replaced := false
	for _, x := range f.Columns {
		if x.Name == c.Name {
			cols = append(cols, c)
			replaced = true
			continue
		}
		cols = append(cols, x)
	}
	if !replaced {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop creates a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var cols []Column
	for _, c := range f.Columns {
		if _, ok := drop[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	return &Frame{Columns: cols}
}

// Take creates a frame holding the rows at the given indices, in that order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]Column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = c.take(idx)
	}
	return &Frame{Columns: cols}
}

// Filter creates a frame holding the rows for which keep is true.
func (f *Frame) Filter(keep []bool) *Frame {
	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Head creates a frame of at most the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.Len() {
		n = f.Len()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}

// Copy creates a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	cols := make([]Column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = c.copy()
	}
	return &Frame{Columns: cols}
}

// Hash computes a fingerprint of the names, kinds and values of the frame.
func (f *Frame) Hash() uint64 {
	h := fnv.New64a()
	b := make([]byte, 8)
	for _, c := range f.Columns {
		h.Write([]byte(c.Name))
		h.Write([]byte{byte(c.Kind)})
		switch c.Kind {
		case Float:
			for _, v := range c.Floats {
				binary.LittleEndian.PutUint64(b, math.Float64bits(v))
				h.Write(b)
			}
		case Int:
			for _, v := range c.Ints {
				binary.LittleEndian.PutUint64(b, uint64(v))
				h.Write(b)
			}
		case String:
			for _, v := range c.Strings {
				h.Write([]byte(v))
				h.Write([]byte{0})
			}
		case Time:
			for _, v := range c.Times {
				binary.LittleEndian.PutUint64(b, uint64(v.UnixNano()))
				h.Write(b)
			}
		}
	}
	return h.Sum64()
}
