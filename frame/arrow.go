package frame

import (
	"math"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/hscells/taxifare/faults"
)

// Pool is the allocator used for Arrow records when none is given.
var Pool = memory.NewGoAllocator()

var timestampType = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// Schema describes the frame as an Arrow schema. Every field is nullable.
func (f *Frame) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(f.Columns))
	for i, c := range f.Columns {
		fields[i] = arrow.Field{Name: c.Name, Nullable: true}
		switch c.Kind {
		case Float:
			fields[i].Type = arrow.PrimitiveTypes.Float64
		case Int:
			fields[i].Type = arrow.PrimitiveTypes.Int64
		case String:
			fields[i].Type = arrow.BinaryTypes.String
		case Time:
			fields[i].Type = timestampType
		}
	}
	return arrow.NewSchema(fields, nil)
}

// Record converts the frame into an Arrow record. Missing values become nulls. The caller must release the record.
func (f *Frame) Record(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = Pool
	}
	cols := make([]arrow.Array, len(f.Columns))
	defer func() {
		for _, a := range cols {
			if a != nil {
				a.Release()
			}
		}
	}()
	for i, c := range f.Columns {
		cols[i] = c.array(mem)
	}
	return array.NewRecord(f.Schema(), cols, int64(f.Len()))
}

func (c Column) array(mem memory.Allocator) arrow.Array {
	switch c.Kind {
	case Float:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i, v := range c.Floats {
			if c.Missing(i) {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray()
	case Int:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(c.Ints, nil)
		return b.NewArray()
	case String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i, v := range c.Strings {
			if c.Missing(i) {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray()
	default:
		b := array.NewTimestampBuilder(mem, timestampType)
		defer b.Release()
		for i, v := range c.Times {
			if c.Missing(i) {
				b.AppendNull()
				continue
			}
			b.Append(arrow.Timestamp(v.UnixNano()))
		}
		return b.NewArray()
	}
}

// FromRecord copies an Arrow record into a frame. Nulls become missing values, so an integer column holding nulls
// is read as floats. The record may be released once FromRecord returns.
func FromRecord(rec arrow.Record) (*Frame, error) {
	cols := make([]Column, rec.NumCols())
	for i := range cols {
		c, err := column(rec.ColumnName(i), rec.Column(i))
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return New(cols...)
}

func column(name string, a arrow.Array) (Column, error) {
	n := a.Len()
	switch a := a.(type) {
	case *array.Float64:
		v := make([]float64, n)
		for i := range v {
			v[i] = math.NaN()
			if a.IsValid(i) {
				v[i] = a.Value(i)
			}
		}
		return FloatColumn(name, v), nil
	case *array.Float32:
		v := make([]float64, n)
		for i := range v {
			v[i] = math.NaN()
			if a.IsValid(i) {
				v[i] = float64(a.Value(i))
			}
		}
		return FloatColumn(name, v), nil
	case *array.Int64:
		if a.NullN() > 0 {
			v := make([]float64, n)
			for i := range v {
				v[i] = math.NaN()
				if a.IsValid(i) {
					v[i] = float64(a.Value(i))
				}
			}
			return FloatColumn(name, v), nil
		}
		return IntColumn(name, append([]int64(nil), a.Int64Values()...)), nil
	case *array.String:
		v := make([]string, n)
		for i := range v {
			if a.IsValid(i) {
				v[i] = a.Value(i)
			}
		}
		return StringColumn(name, v), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		v := make([]time.Time, n)
		for i := range v {
			if a.IsValid(i) {
				v[i] = a.Value(i).ToTime(unit)
			}
		}
		return TimeColumn(name, v), nil
	}
	return Column{}, faults.Newf(faults.TypeConversion, "frame", name, "column %q has unsupported arrow type %s", name, a.DataType())
}

// Concat appends the rows of frames with the same columns.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return &Frame{}, nil
	}
	cols := frames[0].Copy().Columns
	for _, f := range frames[1:] {
		if f.Width() != len(cols) {
			return nil, faults.Newf(faults.DataFormat, "frame", "columns", "cannot append %d columns to %d", f.Width(), len(cols))
		}
		for j, c := range f.Columns {
			if c.Name != cols[j].Name || c.Kind != cols[j].Kind {
				return nil, faults.Newf(faults.DataFormat, "frame", c.Name, "column %q (%s) does not match %q (%s)", c.Name, c.Kind, cols[j].Name, cols[j].Kind)
			}
			cols[j].Floats = append(cols[j].Floats, c.Floats...)
			cols[j].Ints = append(cols[j].Ints, c.Ints...)
			cols[j].Strings = append(cols[j].Strings, c.Strings...)
			cols[j].Times = append(cols[j].Times, c.Times...)
		}
	}
	return New(cols...)
}

// FromSchema creates a frame without rows holding the fields of an Arrow schema.
func FromSchema(s *arrow.Schema) (*Frame, error) {
	cols := make([]Column, s.NumFields())
	for i, field := range s.Fields() {
		cols[i] = Column{Name: field.Name}
		switch field.Type.ID() {
		case arrow.FLOAT64, arrow.FLOAT32:
			cols[i].Kind = Float
		case arrow.INT64:
			cols[i].Kind = Int
		case arrow.STRING:
			cols[i].Kind = String
		case arrow.TIMESTAMP:
			cols[i].Kind = Time
		default:
			return nil, faults.Newf(faults.TypeConversion, "frame", field.Name, "column %q has unsupported arrow type %s", field.Name, field.Type)
		}
	}
	return New(cols...)
}
