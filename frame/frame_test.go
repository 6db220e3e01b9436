package frame_test

import (
	"math"
	"testing"
	"time"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *frame.Frame {
	return frame.Must(
		frame.FloatColumn("a", []float64{1, 2, math.NaN()}),
		frame.IntColumn("b", []int64{4, 5, 6}),
		frame.StringColumn("c", []string{"x", "", "z"}),
	)
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := frame.New(
		frame.FloatColumn("a", []float64{1, 2}),
		frame.FloatColumn("b", []float64{1}),
	)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.DataFormat))

	_, err = frame.New(frame.FloatColumn("a", nil), frame.FloatColumn("a", nil))
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestSelectAndMissingColumn(t *testing.T) {
	f := sample()
	s, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, s.Names())

	_, err = f.Select("nope")
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestFloatsWidensIntegers(t *testing.T) {
	v, err := sample().Floats("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, v)

	_, err = sample().Floats("c")
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestTakeFilterDoNotShareStorage(t *testing.T) {
	f := sample()
	g := f.Filter([]bool{true, false, true})
	require.Equal(t, 2, g.Len())
	g.Columns[1].Ints[0] = 100
	assert.Equal(t, int64(4), f.Columns[1].Ints[0])

	c, _ := g.Column("c")
	assert.Equal(t, []string{"x", "z"}, c.Strings)
}

func TestWithReplacesInPlaceOrder(t *testing.T) {
	f := sample()
	g, err := f.With(frame.FloatColumn("b", []float64{0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, g.Names())
	c, _ := f.Column("b")
	assert.Equal(t, frame.Int, c.Kind)
}

func TestMissing(t *testing.T) {
	f := sample()
	a, _ := f.Column("a")
	c, _ := f.Column("c")
	assert.True(t, a.Missing(2))
	assert.False(t, a.Missing(0))
	assert.True(t, c.Missing(1))
}

func TestHashIsContentAddressed(t *testing.T) {
	assert.Equal(t, sample().Hash(), sample().Copy().Hash())
	other := sample()
	other.Columns[1].Ints[2] = 7
	assert.NotEqual(t, sample().Hash(), other.Hash())
}

func TestRecordRoundTrip(t *testing.T) {
	at := time.Date(2013, 7, 2, 19, 54, 0, 0, time.UTC)
	f := frame.Must(
		frame.FloatColumn("a", []float64{1, math.NaN()}),
		frame.IntColumn("b", []int64{4, 5}),
		frame.StringColumn("c", []string{"x", ""}),
		frame.TimeColumn("d", []time.Time{at, {}}),
	)
	rec := f.Record(nil)
	defer rec.Release()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, int64(4), rec.NumCols())
	assert.Equal(t, 1, rec.Column(0).NullN())

	g, err := frame.FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, f.Names(), g.Names())
	assert.Equal(t, f.Hash(), g.Hash())
	d, _ := g.Column("d")
	assert.True(t, d.Times[0].Equal(at))
	assert.True(t, d.Missing(1))
}

func TestFromSchemaAndConcat(t *testing.T) {
	empty, err := frame.FromSchema(sample().Schema())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, []string{"a", "b", "c"}, empty.Names())

	g, err := frame.Concat(empty, sample(), sample())
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())

	_, err = frame.Concat(sample(), sample().Drop("c"))
	assert.True(t, faults.Is(err, faults.DataFormat))
}
