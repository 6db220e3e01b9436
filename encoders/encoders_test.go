package encoders_test

import (
	"math"
	"testing"
	"time"

	"github.com/hscells/taxifare/encoders"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func trips() *frame.Frame {
	return frame.Must(
		frame.StringColumn("pickup_datetime", []string{
			"2013-07-06 17:18:00 UTC",
			"2015-01-05 03:00:00 UTC",
			"2012-12-31 23:30:00 UTC",
		}),
		frame.FloatColumn("pickup_latitude", []float64{40.7614, 40.7128, 40.75}),
		frame.FloatColumn("pickup_longitude", []float64{-73.9776, -74.0060, -73.99}),
		frame.FloatColumn("dropoff_latitude", []float64{40.6413, 40.7306, 40.75}),
		frame.FloatColumn("dropoff_longitude", []float64{-73.7781, -73.9352, -73.99}),
	)
}

func TestTimeFeaturesConvertToNewYork(t *testing.T) {
	out, err := encoders.NewTimeFeatures("pickup_datetime").Transform(trips())
	require.NoError(t, err)
	assert.Equal(t, []string{"dow", "hour", "month", "year"}, out.Names())

	dow, _ := out.Column("dow")
	hour, _ := out.Column("hour")
	month, _ := out.Column("month")
	year, _ := out.Column("year")

	// Saturday 13:18 EDT.
	assert.Equal(t, int64(5), dow.Ints[0])
	assert.Equal(t, int64(13), hour.Ints[0])
	// Sunday 22:00 EST, the day before in New York.
	assert.Equal(t, int64(6), dow.Ints[1])
	assert.Equal(t, int64(22), hour.Ints[1])
	assert.Equal(t, int64(1), month.Ints[1])
	assert.Equal(t, int64(2015), year.Ints[1])
	// Monday 18:30 EST.
	assert.Equal(t, int64(0), dow.Ints[2])
	assert.Equal(t, int64(12), month.Ints[2])
	assert.Equal(t, int64(2012), year.Ints[2])
}

func TestTimeFeaturesAcceptsTimeColumns(t *testing.T) {
	f := frame.Must(frame.TimeColumn("ts", []time.Time{time.Date(2014, 3, 3, 12, 0, 0, 0, time.UTC)}))
	out, err := encoders.NewTimeFeatures("ts").Transform(f)
	require.NoError(t, err)
	hour, _ := out.Column("hour")
	assert.Equal(t, int64(7), hour.Ints[0])
}

func TestTimeFeaturesRejectsBadInput(t *testing.T) {
	f := frame.Must(frame.StringColumn("ts", []string{"yesterday"}))
	_, err := encoders.NewTimeFeatures("ts").Transform(f)
	assert.True(t, faults.Is(err, faults.TypeConversion))

	f = frame.Must(frame.FloatColumn("ts", []float64{1}))
	_, err = encoders.NewTimeFeatures("ts").Transform(f)
	assert.True(t, faults.Is(err, faults.TypeConversion))

	_, err = (&encoders.TimeFeatures{Column: "pickup_datetime", TimeZone: "Nowhere/Land"}).Transform(trips())
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestDistanceTypes(t *testing.T) {
	_, err := encoders.NewDistance("chebyshev", geo.PickupDropoff)
	assert.True(t, faults.Is(err, faults.Configuration))

	for _, kind := range []string{encoders.Haversine, encoders.Euclidian, encoders.Manhattan} {
		d, err := encoders.NewDistance(kind, geo.PickupDropoff)
		require.NoError(t, err)
		out, err := d.Transform(trips())
		require.NoError(t, err)
		assert.Equal(t, []string{"distance"}, out.Names())
		v, _ := out.Floats("distance")
		assert.Equal(t, 0.0, v[2], kind)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, 0.0)
		}
	}

	d, _ := encoders.NewDistance(encoders.Haversine, geo.PickupDropoff)
	out, _ := d.Transform(trips())
	v, _ := out.Floats("distance")
	assert.InDelta(t, 21.0, v[0], 1)
}

func TestDistanceToCenter(t *testing.T) {
	f := frame.Must(
		frame.FloatColumn("pickup_latitude", []float64{encoders.CenterLat}),
		frame.FloatColumn("pickup_longitude", []float64{encoders.CenterLon}),
		frame.FloatColumn("dropoff_latitude", []float64{40.7614}),
		frame.FloatColumn("dropoff_longitude", []float64{-73.9776}),
	)
	out, err := encoders.NewDistanceToCenter(geo.PickupDropoff).Transform(f)
	require.NoError(t, err)
	pickup, _ := out.Floats("pickup_distance_to_center")
	dropoff, _ := out.Floats("dropoff_distance_to_center")
	assert.Equal(t, 0.0, pickup[0])
	assert.Greater(t, dropoff[0], 5.0)
}

func TestDirectionMeasuresStartMinusEnd(t *testing.T) {
	f := frame.Must(
		frame.FloatColumn("pickup_latitude", []float64{1, 0}),
		frame.FloatColumn("pickup_longitude", []float64{1, 0}),
		frame.FloatColumn("dropoff_latitude", []float64{0, 0}),
		frame.FloatColumn("dropoff_longitude", []float64{0, 0}),
	)
	out, err := encoders.NewDirection(geo.PickupDropoff).Transform(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"delta_lon", "delta_lat", "direction"}, out.Names())
	dLon, _ := out.Floats("delta_lon")
	dir, _ := out.Floats("direction")
	assert.Equal(t, 1.0, dLon[0])
	assert.InDelta(t, 45.0, dir[0], 1e-9)
	assert.Equal(t, 0.0, dir[1])
}

func TestGeohash(t *testing.T) {
	out, err := encoders.NewGeohash(encoders.DefaultGeohashPrecision, geo.PickupDropoff).Transform(trips())
	require.NoError(t, err)
	pickup, _ := out.Column("geohash_pickup")
	dropoff, _ := out.Column("geohash_dropoff")
	for i := range pickup.Strings {
		assert.Len(t, pickup.Strings[i], 6)
		assert.Equal(t, "dr5", pickup.Strings[i][:3])
	}
	assert.Equal(t, pickup.Strings[2], dropoff.Strings[2])

	_, err = encoders.NewGeohash(0, geo.PickupDropoff).Transform(trips())
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestStandardScaler(t *testing.T) {
	train := frame.Must(
		frame.FloatColumn("a", []float64{1, 2, 3, 4}),
		frame.FloatColumn("b", []float64{7, 7, 7, 7}),
	)
	s := encoders.NewStandardScaler()
	_, err := s.Transform(train)
	assert.True(t, faults.Is(err, faults.PipelineNotFitted))

	_, out, err := encoders.FitTransform(s, train, nil)
	require.NoError(t, err)
	a, _ := out.Floats("a")
	b, _ := out.Floats("b")
	mean, sq := 0.0, 0.0
	for _, x := range a {
		mean += x
		sq += x * x
	}
	assert.InDelta(t, 0, mean/4, 1e-12)
	assert.InDelta(t, 1, sq/4, 1e-12)
	assert.Equal(t, []float64{0, 0, 0, 0}, b)

	// Statistics are not refitted on new data.
	out, err = s.Transform(frame.Must(
		frame.FloatColumn("a", []float64{2.5}),
		frame.FloatColumn("b", []float64{8}),
	))
	require.NoError(t, err)
	a, _ = out.Floats("a")
	b, _ = out.Floats("b")
	assert.InDelta(t, 0, a[0], 1e-12)
	assert.Equal(t, 1.0, b[0])
}

func TestOneHotEncoderIgnoresUnknownCategories(t *testing.T) {
	train := frame.Must(
		frame.IntColumn("hour", []int64{3, 1, 3}),
		frame.StringColumn("zone", []string{"b", "a", "a"}),
	)
	e := encoders.NewOneHotEncoder()
	_, err := e.Transform(train)
	assert.True(t, faults.Is(err, faults.PipelineNotFitted))

	_, out, err := encoders.FitTransform(e, train, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hour_1", "hour_3", "zone_a", "zone_b"}, out.Names())
	h3, _ := out.Floats("hour_3")
	assert.Equal(t, []float64{1, 0, 1}, h3)

	out, err = e.Transform(frame.Must(
		frame.IntColumn("hour", []int64{9}),
		frame.StringColumn("zone", []string{"b"}),
	))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Width())
	for _, name := range []string{"hour_1", "hour_3", "zone_a"} {
		v, _ := out.Floats(name)
		assert.Equal(t, []float64{0}, v, name)
	}
	v, _ := out.Floats("zone_b")
	assert.Equal(t, []float64{1}, v)
}

func TestDataframeNormalizer(t *testing.T) {
	n := encoders.DataframeNormalizer{}
	f, err := n.FromMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "1"}, f.Names())

	sp := &encoders.Sparse{Rows: 2, Names: []string{"p", "q"}, Active: [][]int{{1}, {0, 1}}}
	f, err = n.FromSparse(sp)
	require.NoError(t, err)
	q, _ := f.Floats("q")
	assert.Equal(t, []float64{1, 1}, q)
	p, _ := f.Floats("p")
	assert.Equal(t, []float64{0, 1}, p)

	f, err = n.Transform(frame.Must(
		frame.IntColumn("i", []int64{1, 2}),
		frame.FloatColumn("f", []float64{math.Pi, 0}),
	))
	require.NoError(t, err)
	for _, c := range f.Columns {
		assert.Equal(t, frame.Float, c.Kind)
	}

	_, err = n.Transform(frame.Must(frame.StringColumn("s", []string{"x"})))
	assert.True(t, faults.Is(err, faults.TypeConversion))
}
