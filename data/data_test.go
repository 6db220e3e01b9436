package data_test

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hscells/taxifare/data"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count
2009-06-15 17:26:21.0000001,4.5,2009-06-15 17:26:21 UTC,-73.844311,40.721319,-73.84161,40.712278,1
2010-01-05 16:52:16.0000002,16.9,2010-01-05 16:52:16 UTC,-74.016048,40.711303,-73.979268,40.782004,1
2011-08-18 00:35:00.00000049,5.7,2011-08-18 00:35:00 UTC,-73.982738,40.76127,-73.991242,40.750562,
2012-04-21 04:30:42.0000001,7.7,2012-04-21 04:30:42 UTC,-73.98713,40.733143,-73.991567,40.758092,1
`

func TestReadTypesAndMissingValues(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())
	key, _ := f.Column(data.Key)
	assert.Equal(t, frame.String, key.Kind)
	ts, _ := f.Column(data.PickupDatetime)
	assert.Equal(t, frame.String, ts.Kind)

	passengers, err := f.Floats(data.PassengerCount)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(passengers[2]))
}

func TestWriteReadsBack(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, data.Write(&buf, f))
	assert.Equal(t, sample, buf.String())
}

func TestArrowReadsBack(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, data.WriteArrow(&buf, f))

	g, err := data.ReadArrow(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, f.Names(), g.Names())
	assert.Equal(t, f.Hash(), g.Hash())

	g, err = data.ReadArrow(bytes.NewReader(buf.Bytes()), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	_, err = data.ReadArrow(strings.NewReader("not arrow"), 0)
	assert.True(t, faults.Is(err, faults.DataLoad))
}

func TestLoadLocalArrow(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "train"+data.ArrowExtension)
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, data.WriteArrow(out, f))
	require.NoError(t, out.Close())

	g, err := data.Load(context.Background(), data.Local, 0, data.Storage{LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	fares, err := g.Floats(data.Fare)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5, 16.9, 5.7, 7.7}, fares)

	assert.True(t, data.IsArrow("https://storage.googleapis.com/b/train.ARROW?alt=media"))
	assert.False(t, data.IsArrow("train.csv"))
}

func TestReadRowLimit(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestReadMalformedCell(t *testing.T) {
	bad := strings.Replace(sample, "16.9", "sixteen", 1)
	_, err := data.Read(strings.NewReader(bad), 0)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.DataFormat))
	assert.Contains(t, err.Error(), "fare_amount")
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	f, err := data.Load(context.Background(), data.Local, 3, data.Storage{LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())

	_, err = data.Load(context.Background(), data.Local, 3, data.Storage{LocalPath: path + ".missing"})
	assert.True(t, faults.Is(err, faults.DataLoad))
}

func TestLoadRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/taxi.csv" {
			_, _ = w.Write([]byte(sample))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	f, err := data.Load(context.Background(), data.AWS, 10, data.Storage{AWSURL: ts.URL + "/taxi.csv"})
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	_, err = data.Load(context.Background(), data.AWS, 10, data.Storage{AWSURL: ts.URL + "/gone.csv"})
	assert.True(t, faults.Is(err, faults.DataLoad))

	_, err = data.Load(context.Background(), "ftp", 10, data.Storage{})
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestGCPURL(t *testing.T) {
	u, err := data.Storage{GCPBucket: "bucket", GCPPath: "/data/train_1k.csv"}.URL(data.GCP)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/data/train_1k.csv", u)
}

func trip(fare, passengers, pickupLat, pickupLon, dropoffLat, dropoffLon float64) *frame.Frame {
	return frame.Must(
		frame.StringColumn(data.PickupDatetime, []string{"2013-07-06 17:18:00 UTC"}),
		frame.FloatColumn(data.Fare, []float64{fare}),
		frame.FloatColumn(data.PassengerCount, []float64{passengers}),
		frame.FloatColumn(data.PickupLatitude, []float64{pickupLat}),
		frame.FloatColumn(data.PickupLongitude, []float64{pickupLon}),
		frame.FloatColumn(data.DropoffLatitude, []float64{dropoffLat}),
		frame.FloatColumn(data.DropoffLongitude, []float64{dropoffLon}),
	)
}

func TestCleanBounds(t *testing.T) {
	for name, c := range map[string]struct {
		f    *frame.Frame
		keep bool
	}{
		"valid":              {trip(10, 1, 40.7, -74, 40.8, -73.9), true},
		"passengers 7":       {trip(10, 7, 40.7, -74, 40.8, -73.9), true},
		"passengers 8":       {trip(10, 8, 40.7, -74, 40.8, -73.9), false},
		"passengers 0":       {trip(10, 0, 40.7, -74, 40.8, -73.9), true},
		"passengers -1":      {trip(10, -1, 40.7, -74, 40.8, -73.9), false},
		"fare 0":             {trip(0, 1, 40.7, -74, 40.8, -73.9), false},
		"fare 4000":          {trip(4000, 1, 40.7, -74, 40.8, -73.9), true},
		"fare 4000.01":       {trip(4000.01, 1, 40.7, -74, 40.8, -73.9), false},
		"pickup lat 39.99":   {trip(10, 1, 39.99, -74, 40.8, -73.9), false},
		"pickup lat 42":      {trip(10, 1, 42, -74, 40.8, -73.9), true},
		"pickup lon -74.31":  {trip(10, 1, 40.7, -74.31, 40.8, -73.9), false},
		"pickup lon -72.9":   {trip(10, 1, 40.7, -72.9, 40.8, -73.9), true},
		"dropoff lat 42.01":  {trip(10, 1, 40.7, -74, 42.01, -73.9), false},
		"dropoff lon -72.89": {trip(10, 1, 40.7, -74, 40.8, -72.89), false},
		"dropoff lon -74.3":  {trip(10, 1, 40.7, -74, 40.8, -74.3), true},
		"pickup origin":      {trip(10, 1, 0, 0, 40.8, -73.9), false},
		"dropoff origin":     {trip(10, 1, 40.7, -74, 0, 0), false},
		"missing passengers": {trip(10, math.NaN(), 40.7, -74, 40.8, -73.9), false},
	} {
		out, err := data.Clean(c.f)
		require.NoError(t, err, name)
		if c.keep {
			assert.Equal(t, 1, out.Len(), name)
		} else {
			assert.Equal(t, 0, out.Len(), name)
		}
	}
}

func TestCleanWithoutFares(t *testing.T) {
	out, err := data.Clean(trip(0, 1, 40.7, -74, 40.8, -73.9).Drop(data.Fare))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())

	_, err = data.Clean(trip(10, 1, 40.7, -74, 40.8, -73.9).Drop(data.PassengerCount))
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestCleanIsIdempotent(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	once, err := data.Clean(f)
	require.NoError(t, err)
	assert.Equal(t, 3, once.Len())
	twice, err := data.Clean(once)
	require.NoError(t, err)
	assert.Equal(t, once.Hash(), twice.Hash())
}

func TestOptimize(t *testing.T) {
	f, err := data.Read(strings.NewReader(sample), 0)
	require.NoError(t, err)
	clean, err := data.Clean(f)
	require.NoError(t, err)
	opt := data.Optimize(clean)
	c, _ := opt.Column(data.PassengerCount)
	assert.Equal(t, frame.Int, c.Kind)
	c, _ = opt.Column(data.Fare)
	assert.Equal(t, frame.Float, c.Kind)
	c, _ = opt.Column(data.PickupLatitude)
	assert.Equal(t, frame.Float, c.Kind)

	// The raw batch still has a missing passenger count, so it stays a float column.
	c, _ = data.Optimize(f).Column(data.PassengerCount)
	assert.Equal(t, frame.Float, c.Kind)

	again, err := data.Clean(opt)
	require.NoError(t, err)
	assert.Equal(t, opt.Len(), again.Len())
}

func TestSyntheticTripsSurviveCleaning(t *testing.T) {
	f := data.Synthetic(200, rand.New(rand.NewSource(1)))
	out, err := data.Clean(f)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Len())

	X, y, err := data.Labels(out)
	require.NoError(t, err)
	assert.False(t, X.Has(data.Fare))
	assert.Len(t, y, 200)
}
