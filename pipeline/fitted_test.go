package pipeline_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/hscells/taxifare/data"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/features"
	"github.com/hscells/taxifare/learning"
	"github.com/hscells/taxifare/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, blocks []string, estimator string) *pipeline.Pipeline {
	c, err := features.New(blocks, features.DefaultOptions())
	require.NoError(t, err)
	var params map[string]float64
	switch estimator {
	case "GBM", "RandomForestRegressor", "xgboost":
		params = map[string]float64{"n_estimators": 5}
	}
	e, _, err := learning.Select(estimator, params)
	require.NoError(t, err)
	return pipeline.New(c, e)
}

func TestPredictBeforeFit(t *testing.T) {
	p := build(t, []string{"distance"}, "LinearRegression")
	X, _, err := data.Labels(data.Synthetic(10, rand.New(rand.NewSource(1))))
	require.NoError(t, err)
	_, err = p.Predict(X)
	assert.True(t, faults.Is(err, faults.PipelineNotFitted))
	_, _, err = p.Features(X)
	assert.True(t, faults.Is(err, faults.PipelineNotFitted))
	assert.True(t, faults.Is(p.Encode(&bytes.Buffer{}), faults.PipelineNotFitted))
}

func TestFitRejectsMismatchedTargets(t *testing.T) {
	p := build(t, []string{"distance"}, "LinearRegression")
	X, y, err := data.Labels(data.Synthetic(10, rand.New(rand.NewSource(1))))
	require.NoError(t, err)
	assert.True(t, faults.Is(p.Fit(X, y[:3]), faults.DataFormat))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, estimator := range learning.Estimators() {
		blocks := []string{"distance", "time_features", "direction", "distance_to_center", "geohash"}
		p := build(t, blocks, estimator)
		X, y, err := data.Labels(data.Synthetic(80, rand.New(rand.NewSource(2))))
		require.NoError(t, err)
		require.NoError(t, p.Fit(X, y), estimator)
		want, err := p.Predict(X)
		require.NoError(t, err, estimator)

		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf), estimator)
		q, err := pipeline.Decode(&buf)
		require.NoError(t, err, estimator)
		got, err := q.Predict(X)
		require.NoError(t, err, estimator)
		assert.Equal(t, want, got, estimator)
		assert.Equal(t, p.Composer.Names(), q.Composer.Names(), estimator)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := pipeline.Decode(bytes.NewReader([]byte("not a pipeline")))
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestFeaturesNamesMatchMatrix(t *testing.T) {
	p := build(t, []string{"distance", "time_features"}, "Ridge")
	X, y, err := data.Labels(data.Synthetic(50, rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))
	m, names, err := p.Features(X)
	require.NoError(t, err)
	_, w := m.Dims()
	assert.Len(t, names, w)
}

func TestFeatureFrame(t *testing.T) {
	p := build(t, []string{"distance", "direction"}, "Ridge")
	X, y, err := data.Labels(data.Synthetic(40, rand.New(rand.NewSource(4))))
	require.NoError(t, err)

	_, err = p.FeatureFrame(X)
	assert.True(t, faults.Is(err, faults.PipelineNotFitted))

	require.NoError(t, p.Fit(X, y))
	f, err := p.FeatureFrame(X)
	require.NoError(t, err)
	m, names, err := p.Features(X)
	require.NoError(t, err)
	assert.Equal(t, names, f.Names())
	assert.Equal(t, X.Len(), f.Len())
	col, err := f.Floats(names[0])
	require.NoError(t, err)
	assert.Equal(t, m.At(0, 0), col[0])
}
