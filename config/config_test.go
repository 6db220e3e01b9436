package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	r := config.Defaults()
	assert.Equal(t, "LinearRegression", r.Estimator)
	assert.Equal(t, "euclidian", r.DistanceType)
	assert.Equal(t, 10000, r.NRows)
	assert.True(t, r.Split)
	assert.Equal(t, 6, r.GeohashPrecision)

	params := r.Params()
	assert.Len(t, params, len(config.Keys()))
	assert.Equal(t, "distance,time_features", params["feateng"])
	assert.Equal(t, "false", params["mlflow"])
}

func TestFromMap(t *testing.T) {
	r, err := config.FromMap(map[string]string{"estimator": "GBM", "nrows": " 500 ", "split": "false", "seed": "7"})
	require.NoError(t, err)
	assert.Equal(t, "GBM", r.Estimator)
	assert.Equal(t, 500, r.NRows)
	assert.False(t, r.Split)
	assert.Equal(t, int64(7), r.Seed)

	_, err = config.FromMap(map[string]string{"nrows": "many"})
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.Configuration))
	assert.Contains(t, err.Error(), "nrows")

	_, err = config.FromMap(map[string]string{"colour": "red"})
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestOverrides(t *testing.T) {
	r := config.Defaults()
	r.EstimatorParams = "n_estimators=50; learning_rate = 0.05;"
	m, err := r.Overrides()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"n_estimators": 50, "learning_rate": 0.05}, m)

	r.EstimatorParams = "max_depth"
	_, err = r.Overrides()
	assert.True(t, faults.Is(err, faults.Configuration))

	r.EstimatorParams = "max_depth=deep"
	_, err = r.Overrides()
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestFormatOverrides(t *testing.T) {
	params := map[string]float64{"max_depth": 3, "eta": 0.05}
	s := config.FormatOverrides(params)
	assert.Equal(t, "eta=0.05;max_depth=3", s)

	r := config.Defaults()
	r.EstimatorParams = s
	m, err := r.Overrides()
	require.NoError(t, err)
	assert.Equal(t, params, m)
}

func TestPropertiesRoundTrip(t *testing.T) {
	r, err := config.FromMap(map[string]string{
		"estimator":        "xgboost",
		"estimator_params": "max_depth=4;eta=0.1",
		"feateng":          "distance,geohash",
		"mlflow":           "true",
		"tracking_uri":     "http://localhost:9200",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.properties")
	require.NoError(t, os.WriteFile(path, []byte(r.Properties()), 0644))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("estimator: Ridge\nnrows: 250\nsplit: false\nfeateng: distance,direction\n"), 0644))
	r, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ridge", r.Estimator)
	assert.Equal(t, 250, r.NRows)
	assert.False(t, r.Split)
	assert.Equal(t, "distance,direction", r.Feateng)
	assert.Equal(t, "euclidian", r.DistanceType)
}

func TestLoadRejectsUnknownFormats(t *testing.T) {
	_, err := config.Load("run.toml")
	assert.True(t, faults.Is(err, faults.Configuration))
	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, faults.Is(err, faults.Configuration))
}
