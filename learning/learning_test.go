package learning_test

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"testing"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/learning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// toy draws y = 3 + 2·x0 - x1 with a little noise.
func toy(n int, seed int64) (*mat.Dense, []float64) {
	r := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := r.Float64(), r.Float64()
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y[i] = 3 + 2*a - b + r.NormFloat64()*0.01
	}
	return X, y
}

func rmse(y, p []float64) float64 {
	s := 0.0
	for i := range y {
		s += (y[i] - p[i]) * (y[i] - p[i])
	}
	return math.Sqrt(s / float64(len(y)))
}

func baseline(y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	p := make([]float64, len(y))
	for i := range p {
		p[i] = mean
	}
	return rmse(y, p)
}

func TestEveryEstimatorBeatsTheMean(t *testing.T) {
	X, y := toy(300, 1)
	Xt, yt := toy(100, 2)
	overrides := map[string]map[string]float64{
		"Lasso":                 {"alpha": 0.001},
		"SGDRegressor":          {"tol": 1e-6, "random_state": 4},
		"GBM":                   {"n_estimators": 50},
		"RandomForestRegressor": {"n_estimators": 20, "random_state": 1},
		"xgboost":               {"n_estimators": 30},
	}
	for _, name := range learning.Estimators() {
		m, _, err := learning.Select(name, overrides[name])
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())

		_, err = m.Predict(Xt)
		assert.True(t, faults.Is(err, faults.PipelineNotFitted), name)

		require.NoError(t, m.Fit(X, y), name)
		p, err := m.Predict(Xt)
		require.NoError(t, err, name)
		require.Len(t, p, len(yt))
		assert.Less(t, rmse(yt, p), baseline(yt)/2, name)
	}
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X, y := toy(200, 3)
	m := learning.NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, 2, m.Coef[0], 0.01)
	assert.InDelta(t, -1, m.Coef[1], 0.01)
	assert.InDelta(t, 3, m.Intercept, 0.01)
}

func TestLinearRegressionCollinearFeatures(t *testing.T) {
	// The second column duplicates the first, as one-hot blocks can.
	X := mat.NewDense(4, 2, []float64{0, 0, 1, 1, 2, 2, 3, 3})
	y := []float64{1, 3, 5, 7}
	m := learning.NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, m.Coef[0], m.Coef[1], 1e-9)
	p, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, p, 1e-9)
}

func TestRidgeShrinks(t *testing.T) {
	X, y := toy(200, 5)
	ols := learning.NewLinearRegression()
	require.NoError(t, ols.Fit(X, y))

	zero := learning.NewRidge()
	require.NoError(t, zero.SetParams(map[string]float64{"alpha": 0}))
	require.NoError(t, zero.Fit(X, y))
	assert.InDeltaSlice(t, ols.Coef, zero.Coef, 1e-6)

	heavy := learning.NewRidge()
	require.NoError(t, heavy.SetParams(map[string]float64{"alpha": 1000}))
	require.NoError(t, heavy.Fit(X, y))
	assert.Less(t, math.Abs(heavy.Coef[0]), math.Abs(ols.Coef[0]))
}

func TestLassoZeroesCoefficients(t *testing.T) {
	X, y := toy(200, 6)
	m := learning.NewLasso()
	require.NoError(t, m.Fit(X, y))
	assert.Equal(t, []float64{0, 0}, m.Coef)
	p, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, baseline(y), rmse(y, p), 1e-9)
}

func TestRandomForestIsReproducible(t *testing.T) {
	X, y := toy(100, 7)
	fit := func() []float64 {
		m := learning.NewRandomForest()
		require.NoError(t, m.SetParams(map[string]float64{"n_estimators": 10, "random_state": 42, "max_features": 0.5}))
		require.NoError(t, m.Fit(X, y))
		p, err := m.Predict(X)
		require.NoError(t, err)
		return p
	}
	assert.Equal(t, fit(), fit())
}

func TestTreeDepthIsBounded(t *testing.T) {
	X, y := toy(200, 8)
	m := learning.NewGradientBoosting()
	require.NoError(t, m.SetParams(map[string]float64{"n_estimators": 5, "max_depth": 2}))
	require.NoError(t, m.Fit(X, y))
	for _, tree := range m.Trees {
		assert.LessOrEqual(t, tree.Depth(), 2)
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	X, y := toy(50, 9)
	m := learning.NewRidge()
	require.NoError(t, m.Fit(X, y))
	_, err := m.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, faults.Is(err, faults.DataFormat))
}

func TestFitRejectsBadTargets(t *testing.T) {
	X, y := toy(10, 10)
	y[3] = math.NaN()
	assert.True(t, faults.Is(learning.NewLinearRegression().Fit(X, y), faults.DataFormat))
	assert.True(t, faults.Is(learning.NewLinearRegression().Fit(X, y[:5]), faults.DataFormat))
}

func TestSelect(t *testing.T) {
	for name, want := range map[string]string{
		"":                          "LinearRegression",
		"linear":                    "LinearRegression",
		"RIDGE":                     "Ridge",
		"sgd":                       "SGDRegressor",
		"GradientBoostingRegressor": "GBM",
		"RandomForest":              "RandomForestRegressor",
		"XGBRegressor":              "xgboost",
		"catboost":                  "Lasso",
	} {
		m, _, err := learning.Select(name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, want, m.Name(), name)
	}
	assert.False(t, learning.Known("catboost"))
	assert.True(t, learning.Known("gbm"))
}

func TestSelectAppliesOverrides(t *testing.T) {
	m, space, err := learning.Select("GBM", map[string]float64{"n_estimators": 7, "learning_rate": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 7.0, m.Params()["n_estimators"])
	assert.Equal(t, 0.5, m.Params()["learning_rate"])
	assert.Contains(t, space.Keys(), "max_depth")

	space["max_depth"][0] = 99
	_, again, _ := learning.Select("GBM", nil)
	assert.NotEqual(t, 99.0, again["max_depth"][0])

	for _, bad := range []map[string]float64{
		{"n_estimators": 0},
		{"n_estimators": 2.5},
		{"learning_rate": -1},
		{"depth": 3},
	} {
		_, _, err := learning.Select("GBM", bad)
		assert.True(t, faults.Is(err, faults.Configuration), "%v", bad)
	}
	_, _, err = learning.Select("LinearRegression", map[string]float64{"alpha": 1})
	assert.True(t, faults.Is(err, faults.Configuration))
}

func TestRejectedOverrideKeepsValue(t *testing.T) {
	for _, name := range learning.Estimators() {
		m, _, err := learning.Select(name, nil)
		require.NoError(t, err)
		for _, key := range []string{"n_estimators", "max_iter", "max_depth", "min_samples_leaf", "random_state", "bootstrap"} {
			before, ok := m.Params()[key]
			if !ok {
				continue
			}
			err := m.SetParams(map[string]float64{key: -3})
			assert.True(t, faults.Is(err, faults.Configuration), "%s %s", name, key)
			assert.Equal(t, before, m.Params()[key], "%s %s", name, key)
		}
	}
}

func TestFittedModelsSurviveGob(t *testing.T) {
	X, y := toy(60, 11)
	m := learning.NewXGBRegressor()
	require.NoError(t, m.SetParams(map[string]float64{"n_estimators": 5}))
	require.NoError(t, m.Fit(X, y))
	want, _ := m.Predict(X)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(m))
	var got learning.XGBRegressor
	require.NoError(t, gob.NewDecoder(&buf).Decode(&got))
	p, err := got.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, p)
}
