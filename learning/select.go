package learning

import (
	"log"
	"strings"
)

// DefaultEstimator is trained when no estimator is configured.
const DefaultEstimator = "LinearRegression"

// FallbackEstimator is trained when the configured estimator is not known.
const FallbackEstimator = "Lasso"

type estimator struct {
	create func() Regressor
	space  SearchSpace
}

var estimators = map[string]estimator{
	"linearregression": {
		create: func() Regressor { return NewLinearRegression() },
		space:  SearchSpace{},
	},
	"lasso": {
		create: func() Regressor { return NewLasso() },
		space:  SearchSpace{"alpha": {0.01, 0.1, 1, 10}},
	},
	"ridge": {
		create: func() Regressor { return NewRidge() },
		space:  SearchSpace{"alpha": {0.1, 1, 10, 100}},
	},
	"sgdregressor": {
		create: func() Regressor { return NewSGDRegressor() },
		space:  SearchSpace{"alpha": {1e-5, 1e-4, 1e-3}, "eta0": {0.001, 0.01}},
	},
	"gbm": {
		create: func() Regressor { return NewGradientBoosting() },
		space:  SearchSpace{"n_estimators": {50, 100, 200}, "max_depth": {3, 5}, "learning_rate": {0.05, 0.1}},
	},
	"randomforestregressor": {
		create: func() Regressor { return NewRandomForest() },
		space:  SearchSpace{"n_estimators": {50, 100}, "max_depth": {10, 20}, "max_features": {0.5, 1}},
	},
	"xgboost": {
		create: func() Regressor { return NewXGBRegressor() },
		space: SearchSpace{
			"max_depth":        {4, 6, 8},
			"n_estimators":     {100, 200},
			"learning_rate":    {0.05, 0.3},
			"colsample_bytree": {0.7, 1},
		},
	},
}

var aliases = map[string]string{
	"linear":                    "linearregression",
	"sgd":                       "sgdregressor",
	"gradientboostingregressor": "gbm",
	"randomforest":              "randomforestregressor",
	"xgbregressor":              "xgboost",
}

// Estimators lists the canonical estimator names.
func Estimators() []string {
	return []string{"LinearRegression", "Lasso", "Ridge", "SGDRegressor", "GBM", "RandomForestRegressor", "xgboost"}
}

func lookup(name string) (estimator, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[key]; ok {
		key = a
	}
	e, ok := estimators[key]
	return e, ok
}

// Select creates the estimator called name, with params applied, along with its default search space. Names are
// matched case insensitively. An empty name selects the default estimator and an unknown name falls back to lasso.
// An override the estimator does not accept is a configuration error.
func Select(name string, params map[string]float64) (Regressor, SearchSpace, error) {
	if len(strings.TrimSpace(name)) == 0 {
		name = DefaultEstimator
	}
	e, ok := lookup(name)
	if !ok {
		log.Printf("[warning] unknown estimator %q, falling back to %s\n", name, FallbackEstimator)
		e, _ = lookup(FallbackEstimator)
	}
	m := e.create()
	if err := m.SetParams(params); err != nil {
		return nil, nil, err
	}
	space := make(SearchSpace, len(e.space))
	for k, v := range e.space {
		space[k] = append([]float64(nil), v...)
	}
	return m, space, nil
}

// Known reports whether name selects an estimator without falling back.
func Known(name string) bool {
	_, ok := lookup(name)
	return ok
}
