package learning

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// GradientBoosting fits an additive model of shallow least squares regression trees, each fitted to the residuals
// of the model so far and shrunk by LearningRate.
type GradientBoosting struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Subsample       float64
	RandomState     int64
	Init            float64
	Trees           []*Node
	Features        int
	Fitted          bool
	verbose         bool
}

// NewGradientBoosting creates an unfitted gradient boosting model.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1,
	}
}

func (m *GradientBoosting) Name() string { return "GBM" }

func (m *GradientBoosting) SetVerbose(verbose bool) { m.verbose = verbose }

func (m *GradientBoosting) Params() map[string]float64 {
	return map[string]float64{
		"n_estimators":      float64(m.NEstimators),
		"learning_rate":     m.LearningRate,
		"max_depth":         float64(m.MaxDepth),
		"min_samples_split": float64(m.MinSamplesSplit),
		"min_samples_leaf":  float64(m.MinSamplesLeaf),
		"subsample":         m.Subsample,
		"random_state":      float64(m.RandomState),
	}
}

func (m *GradientBoosting) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) (err error) {
		switch key {
		case "n_estimators":
			err = setInteger(&m.NEstimators, v, 1)
		case "learning_rate":
			if err = positive(v); err == nil {
				m.LearningRate = v
			}
		case "max_depth":
			err = setInteger(&m.MaxDepth, v, 1)
		case "min_samples_split":
			err = setInteger(&m.MinSamplesSplit, v, 2)
		case "min_samples_leaf":
			err = setInteger(&m.MinSamplesLeaf, v, 1)
		case "subsample":
			if err = fraction(v); err == nil {
				m.Subsample = v
			}
		case "random_state":
			err = setSeed(&m.RandomState, v)
		default:
			err = errUnknownParam
		}
		return
	})
}

func (m *GradientBoosting) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	x := dense(X)
	rnd := rand.New(rand.NewSource(m.RandomState))

	m.Init = 0
	for _, v := range y {
		m.Init += v
	}
	m.Init /= float64(r)

	pred := make([]float64, r)
	for i := range pred {
		pred[i] = m.Init
	}
	g, h := make([]float64, r), make([]float64, r)
	for i := range h {
		h[i] = 1
	}

	m.Trees = make([]*Node, 0, m.NEstimators)
	bar := progress(m.NEstimators, m.verbose)
	for k := 0; k < m.NEstimators; k++ {
		for i := range g {
			g[i] = pred[i] - y[i]
		}
		tree := growTree(x, g, h, sampleRows(r, m.Subsample, rnd), treeOptions{
			MaxDepth:        m.MaxDepth,
			MinSamplesSplit: m.MinSamplesSplit,
			MinSamplesLeaf:  m.MinSamplesLeaf,
		}, rnd)
		for i := range pred {
			pred[i] += m.LearningRate * tree.Eval(x.RawRowView(i))
		}
		m.Trees = append(m.Trees, tree)
		bar.Increment()
	}
	bar.Finish()

	m.Features = c
	m.Fitted = true
	return nil
}

func (m *GradientBoosting) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, m.Features); err != nil {
		return nil, err
	}
	return evalTrees(dense(X), m.Trees, m.Init, m.LearningRate), nil
}

// XGBRegressor is gradient boosting on second order statistics, regularised by the L2 penalty Lambda on leaf values,
// the minimum split gain Gamma and the minimum hessian weight per child MinChildWeight. Rows and features can be
// subsampled per tree.
type XGBRegressor struct {
	NEstimators     int
	Eta             float64
	MaxDepth        int
	Lambda          float64
	Gamma           float64
	MinChildWeight  float64
	Subsample       float64
	ColsampleByTree float64
	RandomState     int64
	BaseScore       float64
	Trees           []*Node
	Features        int
	Fitted          bool
	verbose         bool
}

// NewXGBRegressor creates an unfitted XGBRegressor.
func NewXGBRegressor() *XGBRegressor {
	return &XGBRegressor{
		NEstimators:     100,
		Eta:             0.3,
		MaxDepth:        6,
		Lambda:          1,
		MinChildWeight:  1,
		Subsample:       1,
		ColsampleByTree: 1,
	}
}

func (m *XGBRegressor) Name() string { return "xgboost" }

func (m *XGBRegressor) SetVerbose(verbose bool) { m.verbose = verbose }

func (m *XGBRegressor) Params() map[string]float64 {
	return map[string]float64{
		"n_estimators":     float64(m.NEstimators),
		"learning_rate":    m.Eta,
		"max_depth":        float64(m.MaxDepth),
		"reg_lambda":       m.Lambda,
		"gamma":            m.Gamma,
		"min_child_weight": m.MinChildWeight,
		"subsample":        m.Subsample,
		"colsample_bytree": m.ColsampleByTree,
		"random_state":     float64(m.RandomState),
	}
}

func (m *XGBRegressor) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) (err error) {
		switch key {
		case "n_estimators":
			err = setInteger(&m.NEstimators, v, 1)
		case "learning_rate", "eta":
			if err = positive(v); err == nil {
				m.Eta = v
			}
		case "max_depth":
			err = setInteger(&m.MaxDepth, v, 1)
		case "reg_lambda", "lambda":
			if err = nonNegative(v); err == nil {
				m.Lambda = v
			}
		case "gamma":
			if err = nonNegative(v); err == nil {
				m.Gamma = v
			}
		case "min_child_weight":
			if err = nonNegative(v); err == nil {
				m.MinChildWeight = v
			}
		case "subsample":
			if err = fraction(v); err == nil {
				m.Subsample = v
			}
		case "colsample_bytree":
			if err = fraction(v); err == nil {
				m.ColsampleByTree = v
			}
		case "random_state":
			err = setSeed(&m.RandomState, v)
		default:
			err = errUnknownParam
		}
		return
	})
}

func (m *XGBRegressor) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	x := dense(X)
	rnd := rand.New(rand.NewSource(m.RandomState))

	m.BaseScore = 0
	for _, v := range y {
		m.BaseScore += v
	}
	m.BaseScore /= float64(r)

	pred := make([]float64, r)
	for i := range pred {
		pred[i] = m.BaseScore
	}
	g, h := make([]float64, r), make([]float64, r)
	for i := range h {
		h[i] = 1
	}

	m.Trees = make([]*Node, 0, m.NEstimators)
	bar := progress(m.NEstimators, m.verbose)
	for k := 0; k < m.NEstimators; k++ {
		for i := range g {
			g[i] = pred[i] - y[i]
		}
		tree := growTree(x, g, h, sampleRows(r, m.Subsample, rnd), treeOptions{
			MaxDepth:       m.MaxDepth,
			MinChildWeight: m.MinChildWeight,
			Lambda:         m.Lambda,
			Gamma:          m.Gamma,
			Features:       sampleFeatures(c, m.ColsampleByTree, rnd),
		}, rnd)
		for i := range pred {
			pred[i] += m.Eta * tree.Eval(x.RawRowView(i))
		}
		m.Trees = append(m.Trees, tree)
		bar.Increment()
	}
	bar.Finish()

	m.Features = c
	m.Fitted = true
	return nil
}

func (m *XGBRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, m.Features); err != nil {
		return nil, err
	}
	return evalTrees(dense(X), m.Trees, m.BaseScore, m.Eta), nil
}
