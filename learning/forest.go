package learning

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// RandomForest averages least squares regression trees, each grown on a bootstrap sample of the rows and considering
// a fraction MaxFeatures of the features at every split. Trees are grown concurrently; each tree draws from its own
// source seeded with RandomState plus its index, so a forest is reproducible.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     float64
	Bootstrap       bool
	RandomState     int64
	Trees           []*Node
	Features        int
	Fitted          bool
	verbose         bool
}

// NewRandomForest creates an unfitted forest of 100 fully grown trees.
func NewRandomForest() *RandomForest {
	return &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1,
		Bootstrap:       true,
	}
}

func (m *RandomForest) Name() string { return "RandomForestRegressor" }

func (m *RandomForest) SetVerbose(verbose bool) { m.verbose = verbose }

func (m *RandomForest) Params() map[string]float64 {
	bootstrap := 0.0
	if m.Bootstrap {
		bootstrap = 1
	}
	return map[string]float64{
		"n_estimators":      float64(m.NEstimators),
		"max_depth":         float64(m.MaxDepth),
		"min_samples_split": float64(m.MinSamplesSplit),
		"min_samples_leaf":  float64(m.MinSamplesLeaf),
		"max_features":      m.MaxFeatures,
		"bootstrap":         bootstrap,
		"random_state":      float64(m.RandomState),
	}
}

func (m *RandomForest) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) (err error) {
		switch key {
		case "n_estimators":
			err = setInteger(&m.NEstimators, v, 1)
		case "max_depth":
			err = setInteger(&m.MaxDepth, v, 0)
		case "min_samples_split":
			err = setInteger(&m.MinSamplesSplit, v, 2)
		case "min_samples_leaf":
			err = setInteger(&m.MinSamplesLeaf, v, 1)
		case "max_features":
			if err = fraction(v); err == nil {
				m.MaxFeatures = v
			}
		case "bootstrap":
			var b int
			if b, err = integer(v, 0); err == nil && b > 1 {
				err = errUnknownParam
			}
			if err == nil {
				m.Bootstrap = b == 1
			}
		case "random_state":
			err = setSeed(&m.RandomState, v)
		default:
			err = errUnknownParam
		}
		return
	})
}

func (m *RandomForest) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	x := dense(X)

	g, h := make([]float64, r), make([]float64, r)
	for i := range g {
		g[i] = -y[i]
		h[i] = 1
	}
	perSplit := int(math.Max(1, math.Round(m.MaxFeatures*float64(c))))

	m.Trees = make([]*Node, m.NEstimators)
	bar := progress(m.NEstimators, m.verbose)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for k := 0; k < m.NEstimators; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(m.RandomState + int64(k)))
			idx := make([]int, r)
			for i := range idx {
				if m.Bootstrap {
					idx[i] = rnd.Intn(r)
				} else {
					idx[i] = i
				}
			}
			m.Trees[k] = growTree(x, g, h, idx, treeOptions{
				MaxDepth:        m.MaxDepth,
				MinSamplesSplit: m.MinSamplesSplit,
				MinSamplesLeaf:  m.MinSamplesLeaf,
				MaxFeatures:     perSplit,
			}, rnd)
			mu.Lock()
			bar.Increment()
			mu.Unlock()
		}(k)
	}
	wg.Wait()
	bar.Finish()

	m.Features = c
	m.Fitted = true
	return nil
}

func (m *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, m.Features); err != nil {
		return nil, err
	}
	return evalTrees(dense(X), m.Trees, 0, 1/float64(len(m.Trees))), nil
}
