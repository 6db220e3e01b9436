package learning

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// SGDRegressor fits a linear model by stochastic gradient descent on the squared loss with an L2 penalty of Alpha.
// The learning rate decays as Eta0 / t^PowerT. Training stops after MaxIter epochs, or once the epoch loss has
// failed to improve on the best loss by Tol for NoChange consecutive epochs.
type SGDRegressor struct {
	Alpha       float64
	Eta0        float64
	PowerT      float64
	MaxIter     int
	Tol         float64
	NoChange    int
	RandomState int64
	Coef        []float64
	Intercept   float64
	Epochs      int
	Fitted      bool
}

// NewSGDRegressor creates an unfitted SGD model.
func NewSGDRegressor() *SGDRegressor {
	return &SGDRegressor{
		Alpha:    1e-4,
		Eta0:     0.01,
		PowerT:   0.25,
		MaxIter:  1000,
		Tol:      1e-3,
		NoChange: 5,
	}
}

func (m *SGDRegressor) Name() string { return "SGDRegressor" }

func (m *SGDRegressor) Params() map[string]float64 {
	return map[string]float64{
		"alpha":        m.Alpha,
		"eta0":         m.Eta0,
		"power_t":      m.PowerT,
		"max_iter":     float64(m.MaxIter),
		"tol":          m.Tol,
		"random_state": float64(m.RandomState),
	}
}

func (m *SGDRegressor) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) (err error) {
		switch key {
		case "alpha":
			if err = nonNegative(v); err == nil {
				m.Alpha = v
			}
			return
		case "eta0":
			if err = positive(v); err == nil {
				m.Eta0 = v
			}
			return
		case "power_t":
			if err = nonNegative(v); err == nil {
				m.PowerT = v
			}
			return
		case "max_iter":
			err = setInteger(&m.MaxIter, v, 1)
			return
		case "tol":
			if err = nonNegative(v); err == nil {
				m.Tol = v
			}
			return
		case "random_state":
			err = setSeed(&m.RandomState, v)
			return
		}
		return errUnknownParam
	})
}

func (m *SGDRegressor) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	x := dense(X)
	rnd := rand.New(rand.NewSource(m.RandomState))

	w := make([]float64, c)
	b := 0.0
	t := 1.0
	best := math.Inf(1)
	stale := 0
	order := rnd.Perm(r)

	m.Epochs = 0
	for epoch := 0; epoch < m.MaxIter; epoch++ {
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		loss := 0.0
		for _, i := range order {
			row := x.RawRowView(i)
			eta := m.Eta0 / math.Pow(t, m.PowerT)
			pred := b
			for j, v := range row {
				pred += w[j] * v
			}
			g := pred - y[i]
			loss += g * g / 2
			decay := 1 - eta*m.Alpha
			for j, v := range row {
				w[j] = w[j]*decay - eta*g*v
			}
			b -= eta * g
			t++
		}
		m.Epochs++
		loss /= float64(r)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			break
		}
		if loss > best-m.Tol {
			stale++
		} else {
			stale = 0
		}
		best = math.Min(best, loss)
		if stale >= m.NoChange {
			break
		}
	}

	m.Coef = w
	m.Intercept = b
	m.Fitted = true
	return nil
}

func (m *SGDRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, len(m.Coef)); err != nil {
		return nil, err
	}
	return linear(X, m.Coef, m.Intercept), nil
}
