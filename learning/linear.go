package learning

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is ordinary least squares with an intercept. The coefficients are the minimum norm solution, so
// collinear features (as produced by one-hot encoding) are handled.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
	Fitted    bool
}

// NewLinearRegression creates an unfitted ordinary least squares model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Name() string { return "LinearRegression" }

func (m *LinearRegression) Params() map[string]float64 { return map[string]float64{} }

func (m *LinearRegression) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) error {
		return errUnknownParam
	})
}

func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	xc, yc, means, yMean := center(X, y)

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("linear regression: singular value decomposition failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	// Singular values below the rank tolerance are treated as zero.
	tol := 0.0
	if len(s) > 0 {
		tol = s[0] * float64(max(r, c)) * 2.220446049250313e-16
	}
	uty := mat.NewVecDense(len(s), nil)
	uty.MulVec(u.T(), mat.NewVecDense(r, yc))
	for i, sv := range s {
		if sv > tol {
			uty.SetVec(i, uty.AtVec(i)/sv)
		} else {
			uty.SetVec(i, 0)
		}
	}
	coef := mat.NewVecDense(c, nil)
	coef.MulVec(&v, uty)

	m.Coef = coef.RawVector().Data
	m.Intercept = intercept(m.Coef, means, yMean)
	m.Fitted = true
	return nil
}

func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, len(m.Coef)); err != nil {
		return nil, err
	}
	return linear(X, m.Coef, m.Intercept), nil
}

// Ridge is least squares with an L2 penalty of Alpha on the coefficients.
type Ridge struct {
	Alpha     float64
	Coef      []float64
	Intercept float64
	Fitted    bool
}

// NewRidge creates an unfitted ridge model with alpha 1.
func NewRidge() *Ridge {
	return &Ridge{Alpha: 1}
}

func (m *Ridge) Name() string { return "Ridge" }

func (m *Ridge) Params() map[string]float64 {
	return map[string]float64{"alpha": m.Alpha}
}

func (m *Ridge) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) error {
		switch key {
		case "alpha":
			if err := nonNegative(v); err != nil {
				return err
			}
			m.Alpha = v
			return nil
		}
		return errUnknownParam
	})
}

func (m *Ridge) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	xc, yc, means, yMean := center(X, y)

	var xtx mat.SymDense
	xtx.SymOuterK(1, xc.T())
	for j := 0; j < c; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+m.Alpha)
	}
	xty := mat.NewVecDense(c, nil)
	xty.MulVec(xc.T(), mat.NewVecDense(r, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return errors.Errorf("ridge: normal equations are not positive definite with alpha %v", m.Alpha)
	}
	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, xty); err != nil {
		return errors.Wrap(err, "ridge")
	}

	m.Coef = coef.RawVector().Data
	m.Intercept = intercept(m.Coef, means, yMean)
	m.Fitted = true
	return nil
}

func (m *Ridge) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, len(m.Coef)); err != nil {
		return nil, err
	}
	return linear(X, m.Coef, m.Intercept), nil
}

// Lasso is least squares with an L1 penalty, minimising ||y - Xw||²/2n + Alpha·||w||₁ by cyclic coordinate
// descent. It stops after MaxIter sweeps or once no coefficient moves by more than Tol.
type Lasso struct {
	Alpha     float64
	MaxIter   int
	Tol       float64
	Coef      []float64
	Intercept float64
	Fitted    bool
}

// NewLasso creates an unfitted lasso model with alpha 1.
func NewLasso() *Lasso {
	return &Lasso{Alpha: 1, MaxIter: 1000, Tol: 1e-4}
}

func (m *Lasso) Name() string { return "Lasso" }

func (m *Lasso) Params() map[string]float64 {
	return map[string]float64{"alpha": m.Alpha, "max_iter": float64(m.MaxIter), "tol": m.Tol}
}

func (m *Lasso) SetParams(params map[string]float64) error {
	return setParams(m.Name(), params, func(key string, v float64) (err error) {
		switch key {
		case "alpha":
			if err = nonNegative(v); err == nil {
				m.Alpha = v
			}
			return
		case "max_iter":
			err = setInteger(&m.MaxIter, v, 1)
			return
		case "tol":
			if err = positive(v); err == nil {
				m.Tol = v
			}
			return
		}
		return errUnknownParam
	})
}

func (m *Lasso) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit(m.Name(), X, y)
	if err != nil {
		return err
	}
	xc, yc, means, yMean := center(X, y)
	n := float64(r)

	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, xc)
		norms[j] = mat.Dot(mat.NewVecDense(r, col), mat.NewVecDense(r, col)) / n
	}

	w := make([]float64, c)
	residual := append([]float64(nil), yc...)
	for iter := 0; iter < m.MaxIter; iter++ {
		maxDelta, maxW := 0.0, 0.0
		for j := 0; j < c; j++ {
			if norms[j] == 0 {
				continue
			}
			rho := 0.0
			for i := 0; i < r; i++ {
				rho += xc.At(i, j) * (residual[i] + xc.At(i, j)*w[j])
			}
			rho /= n
			next := softThreshold(rho, m.Alpha) / norms[j]
			if delta := next - w[j]; delta != 0 {
				for i := 0; i < r; i++ {
					residual[i] -= xc.At(i, j) * delta
				}
				maxDelta = math.Max(maxDelta, math.Abs(delta))
				w[j] = next
			}
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if maxDelta <= m.Tol*math.Max(maxW, 1) {
			break
		}
	}

	m.Coef = w
	m.Intercept = intercept(m.Coef, means, yMean)
	m.Fitted = true
	return nil
}

func (m *Lasso) Predict(X mat.Matrix) ([]float64, error) {
	if _, err := checkPredict(m.Name(), m.Fitted, X, len(m.Coef)); err != nil {
		return nil, err
	}
	return linear(X, m.Coef, m.Intercept), nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	}
	return 0
}
