// Package learning implements the regression estimators a fare model can be trained with, and the selector which
// maps a configured estimator name to one of them.
package learning

import (
	"math"
	"sort"

	"github.com/hscells/taxifare/faults"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/cheggaaa/pb.v1"
)

// Regressor is a model mapping a row of features to a fare.
type Regressor interface {
	// Name is the canonical name of the estimator.
	Name() string
	// Fit learns the parameters of the model.
	Fit(X mat.Matrix, y []float64) error
	// Predict a value for each row of X.
	Predict(X mat.Matrix) ([]float64, error)
	// SetParams overrides hyperparameters by name.
	SetParams(params map[string]float64) error
	// Params reports the current hyperparameters.
	Params() map[string]float64
}

// Verbose is implemented by estimators which can report their progress.
type Verbose interface {
	SetVerbose(verbose bool)
}

// SearchSpace lists candidate values for hyperparameters.
type SearchSpace map[string][]float64

// Keys of the search space in sorted order.
func (s SearchSpace) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var errUnknownParam = errors.New("unknown hyperparameter")

// setParams applies every override through set, turning failures into configuration errors naming the parameter.
func setParams(estimator string, params map[string]float64, set func(key string, v float64) error) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := set(k, params[k]); err != nil {
			return faults.New(faults.Configuration, estimator, k, err)
		}
	}
	return nil
}

func positive(v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return errors.Errorf("%v must be positive", v)
	}
	return nil
}

func nonNegative(v float64) error {
	if !(v >= 0) || math.IsInf(v, 1) {
		return errors.Errorf("%v must not be negative", v)
	}
	return nil
}

func fraction(v float64) error {
	if !(v > 0 && v <= 1) {
		return errors.Errorf("%v must be in (0, 1]", v)
	}
	return nil
}

func integer(v float64, min int) (int, error) {
	if v != math.Trunc(v) || v < float64(min) || v > math.MaxInt32 {
		return 0, errors.Errorf("%v must be an integer of at least %d", v, min)
	}
	return int(v), nil
}

// setInteger stores v in dst when it is an integer of at least min. A rejected value leaves dst unchanged.
func setInteger(dst *int, v float64, min int) error {
	n, err := integer(v, min)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setSeed(dst *int64, v float64) error {
	n, err := integer(v, 0)
	if err != nil {
		return err
	}
	*dst = int64(n)
	return nil
}

// dense returns X as a *mat.Dense, copying only when it has to.
func dense(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(X)
}

// checkFit validates the training data shared by every estimator.
func checkFit(estimator string, X mat.Matrix, y []float64) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, faults.Newf(faults.DataFormat, estimator, "", "empty training matrix")
	}
	if r != len(y) {
		return 0, 0, faults.Newf(faults.DataFormat, estimator, "", "%d rows but %d targets", r, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, faults.Newf(faults.DataFormat, estimator, "", "target %d is %v", i, v)
		}
	}
	return r, c, nil
}

// checkPredict validates a matrix to predict on against the number of features seen in Fit.
func checkPredict(estimator string, fitted bool, X mat.Matrix, features int) (int, error) {
	if !fitted {
		return 0, faults.NotFitted(estimator)
	}
	r, c := X.Dims()
	if c != features {
		return 0, faults.Newf(faults.DataFormat, estimator, "", "model has %d features, matrix has %d", features, c)
	}
	return r, nil
}

// linear predicts X·coef + intercept.
func linear(X mat.Matrix, coef []float64, intercept float64) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	if r == 0 {
		return out
	}
	v := mat.NewVecDense(len(coef), coef)
	p := mat.NewVecDense(r, out)
	p.MulVec(X, v)
	for i := range out {
		out[i] += intercept
	}
	return out
}

// center subtracts the column means of X and the mean of y, returning the centred copies and the means.
func center(X mat.Matrix, y []float64) (*mat.Dense, []float64, []float64, float64) {
	r, c := X.Dims()
	xc := mat.DenseCopyOf(X)
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			means[j] += xc.At(i, j)
		}
		means[j] /= float64(r)
		for i := 0; i < r; i++ {
			xc.Set(i, j, xc.At(i, j)-means[j])
		}
	}
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(r)
	yc := make([]float64, r)
	for i, v := range y {
		yc[i] = v - yMean
	}
	return xc, yc, means, yMean
}

// intercept recovers the intercept of a model fitted on centred data.
func intercept(coef, means []float64, yMean float64) float64 {
	b := yMean
	for j, w := range coef {
		b -= w * means[j]
	}
	return b
}

// ticker advances a progress bar, if there is one.
type ticker struct {
	bar *pb.ProgressBar
}

// progress starts a progress bar of total steps when verbose.
func progress(total int, verbose bool) ticker {
	if !verbose {
		return ticker{}
	}
	return ticker{bar: pb.StartNew(total)}
}

func (t ticker) Increment() {
	if t.bar != nil {
		t.bar.Increment()
	}
}

func (t ticker) Finish() {
	if t.bar != nil {
		t.bar.Finish()
	}
}
