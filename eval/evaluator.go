// Package eval scores fare predictions against observed fares.
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Evaluator is an interface for scoring predictions against the true values.
type Evaluator interface {
	Score(yTrue, yPred []float64) float64
	Name() string
}

type rmse struct{}

// RMSE is the root mean squared error.
var RMSE = rmse{}

func (rmse) Name() string { return "rmse" }

func (rmse) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yTrue, yPred, 2) / math.Sqrt(float64(len(yTrue)))
}

type mae struct{}

// MAE is the mean absolute error.
var MAE = mae{}

func (mae) Name() string { return "mae" }

func (mae) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

type r2 struct{}

// R2 is the coefficient of determination.
var R2 = r2{}

func (r2) Name() string { return "r2" }

func (r2) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// Rounded evaluates using an evaluator in the same manner, rounding the score to a number of decimal places.
type Rounded struct {
	Evaluator
	Places int
}

func (r Rounded) Score(yTrue, yPred []float64) float64 {
	return Round(r.Evaluator.Score(yTrue, yPred), r.Places)
}

func (r Rounded) Name() string {
	return r.Evaluator.Name()
}

// String describes the evaluator and its precision.
func (r Rounded) String() string {
	return fmt.Sprintf("%s (%d places)", r.Evaluator.Name(), r.Places)
}

// Round x half away from zero to a number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Default is the set of evaluators a trained model is scored with. RMSE is the headline metric.
var Default = []Evaluator{Rounded{Evaluator: RMSE, Places: 3}, MAE, R2}

// Evaluate scores predictions using supplied evaluation measurements.
func Evaluate(evaluators []Evaluator, yTrue, yPred []float64) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	for _, evaluator := range evaluators {
		scores[evaluator.Name()] = evaluator.Score(yTrue, yPred)
	}
	return scores
}
