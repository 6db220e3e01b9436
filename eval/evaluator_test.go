package eval_test

import (
	"math"
	"testing"

	"github.com/hscells/taxifare/eval"
	"github.com/stretchr/testify/assert"
)

func TestRMSE(t *testing.T) {
	assert.Equal(t, 0.0, eval.RMSE.Score([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, math.Sqrt(2.5), eval.RMSE.Score([]float64{0, 0}, []float64{1, 2}), 1e-12)
	assert.Equal(t, 0.0, eval.RMSE.Score(nil, nil))
}

func TestMAE(t *testing.T) {
	assert.InDelta(t, 1.5, eval.MAE.Score([]float64{0, 0}, []float64{1, -2}), 1e-12)
}

func TestR2(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1, eval.R2.Score(y, y), 1e-12)
	assert.InDelta(t, 0, eval.R2.Score(y, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.235, eval.Round(1.23456, 3))
	assert.Equal(t, -1.235, eval.Round(-1.23456, 3))
	assert.Equal(t, 2.0, eval.Round(1.9996, 3))
}

func TestEvaluateDefault(t *testing.T) {
	scores := eval.Evaluate(eval.Default, []float64{0, 0, 0}, []float64{1, 1, 2})
	assert.Equal(t, 1.414, scores["rmse"])
	assert.InDelta(t, 4.0/3, scores["mae"], 1e-12)
	assert.Contains(t, scores, "r2")
}
