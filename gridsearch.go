package taxifare

import (
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/learning"
	"github.com/hscells/taxifare/output"
)

// Trial is one point of a grid search.
type Trial struct {
	Params     map[string]float64
	Evaluation Evaluation
	Error      error
}

// Score is the RMSE the trial is ranked by. A failed trial scores +Inf.
func (t Trial) Score() float64 {
	if t.Error != nil {
		return math.Inf(1)
	}
	return t.Evaluation.RMSE()
}

// Grid enumerates the cartesian product of a search space. Keys are taken in sorted order and the last key varies
// fastest, so the order of the points only depends on the space.
func Grid(space learning.SearchSpace) []map[string]float64 {
	keys := space.Keys()
	points := []map[string]float64{{}}
	for _, k := range keys {
		var next []map[string]float64
		for _, p := range points {
			for _, v := range space[k] {
				q := make(map[string]float64, len(p)+1)
				for pk, pv := range p {
					q[pk] = pv
				}
				q[k] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// GridSearch trains an independent pipeline for every point of space, at most limit of them when limit is
// positive, and returns the trials from best to worst. Every trial sees the same split of the batch. Hyperparameters
// of the configuration which the space does not mention are kept.
func GridSearch(X *frame.Frame, y []float64, cfg config.Run, space learning.SearchSpace, limit int, components ...func() interface{}) ([]Trial, error) {
	base, err := cfg.Overrides()
	if err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	// A shared source of randomness would give every trial a different split.
	var shared []func() interface{}
	for _, c := range components {
		if _, ok := c().(*rand.Rand); !ok {
			shared = append(shared, c)
		}
	}

	points := Grid(space)
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}

	trials := make([]Trial, len(points))
	for i, point := range points {
		params := make(map[string]float64, len(base)+len(point))
		for k, v := range base {
			params[k] = v
		}
		for k, v := range point {
			params[k] = v
		}
		trial := cfg
		trial.EstimatorParams = config.FormatOverrides(params)
		trials[i] = Trial{Params: point}

		t, err := NewTrainer(X, y, trial, shared...)
		if err != nil {
			return nil, err
		}
		if err := t.Train(); err != nil {
			log.Printf("[warning] trial %d/%d %v failed: %v\n", i+1, len(points), point, err)
			trials[i].Error = err
			continue
		}
		trials[i].Evaluation, trials[i].Error = t.Evaluate()
		if cfg.Verbose {
			log.Printf("trial %d/%d %v rmse %v\n", i+1, len(points), point, trials[i].Score())
		}
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Score() < trials[j].Score()
	})
	return trials, nil
}

// TrialTable lays out ranked trials as a table with one column per key of the search space followed by the score.
func TrialTable(trials []Trial, space learning.SearchSpace) output.Table {
	keys := space.Keys()
	table := output.Table{Headers: append(append([]string(nil), keys...), "rmse")}
	for _, trial := range trials {
		values := make([]float64, 0, len(table.Headers))
		for _, k := range keys {
			values = append(values, trial.Params[k])
		}
		table.Add(config.FormatOverrides(trial.Params), append(values, trial.Score())...)
	}
	return table
}
