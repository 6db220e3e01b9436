package tracking

import (
	"log"
	"strings"

	"github.com/pkg/errors"
)

// Multi writes every run to each of its trackers. A run id of a Multi joins the ids given by each tracker. A
// tracker which cannot create the run is left out of it; creating the run only fails when every tracker fails.
type Multi []Tracker

const idSeparator = "+"

func (m Multi) CreateRun(experiment string) (string, error) {
	ids := make([]string, len(m))
	var errs []string
	for i, t := range m {
		id, err := t.CreateRun(experiment)
		if err != nil {
			errs = append(errs, err.Error())
			id = ""
		}
		ids[i] = id
	}
	if len(errs) > 0 && len(errs) == len(m) {
		return "", joined(errs)
	}
	if len(errs) > 0 {
		log.Printf("[warning] tracking without some backends: %v\n", joined(errs))
	}
	return strings.Join(ids, idSeparator), nil
}

func (m Multi) split(runID string) []string {
	ids := strings.Split(runID, idSeparator)
	for len(ids) < len(m) {
		ids = append(ids, runID)
	}
	return ids
}

func (m Multi) LogParam(runID, key, value string) error {
	var errs []string
	for i, id := range m.split(runID) {
		if i >= len(m) {
			break
		}
		if len(id) == 0 {
			continue
		}
		if err := m[i].LogParam(id, key, value); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return joined(errs)
}

func (m Multi) LogMetric(runID, key string, value float64) error {
	var errs []string
	for i, id := range m.split(runID) {
		if i >= len(m) {
			break
		}
		if len(id) == 0 {
			continue
		}
		if err := m[i].LogMetric(id, key, value); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return joined(errs)
}

func (m Multi) Plan(runID string, n int) {
	for i, id := range m.split(runID) {
		if i >= len(m) {
			break
		}
		if p, ok := m[i].(Planner); ok && len(id) > 0 {
			p.Plan(id, n)
		}
	}
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}
