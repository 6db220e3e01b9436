package tracking

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hscells/headway"
)

// Headway forwards runs to a headway server as progress messages. Each run is reported under its id, and every
// message advances its progress by one step. The total is the number of steps planned for the run, or the current
// step when nothing has been planned.
type Headway struct {
	client *headway.Client
	mu     sync.Mutex
	steps  map[string]float64
	totals map[string]float64
}

// NewHeadway creates a tracker sending to the headway server at url. The experiment name is the secret headway
// identifies the sender by.
func NewHeadway(url, experiment string) *Headway {
	return &Headway{
		client: headway.NewClient(url, fmt.Sprintf("taxifare %s", experiment)),
		steps:  make(map[string]float64),
		totals: make(map[string]float64),
	}
}

// Plan announces that a run will log n more records.
func (h *Headway) Plan(runID string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totals[runID] = h.steps[runID] + float64(n)
}

func (h *Headway) send(runID, message string) error {
	h.mu.Lock()
	h.steps[runID]++
	step, total := h.steps[runID], h.totals[runID]
	h.mu.Unlock()
	if total < step {
		total = step
	}
	return h.client.Send(step, total, runID, message)
}

func (h *Headway) CreateRun(experiment string) (string, error) {
	id := uuid.New().String()
	return id, h.send(id, fmt.Sprintf("started run of %s", experiment))
}

func (h *Headway) LogParam(runID, key, value string) error {
	return h.send(runID, fmt.Sprintf("param %s=%s", key, value))
}

func (h *Headway) LogMetric(runID, key string, value float64) error {
	return h.send(runID, fmt.Sprintf("metric %s=%s", key, formatFloat(value)))
}
