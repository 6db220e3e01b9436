// Package tracking records the parameters and metrics of training runs with an experiment tracking backend.
package tracking

import (
	"strconv"
	"strings"

	"github.com/hscells/taxifare/faults"
)

// Tracker records runs of an experiment.
type Tracker interface {
	// CreateRun starts a run of an experiment and returns its id.
	CreateRun(experiment string) (string, error)
	// LogParam records a parameter of a run.
	LogParam(runID, key, value string) error
	// LogMetric records a metric of a run.
	LogMetric(runID, key string, value float64) error
}

// Backends that Open understands.
const (
	LogBackend           = "log"
	PostgresBackend      = "postgres"
	ElasticsearchBackend = "elasticsearch"
	HeadwayBackend       = "headway"
)

// Open creates the tracker for a backend. Several backends may be given separated by commas, in which case uri is
// split the same way and every backend is written to.
func Open(backend, uri, experiment string) (Tracker, error) {
	backends := strings.Split(backend, ",")
	if len(backends) > 1 {
		uris := strings.Split(uri, ",")
		var m Multi
		for i, b := range backends {
			u := ""
			if i < len(uris) {
				u = uris[i]
			}
			t, err := Open(b, u, experiment)
			if err != nil {
				return nil, err
			}
			m = append(m, t)
		}
		return m, nil
	}

	switch strings.TrimSpace(backend) {
	case LogBackend, "":
		return NewLog(), nil
	case PostgresBackend:
		return OpenPostgres(uri)
	case ElasticsearchBackend:
		return NewElasticsearch(uri, experiment)
	case HeadwayBackend:
		return NewHeadway(uri, experiment), nil
	}
	return nil, faults.Newf(faults.Configuration, "tracking", "tracking_backend", "unknown tracking backend %q", backend)
}

// Planner is implemented by trackers that report the progress of a run against the number of records it will log.
type Planner interface {
	Plan(runID string, n int)
}

// Session is a run which is only created once something is logged to it. Every failure is a tracking error. When
// the run cannot be created the session is disabled: the failure is reported once and nothing more is sent.
type Session struct {
	Tracker    Tracker
	Experiment string
	id         string
	failed     error
}

// NewSession creates a session for an experiment.
func NewSession(t Tracker, experiment string) *Session {
	return &Session{Tracker: t, Experiment: experiment}
}

// RunID creates the run on first use and returns its id. A run that could not be created is not retried.
func (s *Session) RunID() (string, error) {
	if s.failed != nil {
		return "", s.failed
	}
	if len(s.id) > 0 {
		return s.id, nil
	}
	id, err := s.Tracker.CreateRun(s.Experiment)
	if err != nil {
		s.failed = faults.New(faults.Tracking, "tracking", s.Experiment, err)
		return "", s.failed
	}
	s.id = id
	return id, nil
}

// Disabled reports whether the run could not be created.
func (s *Session) Disabled() bool {
	return s.failed != nil
}

// run gives the id of the run. Only the call that fails to create the run sees the error.
func (s *Session) run() (string, bool, error) {
	if s.failed != nil {
		return "", false, nil
	}
	id, err := s.RunID()
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Plan announces how many records the run will log, for trackers that report progress.
func (s *Session) Plan(n int) error {
	p, ok := s.Tracker.(Planner)
	if !ok {
		return nil
	}
	id, ok, err := s.run()
	if ok {
		p.Plan(id, n)
	}
	return err
}

// Param records a parameter of the run.
func (s *Session) Param(key, value string) error {
	id, ok, err := s.run()
	if !ok {
		return err
	}
	if err := s.Tracker.LogParam(id, key, value); err != nil {
		return faults.New(faults.Tracking, "tracking", key, err)
	}
	return nil
}

// Metric records a metric of the run.
func (s *Session) Metric(key string, value float64) error {
	id, ok, err := s.run()
	if !ok {
		return err
	}
	if err := s.Tracker.LogMetric(id, key, value); err != nil {
		return faults.New(faults.Tracking, "tracking", key, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
