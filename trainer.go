// Package taxifare trains, evaluates and persists taxi fare models.
//
// A Trainer takes a cleaned batch of trip records through the whole life of a model: it splits the batch, builds a
// pipeline of feature blocks and an estimator from the run configuration, fits and evaluates it, and finally saves
// the fitted pipeline as an artifact. Execute runs all of these steps from loading onwards, reporting its progress
// through a channel.
package taxifare

import (
	"context"
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hscells/taxifare/artifact"
	"github.com/hscells/taxifare/cache"
	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/eval"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/features"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/learning"
	"github.com/hscells/taxifare/pipeline"
	"github.com/hscells/taxifare/tracking"
)

// ValidationSize is the fraction of a batch held out for validation when the configuration asks for a split.
const ValidationSize = 0.15

// State is how far a trainer has progressed.
type State uint8

const (
	Constructed State = iota
	Split
	PipelineBuilt
	Fitted
	Evaluated
	Saved
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Split:
		return "split"
	case PipelineBuilt:
		return "pipeline built"
	case Fitted:
		return "fitted"
	case Evaluated:
		return "evaluated"
	case Saved:
		return "saved"
	}
	return "unknown"
}

// Evaluation holds the metrics of a fitted pipeline on the training and validation splits. Validation is nil when
// the batch was not split.
type Evaluation struct {
	Train      map[string]float64
	Validation map[string]float64
}

// RMSE is the validation RMSE, or the training RMSE when there is no validation split.
func (e Evaluation) RMSE() float64 {
	if e.Validation != nil {
		return e.Validation["rmse"]
	}
	return e.Train["rmse"]
}

// Trainer trains a single pipeline on a batch of trip records.
type Trainer struct {
	Config     config.Run
	Evaluators []eval.Evaluator

	XTrain, XVal *frame.Frame
	YTrain, YVal []float64

	pipeline     *pipeline.Pipeline
	session      *tracking.Session
	uploader     artifact.Uploader
	memory       cache.FeatureCache
	hasMemory    bool
	rnd          *rand.Rand
	state        State
	runID        string
	trainingTime time.Duration
}

// Tracking sends the parameters and metrics of a run to a tracker.
func Tracking(t tracking.Tracker) func() interface{} {
	return func() interface{} {
		return t
	}
}

// Upload pushes saved artifacts with an uploader.
func Upload(u artifact.Uploader) func() interface{} {
	return func() interface{} {
		return u
	}
}

// Memory caches the features derived by the pipeline.
func Memory(m cache.FeatureCache) func() interface{} {
	return func() interface{} {
		return m
	}
}

// Random splits the batch with a specific source of randomness.
func Random(r *rand.Rand) func() interface{} {
	return func() interface{} {
		return r
	}
}

// Evaluators replaces the metrics a trainer computes.
func Evaluators(e ...eval.Evaluator) func() interface{} {
	return func() interface{} {
		return e
	}
}

// NewTrainer creates a trainer for the labelled batch X, y. Collaborators the configuration asks for but which are
// not given as components are created from the configuration.
func NewTrainer(X *frame.Frame, y []float64, cfg config.Run, components ...func() interface{}) (*Trainer, error) {
	if X.Len() != len(y) {
		return nil, faults.Newf(faults.DataFormat, "trainer", "", "%d rows but %d targets", X.Len(), len(y))
	}
	if X.Len() == 0 {
		return nil, faults.Newf(faults.DataFormat, "trainer", "", "no rows to train on")
	}

	t := &Trainer{
		Config:     cfg,
		Evaluators: eval.Default,
		state:      Constructed,
	}

	var tracker tracking.Tracker
	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case *rand.Rand:
			t.rnd = v
		case cache.FeatureCache:
			t.memory = v
			t.hasMemory = true
		case []eval.Evaluator:
			t.Evaluators = v
		case tracking.Tracker:
			tracker = v
		case artifact.Uploader:
			t.uploader = v
		default:
			log.Printf("[warning] ignoring trainer component of type %T\n", v)
		}
	}

	if t.rnd == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		t.rnd = rand.New(rand.NewSource(seed))
	}

	if !t.hasMemory {
		m, ok, err := cache.Open(cfg.PipelineMemory)
		if err != nil {
			return nil, err
		}
		t.memory, t.hasMemory = m, ok
	}

	if cfg.MLFlow {
		if tracker == nil {
			var err error
			tracker, err = tracking.Open(cfg.TrackingBackend, cfg.TrackingURI, cfg.ExperimentName)
			if faults.Is(err, faults.Configuration) {
				return nil, err
			} else if err != nil {
				log.Printf("[warning] %v, tracking to the log instead\n", faults.New(faults.Tracking, "tracking", cfg.TrackingBackend, err))
				tracker = tracking.NewLog()
			}
		}
		t.session = tracking.NewSession(tracker, cfg.ExperimentName)
	}

	if cfg.ModelUpload && t.uploader == nil {
		t.uploader = artifact.NewHTTPUploader(cfg.UploadURL)
	}

	if err := t.split(X, y); err != nil {
		return nil, err
	}
	return t, nil
}

// split holds out a random ValidationSize of the batch when the configuration asks for it.
func (t *Trainer) split(X *frame.Frame, y []float64) error {
	if !t.Config.Split {
		t.XTrain, t.YTrain = X, y
		t.state = Split
		return nil
	}

	n := X.Len()
	nVal := int(math.Ceil(ValidationSize * float64(n)))
	if nVal >= n {
		return faults.Newf(faults.DataFormat, "trainer", "split", "%d rows are too few to split", n)
	}
	perm := t.rnd.Perm(n)
	train, val := perm[nVal:], perm[:nVal]
	sort.Ints(train)
	sort.Ints(val)

	t.XTrain, t.YTrain = X.Take(train), take(y, train)
	t.XVal, t.YVal = X.Take(val), take(y, val)
	t.state = Split
	return nil
}

func take(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// SetPipeline builds the feature composer and the estimator the configuration names.
func (t *Trainer) SetPipeline() error {
	opts := features.DefaultOptions()
	opts.DistanceType = t.Config.DistanceType
	if len(t.Config.TimeZone) > 0 {
		opts.TimeZone = t.Config.TimeZone
	}
	if t.Config.GeohashPrecision > 0 {
		opts.GeohashPrecision = uint(t.Config.GeohashPrecision)
	}

	composer, err := features.New(features.Parse(t.Config.Feateng), opts)
	if err != nil {
		return err
	}
	if t.hasMemory {
		composer.SetMemory(t.memory)
	}

	overrides, err := t.Config.Overrides()
	if err != nil {
		return err
	}
	estimator, _, err := learning.Select(t.Config.Estimator, overrides)
	if err != nil {
		return err
	}
	// random_state holds 31 bits, so larger and negative seeds are folded into that range.
	if _, seeded := overrides["random_state"]; !seeded && t.Config.Seed != 0 {
		if _, ok := estimator.Params()["random_state"]; ok {
			if err := estimator.SetParams(map[string]float64{"random_state": float64(t.Config.Seed & math.MaxInt32)}); err != nil {
				return err
			}
		}
	}
	if v, ok := estimator.(learning.Verbose); ok {
		v.SetVerbose(t.Config.Verbose)
	}

	t.pipeline = pipeline.New(composer, estimator)
	t.state = PipelineBuilt
	return nil
}

// Train fits the pipeline on the training split, building it first if SetPipeline has not been called.
func (t *Trainer) Train() error {
	if t.pipeline == nil {
		if err := t.SetPipeline(); err != nil {
			return err
		}
	}

	if t.session != nil {
		params := t.Config.Params()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		estimator := t.pipeline.Estimator.Params()
		splits := 1
		if t.XVal != nil {
			splits = 2
		}
		t.warn(t.session.Plan(len(keys) + len(estimator) + 1 + splits*len(t.Evaluators)))
		for _, k := range keys {
			t.warn(t.session.Param(k, params[k]))
		}
		for k, v := range estimator {
			t.warn(t.session.Param(t.pipeline.Estimator.Name()+"."+k, formatFloat(v)))
		}
	}

	start := time.Now()
	if err := t.pipeline.Fit(t.XTrain, t.YTrain); err != nil {
		return err
	}
	t.trainingTime = time.Since(start)
	t.metric("training_time", t.trainingTime.Seconds())
	if t.Config.Verbose {
		log.Printf("trained %s on %d rows in %v\n", t.pipeline.Estimator.Name(), t.XTrain.Len(), t.trainingTime)
	}
	t.state = Fitted
	return nil
}

// Evaluate computes every metric on the training split and, when there is one, the validation split.
func (t *Trainer) Evaluate() (Evaluation, error) {
	if t.pipeline == nil || !t.pipeline.Fitted {
		return Evaluation{}, faults.NotFitted("trainer")
	}

	score := func(X *frame.Frame, y []float64, split string) (map[string]float64, error) {
		pred, err := t.pipeline.Predict(X)
		if err != nil {
			return nil, err
		}
		m := eval.Evaluate(t.Evaluators, y, pred)
		for k, v := range m {
			t.metric(k+"_"+split, v)
		}
		return m, nil
	}

	var e Evaluation
	var err error
	if e.Train, err = score(t.XTrain, t.YTrain, "train"); err != nil {
		return Evaluation{}, err
	}
	if t.XVal != nil {
		if e.Validation, err = score(t.XVal, t.YVal, "val"); err != nil {
			return Evaluation{}, err
		}
	}
	if t.state < Evaluated {
		t.state = Evaluated
	}
	return e, nil
}

// Save writes the fitted pipeline to its artifact path and uploads it when the configuration asks for it. A failed
// upload is logged and does not fail the save. The path the artifact was written to is returned.
func (t *Trainer) Save(ctx context.Context) (string, error) {
	if t.pipeline == nil || !t.pipeline.Fitted {
		return "", faults.NotFitted("trainer")
	}

	path := artifact.Path(t.Config.ArtifactDir, t.Config.FinalModel, t.pipeline.Estimator.Name(), t.Config.DistanceType, t.RunID())
	if err := artifact.Save(path, t.pipeline); err != nil {
		return "", err
	}
	log.Printf("saved model to %s\n", path)

	if t.Config.ModelUpload && t.uploader != nil {
		name, err := filepath.Rel(t.Config.ArtifactDir, path)
		if err != nil {
			name = filepath.Base(path)
		}
		if err := t.uploader.Upload(ctx, path, filepath.ToSlash(name)); err != nil {
			if !faults.Is(err, faults.Upload) {
				err = faults.New(faults.Upload, "trainer", name, err)
			}
			log.Printf("[warning] %v\n", err)
		} else {
			log.Printf("uploaded model as %s\n", name)
		}
	}

	t.state = Saved
	return path, nil
}

// Predict fares for X with the fitted pipeline.
func (t *Trainer) Predict(X *frame.Frame) ([]float64, error) {
	if t.pipeline == nil {
		return nil, faults.NotFitted("trainer")
	}
	return t.pipeline.Predict(X)
}

// Pipeline is the pipeline being trained, nil before it is built.
func (t *Trainer) Pipeline() *pipeline.Pipeline {
	return t.pipeline
}

// RunID identifies the run. With tracking enabled it is the id given by the tracker; otherwise, or if the tracker
// fails, it is a random uuid. It is stable for the life of the trainer.
func (t *Trainer) RunID() string {
	if len(t.runID) > 0 {
		return t.runID
	}
	if t.session != nil && !t.session.Disabled() {
		id, err := t.session.RunID()
		if err == nil {
			t.runID = id
			return id
		}
		t.warn(err)
	}
	t.runID = uuid.New().String()
	return t.runID
}

// State reports how far the trainer has progressed.
func (t *Trainer) State() State {
	return t.state
}

// TrainingTime is how long the last call to Train took to fit.
func (t *Trainer) TrainingTime() time.Duration {
	return t.trainingTime
}

func (t *Trainer) metric(key string, value float64) {
	if t.session != nil {
		t.warn(t.session.Metric(key, value))
	}
}

func (t *Trainer) warn(err error) {
	if err != nil {
		log.Printf("[warning] %v\n", err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
