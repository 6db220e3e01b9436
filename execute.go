package taxifare

import (
	"context"
	"log"

	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/data"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/pipeline"
)

// Storage locates the raw data a configuration points to.
func Storage(cfg config.Run) data.Storage {
	return data.Storage{
		LocalPath: cfg.LocalPath,
		AWSURL:    cfg.AWSURL,
		GCPBucket: cfg.GCPBucket,
		GCPPath:   cfg.GCPPath,
	}
}

// Prepare loads, optionally optimises, and cleans the batch a configuration points to, then separates the fares
// from the features.
func Prepare(ctx context.Context, cfg config.Run, s data.Storage) (*Batch, error) {
	raw, err := data.Load(ctx, cfg.DataOrigin, cfg.NRows, s)
	if err != nil {
		return nil, err
	}
	if cfg.Optimize {
		raw = data.Optimize(raw)
	}
	clean, err := data.Clean(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("kept %d of %d rows after cleaning\n", clean.Len(), raw.Len())
	X, y, err := data.Labels(clean)
	if err != nil {
		return nil, err
	}
	return &Batch{X: X, Y: y}, nil
}

// Execute runs a training run from loading the data to saving the model. Results are sent on c as they become
// available; the last result is either an Error or Done, after which c is closed.
func Execute(ctx context.Context, cfg config.Run, s data.Storage, c chan pipeline.Result, components ...func() interface{}) {
	defer close(c)

	fail := func(err error) {
		c <- pipeline.Result{
			Error: err,
			Type:  pipeline.Error,
		}
	}

	batch, err := Prepare(ctx, cfg, s)
	if err != nil {
		fail(err)
		return
	}

	t, err := NewTrainer(batch.X, batch.Y, cfg, components...)
	if err != nil {
		fail(err)
		return
	}
	if err := t.SetPipeline(); err != nil {
		fail(err)
		return
	}
	if err := t.Train(); err != nil {
		fail(err)
		return
	}
	c <- pipeline.Result{
		RunID:        t.RunID(),
		Measurements: map[string]float64{"training_time": t.TrainingTime().Seconds()},
		Type:         pipeline.Measurement,
	}

	e, err := t.Evaluate()
	if err != nil {
		fail(err)
		return
	}
	c <- pipeline.Result{
		Split:       "train",
		RunID:       t.RunID(),
		Evaluations: e.Train,
		Type:        pipeline.Evaluation,
	}
	if e.Validation != nil {
		c <- pipeline.Result{
			Split:       "val",
			RunID:       t.RunID(),
			Evaluations: e.Validation,
			Type:        pipeline.Evaluation,
		}
	}

	path, err := t.Save(ctx)
	if err != nil {
		fail(err)
		return
	}
	c <- pipeline.Result{
		RunID: t.RunID(),
		Path:  path,
		Type:  pipeline.Artifact,
	}

	c <- pipeline.Result{
		RunID: t.RunID(),
		Type:  pipeline.Done,
	}
}

// Batch is a cleaned batch of trip records with the fares separated out.
type Batch struct {
	X *frame.Frame
	Y []float64
}
