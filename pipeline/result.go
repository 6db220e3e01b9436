package pipeline

// ResultType is the type of result being returned through a training channel.
type ResultType uint8

const (
	// Measurement is a value about the run, such as the training time.
	Measurement ResultType = iota
	// Evaluation is the set of metrics on one split of the data.
	Evaluation
	// Artifact is the path a fitted pipeline was saved to.
	Artifact
	// Error indicates an error was raised.
	Error
	// Done indicates the run has completed.
	Done
)

func (t ResultType) String() string {
	switch t {
	case Measurement:
		return "measurement"
	case Evaluation:
		return "evaluation"
	case Artifact:
		return "artifact"
	case Error:
		return "error"
	case Done:
		return "done"
	}
	return "unknown"
}

// Result is the output of a training run.
type Result struct {
	// Split is the part of the data an evaluation was computed on.
	Split        string
	RunID        string
	Measurements map[string]float64
	Evaluations  map[string]float64
	Path         string
	Type         ResultType
	Error        error
}
