// Package faults classifies the errors raised while loading, training, saving and serving a fare model.
//
// Every error that crosses a package boundary is wrapped in an *Error carrying the kind of failure, the stage that
// raised it and, where one exists, the configuration key or column at fault. Callers decide whether to abort using
// Kind.Recoverable.
package faults

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the category of a failure.
type Kind uint8

const (
	// DataLoad indicates the data source could not be reached or read.
	DataLoad Kind = iota
	// DataFormat indicates a required column is missing or holds a value of the wrong shape.
	DataFormat
	// TypeConversion indicates a column could not be converted to the type a transformer needs.
	TypeConversion
	// Configuration indicates an unknown or invalid option in the run configuration.
	Configuration
	// PipelineNotFitted indicates evaluate or predict was called before fit.
	PipelineNotFitted
	// Upload indicates the artifact could not be pushed to the remote store.
	Upload
	// Tracking indicates the experiment tracking backend failed.
	Tracking
)

var kindNames = map[Kind]string{
	DataLoad:          "DataLoadError",
	DataFormat:        "DataFormatError",
	TypeConversion:    "TypeConversionError",
	Configuration:     "ConfigurationError",
	PipelineNotFitted: "PipelineNotFittedError",
	Upload:            "UploadError",
	Tracking:          "TrackingError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Recoverable reports whether a failure of this kind should be logged and ignored rather than abort a run.
func (k Kind) Recoverable() bool {
	return k == Upload || k == Tracking
}

// Error is a classified failure.
type Error struct {
	Kind  Kind
	Stage string
	Key   string
	Err   error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if len(e.Stage) > 0 {
		s += " [" + e.Stage + "]"
	}
	if len(e.Key) > 0 {
		s += " (" + e.Key + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New classifies err. The stage names the component which failed and key the offending option or column.
func New(kind Kind, stage, key string, err error) error {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return &Error{Kind: kind, Stage: stage, Key: key, Err: err}
}

// Newf classifies a new error created from a format string.
func Newf(kind Kind, stage, key, format string, args ...interface{}) error {
	return New(kind, stage, key, errors.Errorf(format, args...))
}

// NotFitted is the error returned when a component is used before it has been fitted.
func NotFitted(stage string) error {
	return New(PipelineNotFitted, stage, "", errors.New("fit must be called before use"))
}

// As extracts the classified error from err, if there is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err, or any error it wraps, is of the specified kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
