// Package artifact stores fitted pipelines on disk and pushes them to a remote store.
//
// A run either produces an iteration artifact, named after the estimator, distance and run that produced it, or the
// final artifact which the prediction server loads.
package artifact

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/pipeline"
	"github.com/pkg/errors"
)

// Extension of every artifact file.
const Extension = ".gob"

// FinalName is the file name of the final artifact.
const FinalName = "model" + Extension

// FinalPath is where the final artifact is stored under dir.
func FinalPath(dir string) string {
	return filepath.Join(dir, "final", FinalName)
}

// IterationPath is where an iteration artifact is stored under dir.
func IterationPath(dir, estimator, distance, runID string) string {
	name := fmt.Sprintf("%s_%s_%s%s", clean(estimator), clean(distance), clean(runID), Extension)
	return filepath.Join(dir, "iterations", name)
}

// Path picks the final or the iteration path.
func Path(dir string, final bool, estimator, distance, runID string) string {
	if final {
		return FinalPath(dir)
	}
	return IterationPath(dir, estimator, distance, runID)
}

func clean(s string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		if r == os.PathSeparator || r == '/' || r == ' ' {
			return '-'
		}
		return r
	}, s)
}

// Save writes a fitted pipeline to path, creating its directory.
func Save(path string, p *pipeline.Pipeline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "creating %s", tmp)
	}
	w := bufio.NewWriter(f)
	if err := p.Encode(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp)
	}
	// The server watches path, so it must only ever see a complete file.
	return errors.Wrapf(os.Rename(tmp, path), "moving artifact to %s", path)
}

// Load reads a fitted pipeline from path.
func Load(path string) (*pipeline.Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.New(faults.DataLoad, "artifact", path, err)
	}
	defer f.Close()
	return pipeline.Decode(bufio.NewReader(f))
}
