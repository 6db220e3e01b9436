// Package features composes the feature blocks requested by a run into a single model input matrix.
package features

import (
	"fmt"
	"log"
	"strings"

	"github.com/hscells/taxifare/cache"
	"github.com/hscells/taxifare/encoders"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/geo"
	"gonum.org/v1/gonum/mat"
)

// Names of the feature blocks, in the order their columns appear in the composed matrix.
const (
	DistanceBlock         = "distance"
	TimeFeaturesBlock     = "time_features"
	DirectionBlock        = "direction"
	DistanceToCenterBlock = "distance_to_center"
	GeohashBlock          = "geohash"
)

// Declared lists every block a composer can build.
var Declared = []string{DistanceBlock, TimeFeaturesBlock, DirectionBlock, DistanceToCenterBlock, GeohashBlock}

// Block is a named chain of stages. The first stage derives columns from the raw frame and every following stage
// transforms the output of the one before it.
type Block struct {
	Name   string
	Steps  []encoders.Stage
	Output []string
}

// Options controls how the blocks of a composer are built.
type Options struct {
	DistanceType     string
	TimeColumn       string
	TimeZone         string
	GeohashPrecision uint
	Coordinates      geo.Coordinates
}

// DefaultOptions are the options used for taxi trip records.
func DefaultOptions() Options {
	return Options{
		DistanceType:     encoders.Euclidian,
		TimeColumn:       "pickup_datetime",
		TimeZone:         encoders.DefaultTimeZone,
		GeohashPrecision: encoders.DefaultGeohashPrecision,
		Coordinates:      geo.PickupDropoff,
	}
}

// Composer runs its blocks side by side over the same input and concatenates their outputs. Columns of the input
// that no block consumes are dropped.
type Composer struct {
	Blocks []Block
	Fitted bool

	memory    cache.FeatureCache
	hasMemory bool
}

// Parse splits a comma separated list of block names.
func Parse(feateng string) []string {
	var names []string
	for _, s := range strings.Split(feateng, ",") {
		if s = strings.TrimSpace(s); len(s) > 0 {
			names = append(names, s)
		}
	}
	return names
}

// New creates a composer for the requested blocks. Blocks are laid out in declared order whatever order they were
// requested in and requesting a block twice has no further effect.
func New(requested []string, opts Options) (*Composer, error) {
	if len(requested) == 0 {
		return nil, faults.Newf(faults.Configuration, "features", "feateng", "no feature blocks requested")
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}
	for name := range want {
		if !isDeclared(name) {
			return nil, faults.Newf(faults.Configuration, "features", "feateng", "unknown feature block %q, expected one of %v", name, Declared)
		}
	}

	var blocks []Block
	for _, name := range Declared {
		if !want[name] {
			continue
		}
		b, err := build(name, opts)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return &Composer{Blocks: blocks}, nil
}

func isDeclared(name string) bool {
	for _, d := range Declared {
		if d == name {
			return true
		}
	}
	return false
}

func build(name string, opts Options) (Block, error) {
	b := Block{Name: name}
	switch name {
	case DistanceBlock:
		d, err := encoders.NewDistance(opts.DistanceType, opts.Coordinates)
		if err != nil {
			return b, err
		}
		b.Steps = []encoders.Stage{d, encoders.NewStandardScaler()}
	case TimeFeaturesBlock:
		b.Steps = []encoders.Stage{
			&encoders.TimeFeatures{Column: opts.TimeColumn, TimeZone: opts.TimeZone},
			encoders.NewOneHotEncoder(),
		}
	case DirectionBlock:
		b.Steps = []encoders.Stage{encoders.NewDirection(opts.Coordinates), encoders.NewStandardScaler()}
	case DistanceToCenterBlock:
		b.Steps = []encoders.Stage{encoders.NewDistanceToCenter(opts.Coordinates), encoders.NewStandardScaler()}
	case GeohashBlock:
		b.Steps = []encoders.Stage{encoders.NewGeohash(opts.GeohashPrecision, opts.Coordinates), encoders.NewOneHotEncoder()}
	}
	return b, nil
}

// SetMemory caches the output of the first stage of every block.
func (c *Composer) SetMemory(m cache.FeatureCache) {
	c.memory = m
	c.hasMemory = true
}

// Names of the composed columns, as "<block>__<column>".
func (c *Composer) Names() []string {
	var names []string
	for _, b := range c.Blocks {
		for _, o := range b.Output {
			names = append(names, b.Name+"__"+o)
		}
	}
	return names
}

// derive runs the first, stateless stage of a block, going through the memory when one is set.
func (c *Composer) derive(b Block, X *frame.Frame) (*frame.Frame, error) {
	if !c.hasMemory {
		return b.Steps[0].Transform(X)
	}
	key := cache.Key(b.Name, fmt.Sprintf("%T%+v", b.Steps[0], b.Steps[0]), X.Hash())
	if f, err := c.memory.Get(key); err == nil {
		return f, nil
	}
	f, err := b.Steps[0].Transform(X)
	if err != nil {
		return nil, err
	}
	if err := c.memory.Set(key, f); err != nil {
		log.Printf("[warning] could not cache %s block: %v\n", b.Name, err)
	}
	return f, nil
}

// Fit fits the stateful stages of every block on X.
func (c *Composer) Fit(X *frame.Frame, y []float64) error {
	for i, b := range c.Blocks {
		f, err := c.derive(b, X)
		if err != nil {
			return err
		}
		for j := 1; j < len(b.Steps); j++ {
			var s encoders.Stage
			s, f, err = encoders.FitTransform(b.Steps[j], f, y)
			if err != nil {
				return err
			}
			b.Steps[j] = s
		}
		b.Output = f.Names()
		c.Blocks[i] = b
	}
	c.Fitted = true
	return nil
}

// Frame transforms X with every block and concatenates the outputs into a single frame.
func (c *Composer) Frame(X *frame.Frame) (*frame.Frame, error) {
	if !c.Fitted {
		return nil, faults.NotFitted("features")
	}
	var cols []frame.Column
	for _, b := range c.Blocks {
		f, err := c.derive(b, X)
		if err != nil {
			return nil, err
		}
		for _, s := range b.Steps[1:] {
			if f, err = s.Transform(f); err != nil {
				return nil, err
			}
		}
		f, err = encoders.DataframeNormalizer{}.Transform(f)
		if err != nil {
			return nil, err
		}
		for _, col := range f.Columns {
			col.Name = b.Name + "__" + col.Name
			cols = append(cols, col)
		}
	}
	return frame.New(cols...)
}

// Transform composes the model input matrix for X.
func (c *Composer) Transform(X *frame.Frame) (*mat.Dense, error) {
	f, err := c.Frame(X)
	if err != nil {
		return nil, err
	}
	return Matrix(f)
}

// FitTransform fits the composer on X and composes its matrix.
func (c *Composer) FitTransform(X *frame.Frame, y []float64) (*mat.Dense, error) {
	if err := c.Fit(X, y); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// Matrix lays the numeric columns of a frame out as a row major matrix.
func Matrix(f *frame.Frame) (*mat.Dense, error) {
	r, w := f.Len(), f.Width()
	if r == 0 || w == 0 {
		return nil, faults.Newf(faults.DataFormat, "features", "", "cannot compose a %dx%d matrix", r, w)
	}
	data := make([]float64, r*w)
	for j, col := range f.Columns {
		v, err := f.Floats(col.Name)
		if err != nil {
			return nil, err
		}
		for i, x := range v {
			data[i*w+j] = x
		}
	}
	return mat.NewDense(r, w, data), nil
}
