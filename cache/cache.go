// Package cache stores materialised feature blocks so that repeated fits over the same data (grid search trials,
// retraining with a different estimator) do not recompute the stateless feature transformers.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/hashicorp/golang-lru"
	"github.com/hscells/taxifare/frame"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
)

// ErrMiss is returned when a key has not been cached.
var ErrMiss = errors.New("cache miss")

// DefaultLRUSize is the number of blocks kept by the LRU memory.
const DefaultLRUSize = 128

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// Key derives a cache key from its parts.
func Key(parts ...interface{}) string {
	h := fnv.New64a()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return strconv.FormatUint(h.Sum64(), 10)
}

// FrameToBytes encodes a frame to bytes.
func FrameToBytes(f *frame.Frame) ([]byte, error) {
	var buff bytes.Buffer
	enc := gob.NewEncoder(&buff)
	err := enc.Encode(f)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// FrameFromBytes decodes a frame encoded with FrameToBytes.
func FrameFromBytes(b []byte) (*frame.Frame, error) {
	var f frame.Frame
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FeatureCacher models a way to cache (either persistent or not) the frames produced by a feature transformer.
type FeatureCacher interface {
	Get(key string) (*frame.Frame, error)
	Set(key string, f *frame.Frame) error
}

// FeatureCache embeds a privately defined feature cacher into a public struct.
type FeatureCache struct {
	FeatureCacher
}

type mapFeatureCache struct {
	m map[string]*frame.Frame
}

func (m mapFeatureCache) Get(key string) (*frame.Frame, error) {
	if f, ok := m.m[key]; ok {
		return f, nil
	}
	return nil, ErrMiss
}

func (m mapFeatureCache) Set(key string, f *frame.Frame) error {
	m.m[key] = f
	return nil
}

// NewMapFeatureCache creates a feature cache out of a regular go map.
func NewMapFeatureCache() FeatureCache {
	return FeatureCache{mapFeatureCache{make(map[string]*frame.Frame)}}
}

type lruFeatureCache struct {
	*lru.Cache
}

func (l lruFeatureCache) Get(key string) (*frame.Frame, error) {
	if v, ok := l.Cache.Get(key); ok {
		return v.(*frame.Frame), nil
	}
	return nil, ErrMiss
}

func (l lruFeatureCache) Set(key string, f *frame.Frame) error {
	l.Cache.Add(key, f)
	return nil
}

// NewLRUFeatureCache creates a bounded in-memory feature cache which evicts the least recently used frames.
func NewLRUFeatureCache(size int) (FeatureCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return FeatureCache{}, errors.Wrap(err, "lru feature cache")
	}
	return FeatureCache{lruFeatureCache{c}}, nil
}

type diskvFeatureCache struct {
	*diskv.Diskv
}

func (d diskvFeatureCache) Get(key string) (*frame.Frame, error) {
	b, err := d.Read(key)
	if err != nil {
		return nil, ErrMiss
	}
	return FrameFromBytes(b)
}

func (d diskvFeatureCache) Set(key string, f *frame.Frame) error {
	b, err := FrameToBytes(f)
	if err != nil {
		return err
	}
	return d.Write(key, b)
}

// NewDiskvFeatureCache creates a new on-disk cache with the specified diskv parameters.
func NewDiskvFeatureCache(dv *diskv.Diskv) FeatureCache {
	return FeatureCache{diskvFeatureCache{dv}}
}

// Open creates the memory described by a pipeline_memory setting: "memory" for a map, "lru" for a bounded cache and
// anything else for a diskv cache rooted at that directory. An empty setting means no memory.
func Open(setting string) (FeatureCache, bool, error) {
	switch setting {
	case "":
		return FeatureCache{}, false, nil
	case "memory":
		return NewMapFeatureCache(), true, nil
	case "lru":
		c, err := NewLRUFeatureCache(DefaultLRUSize)
		return c, err == nil, err
	}
	return NewDiskvFeatureCache(diskv.New(diskv.Options{
		BasePath:     setting,
		Transform:    BlockTransform(4),
		CacheSizeMax: 4096 * 1024,
	})), true, nil
}
