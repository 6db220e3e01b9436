package api

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru"
	"github.com/hscells/taxifare/artifact"
	"github.com/hscells/taxifare/pipeline"
	"github.com/pkg/errors"
)

// DefaultModelCacheSize is how many artifacts are kept loaded at once.
const DefaultModelCacheSize = 4

// Models loads fitted pipelines from artifact files and keeps the most recently used ones in memory. A cached
// pipeline is dropped as soon as its file changes, so the next request loads the new artifact. Models is safe for
// concurrent use.
type Models struct {
	cache   *lru.Cache
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool
}

// NewModels creates a model cache holding at most size pipelines.
func NewModels(size int) (*Models, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "creating model cache")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watching models")
	}
	m := &Models{
		cache:   c,
		watcher: w,
		watched: make(map[string]bool),
	}
	go m.watch()
	return m, nil
}

func (m *Models) watch() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if m.cache.Contains(event.Name) {
				log.Printf("%s changed (%s), reloading on next request\n", event.Name, event.Op)
				m.cache.Remove(event.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[warning] watching models: %v\n", err)
		}
	}
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Get returns the pipeline stored at path, loading it if it is not cached.
func (m *Models) Get(path string) (*pipeline.Pipeline, error) {
	k := key(path)
	if v, ok := m.cache.Get(k); ok {
		return v.(*pipeline.Pipeline), nil
	}

	// Artifacts are replaced by renaming over them, so the directory is watched rather than the file.
	dir := filepath.Dir(k)
	m.mu.Lock()
	if !m.watched[dir] {
		if err := m.watcher.Add(dir); err != nil {
			log.Printf("[warning] cannot watch %s, changes to models will not be picked up: %v\n", dir, err)
		} else {
			m.watched[dir] = true
		}
	}
	m.mu.Unlock()

	p, err := artifact.Load(k)
	if err != nil {
		return nil, err
	}
	m.cache.Add(k, p)
	return p, nil
}

// Cached reports whether the pipeline at path is loaded.
func (m *Models) Cached(path string) bool {
	return m.cache.Contains(key(path))
}

// Invalidate drops the pipeline at path from the cache.
func (m *Models) Invalidate(path string) {
	m.cache.Remove(key(path))
}

// Close stops watching artifact files.
func (m *Models) Close() error {
	return m.watcher.Close()
}
