package rendergraph

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/forgekit/forge/engine/core"
)

// GraphConfig holds the tunables a Graph reads once at construction
// and re-reads whenever its backing file changes on disk.
type GraphConfig struct {
	ArenaCapacityBytes int  `toml:"arena_capacity_bytes"`
	BarrierBatchSize   int  `toml:"barrier_batch_size"`
	AsyncComputeQueue  bool `toml:"async_compute_queue"`
}

// DefaultGraphConfig mirrors the teacher's "sane default, overridden
// by file" convention: usable before any config file has ever loaded.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		ArenaCapacityBytes: 1 << 20,
		BarrierBatchSize:   16,
		AsyncComputeQueue:  true,
	}
}

func loadGraphConfig(path string) (GraphConfig, error) {
	cfg := DefaultGraphConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// configWatcher hot-reloads a GraphConfig from path, in the same
// single fsnotify.Watcher-plus-goroutine shape the asset manager uses.
type configWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu  sync.RWMutex
	cfg GraphConfig

	done chan struct{}
}

// newConfigWatcher loads path once synchronously and, if a watcher can
// be established, starts reloading it on every write. A missing config
// file is not an error: the caller falls back to DefaultGraphConfig
// and simply never reloads.
func newConfigWatcher(path string) (*configWatcher, error) {
	cfg, err := loadGraphConfig(path)
	if err != nil {
		core.LogWarn("rendergraph: no config at %q, using defaults: %v", path, err)
		cfg = DefaultGraphConfig()
	}

	cw := &configWatcher{path: path, cfg: cfg, done: make(chan struct{})}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		core.LogWarn("rendergraph: config hot-reload disabled, fsnotify unavailable: %v", err)
		return cw, nil
	}
	cw.watcher = watcher
	if err := watcher.Add(path); err != nil {
		core.LogWarn("rendergraph: could not watch %q for reload: %v", path, err)
		watcher.Close()
		cw.watcher = nil
		return cw, nil
	}

	go cw.run()
	return cw, nil
}

func (cw *configWatcher) run() {
	for {
		select {
		case e, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := loadGraphConfig(cw.path)
			if err != nil {
				core.LogWarn("rendergraph: config reload of %q failed, keeping previous: %v", cw.path, err)
				continue
			}
			cw.mu.Lock()
			cw.cfg = cfg
			cw.mu.Unlock()
			core.LogInfo("rendergraph: reloaded config from %q", cw.path)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("rendergraph: config watcher error: %v", err)
		case <-cw.done:
			cw.watcher.Close()
			return
		}
	}
}

func (cw *configWatcher) current() GraphConfig {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.cfg
}

func (cw *configWatcher) close() {
	if cw.watcher == nil {
		return
	}
	close(cw.done)
}
