package rendergraph

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadGraphConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadGraphConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if cfg != DefaultGraphConfig() {
		t.Errorf("got %+v, want the defaults even on error", cfg)
	}
}

func TestLoadGraphConfigParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.toml")
	body := "arena_capacity_bytes = 2097152\nbarrier_batch_size = 32\nasync_compute_queue = false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadGraphConfig(path)
	if err != nil {
		t.Fatalf("loadGraphConfig: %v", err)
	}
	want := GraphConfig{ArenaCapacityBytes: 2097152, BarrierBatchSize: 32, AsyncComputeQueue: false}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestNewConfigWatcherFallsBackToDefaultsWithoutAFile(t *testing.T) {
	cw, err := newConfigWatcher(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("newConfigWatcher: %v", err)
	}
	defer cw.close()

	if cw.current() != DefaultGraphConfig() {
		t.Errorf("got %+v, want defaults", cw.current())
	}
}

func TestConfigWatcherHotReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.toml")
	if err := os.WriteFile(path, []byte("barrier_batch_size = 8\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cw, err := newConfigWatcher(path)
	if err != nil {
		t.Fatalf("newConfigWatcher: %v", err)
	}
	defer cw.close()

	if cw.current().BarrierBatchSize != 8 {
		t.Fatalf("initial BarrierBatchSize = %d, want 8", cw.current().BarrierBatchSize)
	}

	if err := os.WriteFile(path, []byte("barrier_batch_size = 64\n"), 0o644); err != nil {
		t.Fatalf("WriteFile (update): %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cw.current().BarrierBatchSize == 64 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("config did not hot-reload within the deadline, last seen BarrierBatchSize = %d", cw.current().BarrierBatchSize)
}
