package rendergraph

import "github.com/forgekit/forge/engine/core"

// Graph is the public entry point: it owns one frame's Scheduler
// (virtual-resource declarations), Registry (physical realisation),
// Arena (frame-scoped pass/scope budget), and StateTracker (barrier
// bookkeeping), and exposes the declare -> compile -> execute cycle a
// renderer drives once per frame.
type Graph struct {
	device     Device
	resolution ResolutionSource
	config     *configWatcher

	graphID uint64
	arena   *Arena

	scheduler *Scheduler
	registry  *Registry
	tracker   *StateTracker

	passes []*Pass

	plan  *compiledPlan
	dirty bool

	metrics metricsCollector
}

// NewGraph creates a Graph bound to device for physical resource
// realisation and resolution for the per-frame render/viewport sizes.
// configPath is read once synchronously and then hot-reloaded; a
// missing file is not fatal, it just means DefaultGraphConfig stands.
func NewGraph(graphID uint64, device Device, resolution ResolutionSource, configPath string) (*Graph, error) {
	watcher, err := newConfigWatcher(configPath)
	if err != nil {
		return nil, err
	}
	cfg := watcher.current()

	return &Graph{
		device:     device,
		resolution: resolution,
		config:     watcher,
		graphID:    graphID,
		arena:      NewArena(cfg.ArenaCapacityBytes),
		scheduler:  newScheduler(graphID),
		registry:   NewRegistry(device),
		tracker:    NewStateTracker(cfg.BarrierBatchSize),
		dirty:      true,
	}, nil
}

// Scheduler exposes the declaration-phase API for pass setup closures
// that need to create textures, views, or render-target groups.
func (g *Graph) Scheduler() *Scheduler { return g.scheduler }

// PassCount reports how many passes the current frame has declared so
// far, letting a caller skip Compile/Execute entirely on a frame that
// never touched the graph.
func (g *Graph) PassCount() int { return len(g.passes) }

// BeginFrame discards every pass and virtual resource declared last
// frame, ready for a fresh declare pass. The physical resource cache
// inside Registry survives across BeginFrame calls; only the Arena,
// Scheduler, and pass list reset (§4.1/§4.4 lifecycle split). The
// arena capacity and barrier batch size of the current (possibly
// hot-reloaded) config take effect here.
func (g *Graph) BeginFrame() {
	g.arena.Reset()
	cfg := g.config.current()
	if cfg.ArenaCapacityBytes != g.arena.Capacity() {
		g.arena = NewArena(cfg.ArenaCapacityBytes)
	}
	if cfg.BarrierBatchSize > 0 {
		g.tracker.BatchSize = cfg.BarrierBatchSize
	}
	g.scheduler.reset()
	g.passes = g.passes[:0]
	g.dirty = true
}

// AddPass declares one pass: it allocates the Pass from the frame
// arena, registers it against this frame's pass list, and marks the
// graph dirty so the next Compile rebuilds the plan. The returned Pass
// is then populated by the caller via Read/Write/Scope before Compile
// runs; callback is invoked once per Execute once the pass's
// dependency level is reached.
func (g *Graph) AddPass(name string, queue Queue, callback ExecuteCallback) (*Pass, error) {
	for _, p := range g.passes {
		if p.Name == name {
			return nil, newErrorf(ErrBadDeclaration, "pass %q already declared this frame", name)
		}
	}
	p, err := g.arena.ConstructPass(name, len(g.passes), nil)
	if err != nil {
		return nil, err
	}
	p.Queue = queue
	p.Callback = callback

	renderW, renderH := g.resolution.RenderResolution()
	viewportW, viewportH := g.resolution.ViewportResolution()
	view := Get[ViewData](p.Scope)
	view.RenderWidth, view.RenderHeight = renderW, renderH
	view.ViewportWidth, view.ViewportHeight = viewportW, viewportH

	g.passes = append(g.passes, p)
	g.dirty = true
	return p, nil
}

// Compile realises this frame's virtual resources and, if the
// declared pass set changed since the last Compile, rebuilds the
// topological order and dependency-level partition (§4.6). A
// resolution change forces a Realize even when the pass set itself is
// unchanged, since physical textures sized off the old resolution must
// be dropped (§S5).
func (g *Graph) Compile() error {
	renderW, renderH := g.resolution.RenderResolution()
	viewportW, viewportH := g.resolution.ViewportResolution()
	renderDirty, viewportDirty := g.resolution.Dirty()

	if err := g.registry.Realize(g.scheduler, renderW, renderH, viewportW, viewportH, renderDirty, viewportDirty); err != nil {
		return err
	}

	if !g.dirty && g.plan != nil {
		return nil
	}

	plan, err := compile(g.passes, g.scheduler.resolveAccess)
	if err != nil {
		return err
	}
	g.plan = plan
	g.dirty = false
	core.LogDebug("rendergraph: compiled %d passes into %d dependency levels", len(g.passes), len(plan.levels))
	return nil
}

// Execute runs the compiled plan against recorder, which the caller
// must already have opened on this graph's StateTracker, and closes
// out the tracker's pending subresource states via ResolveAll once
// every level has run (§4.5 phase 2).
func (g *Graph) Execute(recorder CommandRecorder) (FrameMetrics, error) {
	if g.plan == nil {
		if err := g.Compile(); err != nil {
			return FrameMetrics{}, err
		}
	}

	g.metrics.reset(len(g.passes), len(g.plan.levels))

	exec := NewExecutor(g.scheduler, g.registry, g.tracker)
	if err := exec.Execute(g.plan.levels, recorder); err != nil {
		return FrameMetrics{}, err
	}

	barriers, uavBarriers := g.tracker.LevelCounts()
	g.metrics.addBarriers(barriers, uavBarriers)

	patch := g.tracker.ResolveAll()
	g.metrics.addPatchBarriers(len(patch))
	if len(patch) > 0 {
		core.LogDebug("rendergraph: %d patch-up barriers pending at submit", len(patch))
	}

	return g.metrics.snapshot(), nil
}

// Config returns the tunables currently in effect, reflecting any
// hot-reload that has happened since NewGraph.
func (g *Graph) Config() GraphConfig { return g.config.current() }

// Shutdown tears down every physical resource the registry has ever
// cached and stops the config hot-reload watcher. Not called between
// frames, only when the owning renderer shuts down for good.
func (g *Graph) Shutdown() {
	g.registry.Shutdown()
	g.config.close()
}
