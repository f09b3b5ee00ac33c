package rendergraph

// Queue tags a pass with one of the (at most two) GPU queues. The
// Executor does not read it: every pass records on the single
// CommandRecorder handed to Graph.Execute, and no cross-queue
// submission or synchronisation is performed.
type Queue uint8

const (
	QueuePrimary Queue = iota
	QueueAsyncCompute
)

// ExecuteCallback is returned by a pass declaration closure and
// invoked once per frame by the Executor, with the Registry used to
// resolve handles to physical objects and the CommandRecorder used to
// emit draw/dispatch/clear commands.
type ExecuteCallback func(registry *Registry, recorder CommandRecorder) error

// Pass is a single declared unit of work: a name, its read/write
// dependency sets, a POD parameter Scope, and the callback that
// actually records commands.
type Pass struct {
	Name  string
	Queue Queue

	reads      map[Handle]struct{}
	writes     map[Handle]struct{}
	readWrites map[Handle]struct{}

	Scope *Scope

	Callback ExecuteCallback

	// TopologicalIndex is assigned by the compiler; stable across
	// recompiles as long as the declared pass set doesn't change.
	TopologicalIndex int
	// declarationOrder is the index this pass was added in, used as
	// the deterministic tie-break for topo sort and level ordering.
	declarationOrder int
}

func newPass(name string, order int) *Pass {
	return &Pass{
		Name:             name,
		reads:            make(map[Handle]struct{}),
		writes:           make(map[Handle]struct{}),
		readWrites:       make(map[Handle]struct{}),
		Scope:            newScope(),
		declarationOrder: order,
	}
}

// Read declares that this pass reads resource h. Reading and writing
// the same handle within a pass is a declared read-write (invariant 2).
func (p *Pass) Read(h Handle) {
	if _, isWrite := p.writes[h]; isWrite {
		delete(p.writes, h)
		p.readWrites[h] = struct{}{}
		return
	}
	if _, isRW := p.readWrites[h]; isRW {
		return
	}
	p.reads[h] = struct{}{}
}

// Write declares that this pass writes resource h.
func (p *Pass) Write(h Handle) {
	if _, isRead := p.reads[h]; isRead {
		delete(p.reads, h)
		p.readWrites[h] = struct{}{}
		return
	}
	if _, isRW := p.readWrites[h]; isRW {
		return
	}
	p.writes[h] = struct{}{}
}

// ReadsFrom reports whether h is in this pass's read or read-write set.
func (p *Pass) ReadsFrom(h Handle) bool {
	_, r := p.reads[h]
	_, rw := p.readWrites[h]
	return r || rw
}

// WritesTo reports whether h is in this pass's write or read-write set.
func (p *Pass) WritesTo(h Handle) bool {
	_, w := p.writes[h]
	_, rw := p.readWrites[h]
	return w || rw
}

// HasAnyDependencies reports whether this pass reads anything at all,
// i.e. whether it could have predecessors in the dependency graph.
func (p *Pass) HasAnyDependencies() bool {
	return len(p.reads) > 0 || len(p.readWrites) > 0
}

// allReads returns every handle this pass reads, including read-writes.
func (p *Pass) allReads() []Handle {
	out := make([]Handle, 0, len(p.reads)+len(p.readWrites))
	for h := range p.reads {
		out = append(out, h)
	}
	for h := range p.readWrites {
		out = append(out, h)
	}
	return out
}

// allWrites returns every handle this pass writes, including read-writes.
func (p *Pass) allWrites() []Handle {
	out := make([]Handle, 0, len(p.writes)+len(p.readWrites))
	for h := range p.writes {
		out = append(out, h)
	}
	for h := range p.readWrites {
		out = append(out, h)
	}
	return out
}

// DependencyLevel is the maximal set of passes sharing one topological
// depth; all of them execute after a single pre-level barrier batch
// and have no mutual ordering guarantee beyond that.
type DependencyLevel struct {
	Depth int
	// Passes is in declaration order among the passes at this depth,
	// not insertion order into the level (compiler.go sorts it).
	Passes []*Pass
}
