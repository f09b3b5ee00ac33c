package rendergraph

import "testing"

// th returns a distinct texture handle for compiler tests, which only
// care about handle identity, not what a Scheduler would back it with.
func th(index uint32) Handle {
	return Handle{kind: HandleTexture, index: index, generation: 1, graphID: 1}
}

// identityResolve treats every handle as its own canonical texture
// identity (these tests only care about handle identity, not real
// view resolution), defaulting to the same read/write kinds
// Scheduler.resolveAccess would pick for a bare texture handle.
func identityResolve(h Handle, write bool) (access, error) {
	kind := ViewShaderResource
	if write {
		kind = ViewRenderTarget
	}
	return access{texture: h, kind: kind}, nil
}

func passNamed(name string, order int, reads, writes []Handle) *Pass {
	p := newPass(name, order)
	for _, h := range reads {
		p.Read(h)
	}
	for _, h := range writes {
		p.Write(h)
	}
	return p
}

// TestCompileLinearChain covers S1: A writes T1, B reads T1 writes T2,
// C reads T2. Expect three dependency levels, one pass each, in
// declaration order.
func TestCompileLinearChain(t *testing.T) {
	t1, t2 := th(1), th(2)
	a := passNamed("A", 0, nil, []Handle{t1})
	b := passNamed("B", 1, []Handle{t1}, []Handle{t2})
	c := passNamed("C", 2, []Handle{t2}, nil)

	plan, err := compile([]*Pass{a, b, c}, identityResolve)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(plan.levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(plan.levels))
	}
	for i, want := range []string{"A", "B", "C"} {
		if got := plan.levels[i].Passes[0].Name; got != want {
			t.Errorf("level %d pass = %q, want %q", i, got, want)
		}
	}
}

// TestCompileDiamond covers S2: A writes T1, B and C both read T1 and
// write independent resources, D reads both B's and C's outputs. B and
// C must land in the same dependency level.
func TestCompileDiamond(t *testing.T) {
	t1, t2, t3, t4 := th(1), th(2), th(3), th(4)
	a := passNamed("A", 0, nil, []Handle{t1})
	b := passNamed("B", 1, []Handle{t1}, []Handle{t2})
	c := passNamed("C", 2, []Handle{t1}, []Handle{t3})
	d := passNamed("D", 3, []Handle{t2, t3}, []Handle{t4})

	plan, err := compile([]*Pass{a, b, c, d}, identityResolve)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(plan.levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(plan.levels))
	}
	if len(plan.levels[1].Passes) != 2 {
		t.Fatalf("expected B and C to share level 1, got %d passes", len(plan.levels[1].Passes))
	}
	// Level 1 must hold B and C in declaration order, not just as a set:
	// independent siblings are tie-broken by declaration index regardless
	// of how deep either one's subtree happens to run (§4.6 step 4, §8 S2).
	if plan.levels[1].Passes[0].Name != "B" || plan.levels[1].Passes[1].Name != "C" {
		t.Fatalf("level 1 = %v, want [B, C] in declaration order", []string{plan.levels[1].Passes[0].Name, plan.levels[1].Passes[1].Name})
	}
}

// TestCompileCycleDetected covers S4: A reads T, writes T'; B reads
// T', writes T. Neither pass can run first.
func TestCompileCycleDetected(t *testing.T) {
	tres, tprime := th(1), th(2)
	a := passNamed("A", 0, []Handle{tres}, []Handle{tprime})
	b := passNamed("B", 1, []Handle{tprime}, []Handle{tres})

	_, err := compile([]*Pass{a, b}, identityResolve)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	ge, ok := AsGraphError(err)
	if !ok || ge.Kind != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	if len(ge.Cycle) < 2 {
		t.Fatalf("expected a populated cycle path, got %v", ge.Cycle)
	}
}

// TestCompileReadWithNoProducerFails covers invariant 2: a read of a
// resource nothing in the graph writes is a declaration error, not a
// silent no-op dependency.
func TestCompileReadWithNoProducerFails(t *testing.T) {
	t1 := th(1)
	a := passNamed("A", 0, []Handle{t1}, nil)

	_, err := compile([]*Pass{a}, identityResolve)
	if err == nil {
		t.Fatal("expected a bad-declaration error")
	}
	ge, ok := AsGraphError(err)
	if !ok || ge.Kind != ErrBadDeclaration {
		t.Fatalf("expected ErrBadDeclaration, got %v", err)
	}
}

// TestCompileDuplicateWriterFails covers the write-set-overlap rule:
// two distinct passes writing the same resource handle is an error.
func TestCompileDuplicateWriterFails(t *testing.T) {
	t1 := th(1)
	a := passNamed("A", 0, nil, []Handle{t1})
	b := passNamed("B", 1, nil, []Handle{t1})

	_, err := compile([]*Pass{a, b}, identityResolve)
	if err == nil {
		t.Fatal("expected a bad-declaration error for duplicate writers")
	}
}

// TestCompileIsDeterministic checks that compiling the same pass set
// twice produces an identical topological order and level partition.
func TestCompileIsDeterministic(t *testing.T) {
	t1, t2, t3 := th(1), th(2), th(3)
	build := func() []*Pass {
		return []*Pass{
			passNamed("A", 0, nil, []Handle{t1}),
			passNamed("B", 1, []Handle{t1}, []Handle{t2}),
			passNamed("C", 2, []Handle{t1}, []Handle{t3}),
		}
	}

	plan1, err := compile(build(), identityResolve)
	if err != nil {
		t.Fatalf("compile 1: %v", err)
	}
	plan2, err := compile(build(), identityResolve)
	if err != nil {
		t.Fatalf("compile 2: %v", err)
	}

	if len(plan1.topological) != len(plan2.topological) {
		t.Fatalf("topological order length differs: %d vs %d", len(plan1.topological), len(plan2.topological))
	}
	for i := range plan1.topological {
		if plan1.topological[i].Name != plan2.topological[i].Name {
			t.Fatalf("topological order differs at %d: %q vs %q", i, plan1.topological[i].Name, plan2.topological[i].Name)
		}
	}
}

// TestCompileTopologicalOrderRespectsEdges is the general validity
// property: every pass appears strictly after every pass that
// produces one of its reads.
func TestCompileTopologicalOrderRespectsEdges(t *testing.T) {
	t1, t2, t3 := th(1), th(2), th(3)
	a := passNamed("A", 0, nil, []Handle{t1})
	b := passNamed("B", 1, []Handle{t1}, []Handle{t2})
	c := passNamed("C", 2, []Handle{t2}, []Handle{t3})

	plan, err := compile([]*Pass{a, b, c}, identityResolve)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	position := make(map[string]int)
	for i, p := range plan.topological {
		position[p.Name] = i
	}
	if position["A"] >= position["B"] {
		t.Errorf("A (writes T1) must precede B (reads T1)")
	}
	if position["B"] >= position["C"] {
		t.Errorf("B (writes T2) must precede C (reads T2)")
	}
}

func TestCompileEmptyGraph(t *testing.T) {
	plan, err := compile(nil, identityResolve)
	if err != nil {
		t.Fatalf("compile(nil): %v", err)
	}
	if len(plan.levels) != 0 {
		t.Errorf("expected no levels for an empty graph, got %d", len(plan.levels))
	}
}
