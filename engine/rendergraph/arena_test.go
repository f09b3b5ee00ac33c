package rendergraph

import "testing"

func TestArenaReserveTracksUsage(t *testing.T) {
	a := NewArena(1024)
	if err := a.Reserve(100, 16); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if a.Used() != 112 { // 100 aligned up to 16 is 112
		t.Errorf("Used() = %d, want 112", a.Used())
	}
}

func TestArenaExhaustionFails(t *testing.T) {
	a := NewArena(64)
	if err := a.Reserve(64, 16); err != nil {
		t.Fatalf("first reserve should fit exactly: %v", err)
	}
	err := a.Reserve(1, 16)
	if err == nil {
		t.Fatal("expected the second reserve to exhaust the arena")
	}
	ge, ok := AsGraphError(err)
	if !ok || ge.Kind != ErrArenaExhausted {
		t.Fatalf("expected ErrArenaExhausted, got %v", err)
	}
}

func TestArenaResetInvokesDestructorsInReverseOrder(t *testing.T) {
	a := NewArena(4096)
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		if err := a.Reserve(16, 16); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		a.record(func() { order = append(order, i) })
	}

	a.Reset()
	want := []int{2, 1, 0}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
	if a.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", a.Used())
	}
}

func TestArenaConstructPassAccountsBudget(t *testing.T) {
	a := NewArena(passSizeEstimate)
	p, err := a.ConstructPass("gbuffer", 0, nil)
	if err != nil {
		t.Fatalf("ConstructPass: %v", err)
	}
	if p.Name != "gbuffer" {
		t.Errorf("Name = %q, want gbuffer", p.Name)
	}
	if _, err := a.ConstructPass("lighting", 1, nil); err == nil {
		t.Fatal("expected a second pass to exhaust a single-pass-sized arena")
	}
}
