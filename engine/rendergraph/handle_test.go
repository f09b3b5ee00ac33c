package rendergraph

import "testing"

func TestSlotTableInsertAndGet(t *testing.T) {
	tbl := newSlotTable[string](HandleTexture, 1)
	h := tbl.insert("hello")

	got, err := tbl.get(h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestSlotTableResetInvalidatesHandles(t *testing.T) {
	tbl := newSlotTable[string](HandleTexture, 1)
	h := tbl.insert("frame-1")
	tbl.reset()

	h2 := tbl.insert("frame-2")
	if h2.index != h.index {
		t.Fatalf("expected the reused slot to reuse index %d, got %d", h.index, h2.index)
	}
	if h2.generation == h.generation {
		t.Fatalf("expected generation to change across reset, both were %d", h.generation)
	}

	if _, err := tbl.get(h); err == nil {
		t.Fatal("expected stale handle from before reset to fail to resolve")
	}
	got, err := tbl.get(h2)
	if err != nil {
		t.Fatalf("get(h2): %v", err)
	}
	if got != "frame-2" {
		t.Errorf("got %q, want %q", got, "frame-2")
	}
}

func TestSlotTableHandleFromAnotherGraph(t *testing.T) {
	a := newSlotTable[int](HandleTexture, 1)
	b := newSlotTable[int](HandleTexture, 2)

	h := a.insert(42)
	if _, err := b.get(h); err == nil {
		t.Fatal("expected a handle from graph 1 to fail to resolve against graph 2's table")
	}
}

func TestSlotTableKindMismatch(t *testing.T) {
	textures := newSlotTable[int](HandleTexture, 1)
	views := newSlotTable[int](HandleView, 1)

	h := textures.insert(1)
	if _, err := views.get(h); err == nil {
		t.Fatal("expected a texture handle to fail resolution against a view table")
	}
}

func TestSlotTableOutOfRange(t *testing.T) {
	tbl := newSlotTable[int](HandleTexture, 1)
	bogus := Handle{kind: HandleTexture, index: 99, generation: 1, graphID: 1}
	if _, err := tbl.get(bogus); err == nil {
		t.Fatal("expected out-of-range handle to fail")
	}
}

func TestHandleValid(t *testing.T) {
	var zero Handle
	if zero.Valid() {
		t.Error("zero Handle should not be valid")
	}

	tbl := newSlotTable[int](HandleTexture, 1)
	h := tbl.insert(1)
	if !h.Valid() {
		t.Error("an issued handle should be valid")
	}
}
