package meshcache

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/forgekit/forge/engine/math"
)

func TestWriteReadRoundTrip(t *testing.T) {
	meshes := []CachedMesh{
		{
			Name: "cube",
			Vertices: []math.Vertex3D{
				{Position: math.Vec3{X: 0, Y: 0, Z: 0}},
				{Position: math.Vec3{X: 1, Y: 0, Z: 0}},
				{Position: math.Vec3{X: 0, Y: 1, Z: 0}},
			},
			Indices:             []uint32{0, 1, 2},
			Meshlets:            []Meshlet{{VertexOffset: 0, VertexCount: 3, PrimitiveOffset: 0, PrimitiveCount: 1}},
			UniqueVertexIndices: []uint32{0, 1, 2},
			PrimitiveIndices:    []uint32{0},
		},
		{
			Name:                "empty",
			Vertices:            nil,
			Indices:             nil,
			Meshlets:            nil,
			UniqueVertexIndices: nil,
			PrimitiveIndices:    nil,
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, meshes); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got) != len(meshes) {
		t.Fatalf("got %d meshes, want %d", len(got), len(meshes))
	}
	for i := range meshes {
		if got[i].Name != meshes[i].Name {
			t.Errorf("mesh %d: name = %q, want %q", i, got[i].Name, meshes[i].Name)
		}
		if !reflect.DeepEqual(got[i].Vertices, meshes[i].Vertices) && !(len(got[i].Vertices) == 0 && len(meshes[i].Vertices) == 0) {
			t.Errorf("mesh %d: vertices = %+v, want %+v", i, got[i].Vertices, meshes[i].Vertices)
		}
		if !reflect.DeepEqual(got[i].Indices, meshes[i].Indices) && !(len(got[i].Indices) == 0 && len(meshes[i].Indices) == 0) {
			t.Errorf("mesh %d: indices = %v, want %v", i, got[i].Indices, meshes[i].Indices)
		}
		if !reflect.DeepEqual(got[i].Meshlets, meshes[i].Meshlets) && !(len(got[i].Meshlets) == 0 && len(meshes[i].Meshlets) == 0) {
			t.Errorf("mesh %d: meshlets = %+v, want %+v", i, got[i].Meshlets, meshes[i].Meshlets)
		}
	}
}

func TestReadTruncatedFails(t *testing.T) {
	meshes := []CachedMesh{{Name: "a", Vertices: []math.Vertex3D{{}}, Indices: []uint32{0}}}
	var buf bytes.Buffer
	if err := Write(&buf, meshes); err != nil {
		t.Fatalf("Write: %v", err)
	}

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-4])
	if _, err := Read(truncated); err == nil {
		t.Fatal("Read of truncated cache succeeded, want error")
	}
}

func TestWriteReadEmptyCache(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d meshes, want 0", len(got))
	}
}
