// Package meshcache reads and writes the engine's binary mesh/texture
// cache format: a little-endian container of one or more meshes, each
// carrying its vertex/index buffers plus the meshlet tables a
// mesh-shading pipeline needs, pre-baked so the graph's geometry
// passes never have to build them at load time.
package meshcache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/forgekit/forge/engine/math"
)

// Meshlet mirrors the standard mesh-shader meshlet record: an offset
// and count into the cache's shared vertex-index and primitive-index
// tables, rather than owning its own copies.
type Meshlet struct {
	VertexOffset    uint32
	VertexCount     uint32
	PrimitiveOffset uint32
	PrimitiveCount  uint32
}

// meshHeader is the fixed five-uint64 record preceding each mesh's
// variable-length buffers.
type meshHeader struct {
	VertexCount            uint64
	IndexCount             uint64
	MeshletCount           uint64
	UniqueVertexIndexCount uint64
	PrimitiveIndexCount    uint64
}

// CachedMesh is one mesh entry: its buffers plus the name it was
// cached under.
type CachedMesh struct {
	Name                string
	Vertices            []math.Vertex3D
	Indices             []uint32
	Meshlets            []Meshlet
	UniqueVertexIndices []uint32
	PrimitiveIndices    []uint32
}

// Write serialises meshes to w in the cache's wire format: a u64 mesh
// count, then per mesh a length-prefixed name, the fixed header, and
// the five variable-length buffers in header order.
func Write(w io.Writer, meshes []CachedMesh) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(meshes))); err != nil {
		return fmt.Errorf("meshcache: write mesh count: %w", err)
	}

	for _, m := range meshes {
		if err := writeString(bw, m.Name); err != nil {
			return fmt.Errorf("meshcache: write name %q: %w", m.Name, err)
		}

		header := meshHeader{
			VertexCount:            uint64(len(m.Vertices)),
			IndexCount:             uint64(len(m.Indices)),
			MeshletCount:           uint64(len(m.Meshlets)),
			UniqueVertexIndexCount: uint64(len(m.UniqueVertexIndices)),
			PrimitiveIndexCount:    uint64(len(m.PrimitiveIndices)),
		}
		if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
			return fmt.Errorf("meshcache: write header for %q: %w", m.Name, err)
		}

		if err := binary.Write(bw, binary.LittleEndian, m.Vertices); err != nil {
			return fmt.Errorf("meshcache: write vertices for %q: %w", m.Name, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, m.Indices); err != nil {
			return fmt.Errorf("meshcache: write indices for %q: %w", m.Name, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, m.Meshlets); err != nil {
			return fmt.Errorf("meshcache: write meshlets for %q: %w", m.Name, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, m.UniqueVertexIndices); err != nil {
			return fmt.Errorf("meshcache: write unique vertex indices for %q: %w", m.Name, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, m.PrimitiveIndices); err != nil {
			return fmt.Errorf("meshcache: write primitive indices for %q: %w", m.Name, err)
		}
	}

	return bw.Flush()
}

// Read deserialises the wire format Write produces.
func Read(r io.Reader) ([]CachedMesh, error) {
	br := bufio.NewReader(r)

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("meshcache: read mesh count: %w", err)
	}

	meshes := make([]CachedMesh, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("meshcache: read name for mesh %d: %w", i, err)
		}

		var header meshHeader
		if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
			return nil, fmt.Errorf("meshcache: read header for %q: %w", name, err)
		}

		m := CachedMesh{
			Name:                name,
			Vertices:            make([]math.Vertex3D, header.VertexCount),
			Indices:             make([]uint32, header.IndexCount),
			Meshlets:            make([]Meshlet, header.MeshletCount),
			UniqueVertexIndices: make([]uint32, header.UniqueVertexIndexCount),
			PrimitiveIndices:    make([]uint32, header.PrimitiveIndexCount),
		}

		if err := binary.Read(br, binary.LittleEndian, m.Vertices); err != nil {
			return nil, fmt.Errorf("meshcache: read vertices for %q: %w", name, err)
		}
		if err := binary.Read(br, binary.LittleEndian, m.Indices); err != nil {
			return nil, fmt.Errorf("meshcache: read indices for %q: %w", name, err)
		}
		if err := binary.Read(br, binary.LittleEndian, m.Meshlets); err != nil {
			return nil, fmt.Errorf("meshcache: read meshlets for %q: %w", name, err)
		}
		if err := binary.Read(br, binary.LittleEndian, m.UniqueVertexIndices); err != nil {
			return nil, fmt.Errorf("meshcache: read unique vertex indices for %q: %w", name, err)
		}
		if err := binary.Read(br, binary.LittleEndian, m.PrimitiveIndices); err != nil {
			return nil, fmt.Errorf("meshcache: read primitive indices for %q: %w", name, err)
		}

		meshes = append(meshes, m)
	}

	return meshes, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
