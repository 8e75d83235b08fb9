package scene

import (
	"sync"

	"github.com/Faultbox/midgard-cad/internal/layout"
)

// GridMesh is the base mesh shared by every instance of one draw-set
// shape. Vertices hold normalized cell coordinates; surface meshes are
// indexed triangles, curve meshes (V = 0) a line strip.
type GridMesh struct {
	Shape    layout.Shape
	Vertices []float32 // x, y pairs in [0,1]
	Indices  []uint32
}

// Lines reports whether the mesh is a curve line strip.
func (m *GridMesh) Lines() bool {
	return m.Shape.V == 0
}

func buildGridMesh(shape layout.Shape) *GridMesh {
	m := &GridMesh{Shape: shape}
	nu, nv := int(shape.U), int(shape.V)
	for y := 0; y <= nv; y++ {
		for x := 0; x <= nu; x++ {
			m.Vertices = append(m.Vertices, ratio(x, nu), ratio(y, nv))
		}
	}
	if nv == 0 {
		for x := 0; x <= nu; x++ {
			m.Indices = append(m.Indices, uint32(x))
		}
		return m
	}
	row := uint32(nu + 1)
	for y := 0; y < nv; y++ {
		for x := 0; x < nu; x++ {
			i := uint32(y)*row + uint32(x)
			m.Indices = append(m.Indices, i, i+1, i+row, i+1, i+row+1, i+row)
		}
	}
	return m
}

func ratio(i, n int) float32 {
	if n == 0 {
		return 0
	}
	return float32(i) / float32(n)
}

// MeshCache holds the grid meshes of one render session.
type MeshCache struct {
	meshes map[layout.Shape]*GridMesh
	mu     sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewMeshCache creates an empty cache.
func NewMeshCache() *MeshCache {
	return &MeshCache{
		meshes: make(map[layout.Shape]*GridMesh),
	}
}

// Get returns the mesh for shape, building it on first use.
func (c *MeshCache) Get(shape layout.Shape) *GridMesh {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.meshes[shape]; ok {
		c.hits++
		return m
	}
	c.misses++
	m := buildGridMesh(shape)
	c.meshes[shape] = m
	return m
}

// Len returns the number of cached meshes.
func (c *MeshCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

// Stats returns cache statistics.
func (c *MeshCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
