package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageOrder(t *testing.T) {
	src := Stage(CurveFragmentShader, true)
	assert.True(t, strings.HasPrefix(src, Version))
	common := strings.Index(src, "vec4 fetchRec(")
	body := strings.Index(src, "void main()")
	assert.Greater(t, common, 0)
	assert.Greater(t, body, common)

	assert.NotContains(t, Stage(CellVertexShader, false), "fetchRec")
}

func TestSourcesEmbedded(t *testing.T) {
	for name, src := range map[string]string{
		"cell.vert":             CellVertexShader,
		"curve.frag":            CurveFragmentShader,
		"surface_simple.frag":   SurfaceSimpleFragmentShader,
		"surface_compound.frag": SurfaceCompoundFragmentShader,
		"surface_nurbs.frag":    SurfaceNurbsFragmentShader,
		"trim.vert":             TrimVertexShader,
		"trim_fan.frag":         TrimFanFragmentShader,
		"trim_strip.frag":       TrimStripFragmentShader,
		"trim_flatten.frag":     TrimFlattenFragmentShader,
		"quad.vert":             QuadVertexShader,
		"mesh.vert":             MeshVertexShader,
		"mesh.frag":             MeshFragmentShader,
		"line.vert":             LineVertexShader,
		"line.frag":             LineFragmentShader,
	} {
		assert.Contains(t, src, "void main()", name)
		assert.NotContains(t, src, "#version", name)
	}
}
