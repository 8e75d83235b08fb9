// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// Version is prepended to every stage.
const Version = "#version 410 core\n"

// Common holds record access and the curve and NURBS evaluators shared by
// the evaluation fragment shaders.
//
//go:embed common.glsl
var Common string

// CellVertexShader draws one instanced quad per atlas cell.
//
//go:embed cell.vert
var CellVertexShader string

// CurveFragmentShader evaluates curve positions and tangents.
//
//go:embed curve.frag
var CurveFragmentShader string

// SurfaceSimpleFragmentShader evaluates the closed-form surfaces.
//
//go:embed surface_simple.frag
var SurfaceSimpleFragmentShader string

// SurfaceCompoundFragmentShader evaluates extruded, revolved and offset
// surfaces from their swept curve.
//
//go:embed surface_compound.frag
var SurfaceCompoundFragmentShader string

// SurfaceNurbsFragmentShader evaluates NURBS surfaces.
//
//go:embed surface_nurbs.frag
var SurfaceNurbsFragmentShader string

// TrimVertexShader places trim fan triangles and boundary strips.
//
//go:embed trim.vert
var TrimVertexShader string

// TrimFanFragmentShader counts fan coverage.
//
//go:embed trim_fan.frag
var TrimFanFragmentShader string

// TrimStripFragmentShader writes the boundary gradient.
//
//go:embed trim_strip.frag
var TrimStripFragmentShader string

// QuadVertexShader covers the viewport.
//
//go:embed quad.vert
var QuadVertexShader string

// TrimFlattenFragmentShader turns fan counts into parity.
//
//go:embed trim_flatten.frag
var TrimFlattenFragmentShader string

// MeshVertexShader places draw-set grid instances on the surface atlas.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader applies the trim test and shades surfaces.
//
//go:embed mesh.frag
var MeshFragmentShader string

// LineVertexShader places curve line strips on the curve atlas.
//
//go:embed line.vert
var LineVertexShader string

// LineFragmentShader draws curves in a flat color.
//
//go:embed line.frag
var LineFragmentShader string

// Stage returns a compilable stage: the version line, then the common
// source when withCommon is set, then src.
func Stage(src string, withCommon bool) string {
	if withCommon {
		return Version + Common + "\n" + src
	}
	return Version + src
}
