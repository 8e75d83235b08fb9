package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

func TestSceneBounds(t *testing.T) {
	boxes := []math.Box3{
		{Min: math.Vec3{X: -1, Y: -1, Z: 0}, Max: math.Vec3{X: 1, Y: 1, Z: 1}},
		{Min: math.Vec3{X: 2, Y: 0, Z: 0}, Max: math.Vec3{X: 3, Y: 4, Z: 2}},
		math.EmptyBox3(),
	}
	box := sceneBounds(boxes)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: 0}, box.Min)
	assert.Equal(t, math.Vec3{X: 3, Y: 4, Z: 2}, box.Max)

	assert.False(t, sceneBounds(nil).Valid())
}

func TestNextSelection(t *testing.T) {
	assert.Equal(t, 0, nextSelection(-1, 3))
	assert.Equal(t, 2, nextSelection(1, 3))
	assert.Equal(t, -1, nextSelection(2, 3))
	assert.Equal(t, -1, nextSelection(-1, 0))
}
