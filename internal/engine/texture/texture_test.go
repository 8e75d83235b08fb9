package texture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRaster(t *testing.T) {
	require.NoError(t, CheckRaster(2, make([]byte, 2*2*8)))

	err := CheckRaster(2, make([]byte, 10))
	assert.True(t, errors.Is(err, ErrRasterSize))

	err = CheckRaster(0, nil)
	assert.True(t, errors.Is(err, ErrRasterSize))
}

func TestFloatToRGBASigned(t *testing.T) {
	pix := []float32{
		-1, 0, 1, 1,
		0, 0, 0, 0,
	}
	img := FloatToRGBA(pix, 2, 1, RemapSigned)

	c := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(128), c.G)
	assert.Equal(t, uint8(255), c.B)
	assert.Equal(t, uint8(255), c.A)
	assert.Equal(t, uint8(0), img.RGBAAt(1, 0).A)
}

func TestFloatToRGBABoundsIgnoresEmptyTexels(t *testing.T) {
	pix := []float32{
		-5, 2, 0, 1,
		5, 2, 10, 1,
		100, 100, 100, 0,
	}
	img := FloatToRGBA(pix, 3, 1, RemapBounds)

	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), img.RGBAAt(1, 0).R)
	// Constant channel maps to zero.
	assert.Equal(t, uint8(0), img.RGBAAt(1, 0).G)
	assert.Equal(t, uint8(255), img.RGBAAt(1, 0).B)
}

func TestGrayToImageClamps(t *testing.T) {
	img := GrayToImage([]float32{-1, 0.5, 2}, 3, 1)
	assert.Equal(t, []uint8{0, 128, 255}, img.Pix)
}
