package texture

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// Remap selects how float texels become 8-bit channels.
type Remap int

const (
	// RemapUnit clamps [0,1] values, for masks.
	RemapUnit Remap = iota
	// RemapSigned maps [-1,1] to [0,1], for normals and tangents.
	RemapSigned
	// RemapBounds maps the per-channel min..max of the data to [0,1], for
	// positions.
	RemapBounds
)

// FloatToRGBA converts an RGBA float32 image of width x height to an 8-bit
// image. Alpha is copied as coverage so unwritten texels stay transparent.
func FloatToRGBA(pix []float32, width, height int, remap Remap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	lo, hi := [3]float32{}, [3]float32{1, 1, 1}
	if remap == RemapBounds {
		lo, hi = channelBounds(pix)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			var c [3]uint8
			for ch := 0; ch < 3; ch++ {
				v := pix[i+ch]
				switch remap {
				case RemapSigned:
					v = v*0.5 + 0.5
				case RemapBounds:
					if span := hi[ch] - lo[ch]; span > 0 {
						v = (v - lo[ch]) / span
					} else {
						v = 0
					}
				}
				c[ch] = toByte(v)
			}
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: toByte(pix[i+3])})
		}
	}
	return img
}

// GrayToImage converts a single-channel float image to 8-bit gray.
func GrayToImage(pix []float32, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range pix[:width*height] {
		img.Pix[i] = toByte(v)
	}
	return img
}

// channelBounds returns the per-channel range over texels with nonzero
// alpha.
func channelBounds(pix []float32) (lo, hi [3]float32) {
	for ch := range lo {
		lo[ch], hi[ch] = math32.Inf(1), math32.Inf(-1)
	}
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		for ch := 0; ch < 3; ch++ {
			lo[ch] = min(lo[ch], pix[i+ch])
			hi[ch] = max(hi[ch], pix[i+ch])
		}
	}
	for ch := range lo {
		if lo[ch] > hi[ch] {
			lo[ch], hi[ch] = 0, 0
		}
	}
	return lo, hi
}

func toByte(v float32) uint8 {
	v = math32.Max(0, math32.Min(1, v))
	return uint8(math32.Round(v * 255))
}
