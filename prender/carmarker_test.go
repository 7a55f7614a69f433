package prender_test

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pitwall-engine/pitwall/prender"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestDrawCarMarker(t *testing.T) {
	t.Parallel()

	base := testImage(100, 100)

	out := prender.DrawCarMarker(base, 50, 50, math.Pi/4, 20)
	require.Equal(t, base.Bounds(), out.Bounds())

	// The body is drawn over the marker position.
	r, g, b, _ := out.At(50, 50).RGBA()
	white := uint32(0xffff)
	require.True(t, r != white || g != white || b != white,
		"expected the car body to cover the marker position")

	// The source image is untouched.
	r, g, b, _ = base.At(50, 50).RGBA()
	require.Equal(t, []uint32{white, white, white}, []uint32{r, g, b})
}
