package prender

import (
	"image"

	"github.com/fogleman/gg"
)

// DrawCarMarker returns a copy of img with a car glyph drawn at the
// pixel position (x, y), rotated to the given heading in radians
// (zero points right, positive turns counter-clockwise on screen).
// size is the car length in pixels.
//
// Used to mark the vehicle's latest pose on a rendered map subplot.
func DrawCarMarker(img image.Image, x, y, heading, size float64) image.Image {
	dc := gg.NewContextForImage(img)

	halfLen := size / 2
	halfWid := size / 4
	wheelLen := size / 4
	wheelWid := size / 8

	dc.Push()
	dc.Translate(x, y)
	dc.Rotate(-heading)

	// Wheels first, so the body overlaps them.
	dc.SetRGB(0.1, 0.1, 0.1)
	for _, wx := range []float64{-halfLen + wheelLen/2, halfLen - wheelLen/2} {
		for _, wy := range []float64{-halfWid - wheelWid/2, halfWid + wheelWid/2} {
			dc.DrawRectangle(wx-wheelLen/2, wy-wheelWid/2, wheelLen, wheelWid)
			dc.Fill()
		}
	}

	// Body.
	dc.SetRGB(0.8, 0.1, 0.1)
	dc.DrawRoundedRectangle(-halfLen, -halfWid, size, halfWid*2, halfWid/2)
	dc.Fill()

	// Nose, so the heading is visible.
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(halfLen-halfWid/2, 0, halfWid/3)
	dc.Fill()

	dc.Pop()

	return dc.Image()
}
