package pitwall

import "image"

// Renderer redraws the figure after curve state changes.
//
// dirty names the subplots whose curves changed since the last
// redraw; an implementation may redraw only those,
// since unchanged subplots are already correct on screen.
type Renderer interface {
	Redraw(v *Viewer, dirty []string) error
}

// ImageSink shows camera frames that arrive alongside curve updates.
type ImageSink interface {
	ShowImage(img image.Image) error
}
