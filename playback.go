package pitwall

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pitwall-engine/pitwall/pwire"
)

// Playback replays a pre-recorded frame sequence through a viewer,
// one frame per step, with a redraw after each applied frame.
type Playback struct {
	log *slog.Logger

	viewer   *Viewer
	renderer Renderer

	frames []pwire.Frame
	next   int
}

// NewPlayback returns a playback positioned before the first frame.
// It panics if v is not in [ModeDynamic], which is a programming error.
// The playback owns the frames slice;
// the caller must not retain any references to it.
func NewPlayback(log *slog.Logger, v *Viewer, r Renderer, frames []pwire.Frame) *Playback {
	if v.Mode() != ModeDynamic {
		panic(fmt.Errorf("playback requires ModeDynamic, viewer has mode %d", v.Mode()))
	}

	return &Playback{
		log: log,

		viewer:   v,
		renderer: r,

		frames: frames,
	}
}

// Remaining reports how many frames have not been applied yet.
func (p *Playback) Remaining() int {
	return len(p.frames) - p.next
}

// Step applies the next frame and redraws the subplots it changed.
// It reports whether a frame was applied;
// false means the sequence is exhausted.
func (p *Playback) Step() (bool, error) {
	if p.next >= len(p.frames) {
		return false, nil
	}

	f := p.frames[p.next]
	p.next++

	dirty := p.viewer.ApplyFrame(f)
	if len(dirty) > 0 && p.renderer != nil {
		if err := p.renderer.Redraw(p.viewer, dirty); err != nil {
			return true, fmt.Errorf("redraw after frame %d failed: %w", p.next-1, err)
		}
	}
	return true, nil
}

// Run steps through the remaining frames at the given interval,
// stopping early if the context is canceled.
func (p *Playback) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			more, err := p.Step()
			if err != nil {
				return err
			}
			if !more {
				p.log.Info("Playback finished", "frames", len(p.frames))
				return nil
			}
		}
	}
}
