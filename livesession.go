package pitwall

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"slices"

	// Register the codecs used for camera frame payloads.
	_ "image/jpeg"
	_ "image/png"

	"github.com/pitwall-engine/pitwall/internal/pqueue"
	"github.com/pitwall-engine/pitwall/psub"
	"github.com/pitwall-engine/pitwall/pwire"
)

// LiveSessionConfig is the configuration for [NewLiveSession].
type LiveSessionConfig struct {
	// The subscriber's delivery queue.
	// The session becomes its single consumer.
	Deliveries *pqueue.Queue[psub.Delivery]

	// Optional; nil disables redrawing.
	Renderer Renderer

	// Optional sink for camera frames; nil drops them.
	Images ImageSink
}

// LiveSession drains subscriber deliveries into the viewer's curve
// state, one drain per tick, and requests at most one redraw per
// drain. Once the sentinel is observed the session is stopped for
// good; further ticks are no-ops.
type LiveSession struct {
	log *slog.Logger

	viewer *Viewer

	q        *pqueue.Queue[psub.Delivery]
	renderer Renderer
	images   ImageSink

	stopped bool
}

// NewLiveSession returns a session draining cfg.Deliveries into v.
// It panics if v is not in [ModeLiveDynamic]
// or if cfg.Deliveries is nil, which are programming errors.
func NewLiveSession(log *slog.Logger, v *Viewer, cfg LiveSessionConfig) *LiveSession {
	if v.Mode() != ModeLiveDynamic {
		panic(fmt.Errorf("live session requires ModeLiveDynamic, viewer has mode %d", v.Mode()))
	}
	if cfg.Deliveries == nil {
		panic(fmt.Errorf("LiveSessionConfig.Deliveries must not be nil"))
	}

	return &LiveSession{
		log: log,

		viewer: v,

		q:        cfg.Deliveries,
		renderer: cfg.Renderer,
		images:   cfg.Images,
	}
}

// Stopped reports whether the sentinel has been observed.
func (s *LiveSession) Stopped() bool { return s.stopped }

// Tick drains the deliveries that were queued when the tick started,
// applies them, and requests one redraw covering every subplot that
// changed. Messages arriving mid-drain wait for the next tick,
// so a fast publisher cannot starve the rendering thread.
//
// It reports whether the session is still live.
func (s *LiveSession) Tick() bool {
	if s.stopped {
		return false
	}

	// Bound the drain to what is available right now.
	n := s.q.Len()

	dirty := map[string]struct{}{}
	var imagePayload []byte

	for range n {
		d, ok := s.q.TryPop()
		if !ok {
			break
		}

		if d.Err != nil {
			s.log.Warn("Skipping undecodable message", "err", d.Err)
			continue
		}

		switch m := d.Msg.(type) {
		case pwire.Sentinel:
			s.log.Info("Sentinel observed, stopping live session")
			s.stopped = true

		case pwire.Frame:
			for _, name := range s.viewer.ApplyFrame(m) {
				dirty[name] = struct{}{}
			}
			if len(m.Image) > 0 {
				// Only the newest image of a drain is shown.
				imagePayload = m.Image
			}

		default:
			s.log.Warn("Skipping message of unexpected type", "type", fmt.Sprintf("%T", d.Msg))
		}

		if s.stopped {
			break
		}
	}

	if len(dirty) > 0 && s.renderer != nil {
		names := make([]string, 0, len(dirty))
		for name := range dirty {
			names = append(names, name)
		}
		slices.Sort(names)

		if err := s.renderer.Redraw(s.viewer, names); err != nil {
			// Rendering trouble is not worth killing the session over;
			// the next redraw repaints everything that changed.
			s.log.Error("Redraw failed", "err", err)
		}
	}

	s.showImage(imagePayload)

	return !s.stopped
}

func (s *LiveSession) showImage(payload []byte) {
	if len(payload) == 0 || s.images == nil {
		return
	}

	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		s.log.Warn("Dropping undecodable image payload", "err", err)
		return
	}

	if err := s.images.ShowImage(img); err != nil {
		s.log.Warn("Image sink rejected frame", "format", format, "err", err)
	}
}
