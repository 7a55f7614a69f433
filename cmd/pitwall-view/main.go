// Command pitwall-view subscribes to a telemetry feed and renders it:
// figures go to a snapshot directory, camera frames optionally to
// another, and the stream can additionally be recorded to sqlite or
// re-served to browsers over a websocket bridge.
//
// Its subplot layout matches the synthetic stream of pitwall-feed.
package main

import (
	"context"
	"errors"
	"flag"
	"image/color"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/pitwall-engine/pitwall"
	"github.com/pitwall-engine/pitwall/internal/pqueue"
	"github.com/pitwall-engine/pitwall/pbridge"
	"github.com/pitwall-engine/pitwall/pcurve"
	"github.com/pitwall-engine/pitwall/pgrid"
	"github.com/pitwall-engine/pitwall/precord"
	"github.com/pitwall-engine/pitwall/prender"
	"github.com/pitwall-engine/pitwall/psub"
	"github.com/pitwall-engine/pitwall/pwire"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	hostVar := flag.String("host", "", "publisher host (default 127.0.0.1)")
	portVar := flag.Int("port", 0, "publisher port (default 1024)")
	outVar := flag.String("out", "figures", "directory for rendered figures")
	imagesVar := flag.String("images", "", "directory for camera frames (empty discards them)")
	tickVar := flag.Duration("tick", 100*time.Millisecond, "redraw interval")
	widthVar := flag.Float64("width", 10, "figure width in inches")
	heightVar := flag.Float64("height", 6, "figure height in inches")
	recordVar := flag.String("record", "", "sqlite database to record the session into (empty disables)")
	nameVar := flag.String("session", "live", "session name used when recording")
	bridgeVar := flag.String("bridge", "", "listen address for the browser bridge (empty disables)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v, err := buildViewer(log, tickVar.Seconds())
	if err != nil {
		return err
	}

	snap, err := prender.NewSnapshot(log, prender.SnapshotConfig{
		Dir:    *outVar,
		Width:  vg.Length(*widthVar) * vg.Inch,
		Height: vg.Length(*heightVar) * vg.Inch,
	})
	if err != nil {
		return err
	}

	var images pitwall.ImageSink
	if *imagesVar != "" {
		images, err = prender.NewImageDir(log, *imagesVar)
		if err != nil {
			return err
		}
	}

	var sess *precord.Session
	if *recordVar != "" {
		store, err := precord.Open(log, *recordVar)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err = store.Begin(ctx, *nameVar)
		if err != nil {
			return err
		}
	}

	var bridge *pbridge.Bridge
	if *bridgeVar != "" {
		bridge, err = pbridge.New(log, pbridge.Config{Addr: *bridgeVar})
		if err != nil {
			return err
		}
		defer bridge.Stop()
	}

	sub := psub.New(log, psub.Config{Host: *hostVar, Port: *portVar})
	sessQ := pqueue.New[psub.Delivery]()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Subscriber failed", "err", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pump(ctx, log, sub.Deliveries(), sessQ, sess, bridge)
	}()

	session := pitwall.NewLiveSession(log, v, pitwall.LiveSessionConfig{
		Deliveries: sessQ,
		Renderer:   snap,
		Images:     images,
	})

	t := time.NewTicker(*tickVar)
	defer t.Stop()

TICK:
	for {
		select {
		case <-ctx.Done():
			break TICK
		case <-t.C:
			if !session.Tick() {
				log.Info("Live session ended")
				break TICK
			}
		}
	}

	cancel()
	wg.Wait()
	return nil
}

// pump forwards subscriber deliveries to the live session's queue,
// recording and bridging them on the way through.
func pump(
	ctx context.Context,
	log *slog.Logger,
	in, out *pqueue.Queue[psub.Delivery],
	sess *precord.Session,
	bridge *pbridge.Bridge,
) {
	for {
		d, ok := in.Pop(100 * time.Millisecond)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if d.Err == nil {
			if sess != nil {
				if err := sess.Record(ctx, d.Msg); err != nil {
					log.Error("Failed to record message", "err", err)
				}
			}
			if bridge != nil {
				if f, isFrame := d.Msg.(pwire.Frame); isFrame {
					bridge.Publish(f)
				}
			}
		}

		out.Push(d)

		if _, stopped := d.Msg.(pwire.Sentinel); stopped {
			return
		}
	}
}

// buildViewer lays out the demo figure:
// the track map on the left, speed, heading and steering
// stacked on the right.
func buildViewer(log *slog.Logger, samplingTime float64) (*pitwall.Viewer, error) {
	v := pitwall.NewViewer(log, pitwall.ViewerConfig{
		Mode:         pitwall.ModeLiveDynamic,
		Rows:         3,
		Cols:         2,
		SamplingTime: samplingTime,
	})

	subplots := []pitwall.SubplotConfig{
		{
			Name:     "map",
			Region:   pgrid.Region{Row: 0, Col: 0, RowSpan: 3},
			Kind:     pcurve.Spatial,
			Unit:     "m",
			ShowUnit: true,
			Curves: map[string]pitwall.CurveConfig{
				"cones": {
					Role:        pcurve.Static,
					Style:       pitwall.StyleScatter,
					Color:       color.Gray{Y: 128},
					SpatialData: trackCones(),
				},
				"trajectory": {Role: pcurve.Regular, Style: pitwall.StyleLine},
			},
		},
		{
			Name:   "speed",
			Region: pgrid.Region{Row: 0, Col: 1},
			Kind:   pcurve.Temporal,
			Unit:   "m/s",
			Curves: map[string]pitwall.CurveConfig{
				"speed":      {Role: pcurve.Regular, Style: pitwall.StyleLine},
				"speed_pred": {Role: pcurve.Prediction, Style: pitwall.StyleLine},
			},
		},
		{
			Name:   "orientation",
			Region: pgrid.Region{Row: 1, Col: 1},
			Kind:   pcurve.Temporal,
			Unit:   "rad",
			Curves: map[string]pitwall.CurveConfig{
				"yaw": {Role: pcurve.Regular, Style: pitwall.StyleLine},
			},
		},
		{
			Name:   "steering",
			Region: pgrid.Region{Row: 2, Col: 1},
			Kind:   pcurve.Temporal,
			Unit:   "rad",
			Curves: map[string]pitwall.CurveConfig{
				"steering": {Role: pcurve.Regular, Style: pitwall.StyleStep},
			},
		},
	}

	for _, cfg := range subplots {
		if err := v.AddSubplot(cfg); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// trackCones marks the demo circuit: two rings of cones
// around the 40m circle pitwall-feed drives.
func trackCones() [][2]float64 {
	const n = 24
	cones := make([][2]float64, 0, 2*n)
	for i := range n {
		angle := 2 * math.Pi * float64(i) / n
		cones = append(cones,
			[2]float64{36 * math.Cos(angle), 36 * math.Sin(angle)},
			[2]float64{44 * math.Cos(angle), 44 * math.Sin(angle)},
		)
	}
	return cones
}
