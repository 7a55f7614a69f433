// Command pitwall-feed publishes a synthetic telemetry stream:
// a car driving a circle, with speed, steering and heading channels
// and an occasional camera frame. It is the demo counterpart of
// pitwall-view and a convenient smoke test for the transport.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitwall-engine/pitwall/ppub"
	"github.com/pitwall-engine/pitwall/pwire"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	hostVar := flag.String("host", "", "host to listen on (default 127.0.0.1)")
	portVar := flag.Int("port", 0, "port to listen on (default 1024)")
	intervalVar := flag.Duration("interval", 100*time.Millisecond, "time between frames")
	framesVar := flag.Int("frames", 0, "number of frames to send (0 means until interrupted)")
	cameraVar := flag.Int("camera-every", 10, "attach a synthetic camera frame every n frames (0 disables)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	pub, err := ppub.New(log, ppub.Config{Host: *hostVar, Port: *portVar})
	if err != nil {
		return err
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	t := time.NewTicker(*intervalVar)
	defer t.Stop()

	i := 0
SEND:
	for {
		select {
		case sig := <-exit:
			log.Info("Signal caught", "sig", sig)
			break SEND

		case <-t.C:
			f, err := syntheticFrame(i, *intervalVar, *cameraVar)
			if err != nil {
				return err
			}
			if err := pub.Publish(f); err != nil {
				return err
			}
			i++
			if *framesVar > 0 && i >= *framesVar {
				break SEND
			}
		}
	}

	log.Info("Stopping feed", "frames_sent", i)
	pub.Terminate()
	return pub.Wait()
}

// syntheticFrame produces one telemetry frame for simulation time step i:
// the car drives a 40m circle at roughly 10m/s, with a gentle
// steering oscillation on top.
func syntheticFrame(i int, dt time.Duration, cameraEvery int) (pwire.Frame, error) {
	now := float64(i) * dt.Seconds()

	const radius = 40.0
	angle := now / 4

	speed := 10 + 2*math.Sin(now/2)
	pred := make([]float64, 5)
	for k := range pred {
		pred[k] = 10 + 2*math.Sin((now+float64(k+1)*dt.Seconds())/2)
	}

	f := pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"map": {
				"trajectory": pwire.PointValue(radius*math.Cos(angle), radius*math.Sin(angle)),
			},
			"speed": {
				"speed":      pwire.ScalarValue(speed),
				"speed_pred": pwire.VectorValue(pred),
			},
			"orientation": {
				"yaw": pwire.ScalarValue(math.Mod(angle+math.Pi/2, 2*math.Pi)),
			},
			"steering": {
				"steering": pwire.ScalarValue(0.3 * math.Sin(now)),
			},
		},
	}

	if cameraEvery > 0 && i%cameraEvery == 0 {
		img, err := cameraFrame(i)
		if err != nil {
			return pwire.Frame{}, fmt.Errorf("failed to render camera frame: %w", err)
		}
		f.Image = img
	}

	return f, nil
}

// cameraFrame renders a small moving gradient as a stand-in
// for an onboard camera image.
func cameraFrame(i int) ([]byte, error) {
	const w, h = 64, 48

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{
				R: uint8((x*4 + i) % 256),
				G: uint8((y*5 + i) % 256),
				B: uint8(i % 256),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
