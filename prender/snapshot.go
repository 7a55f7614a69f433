package prender

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/pitwall-engine/pitwall"
)

// SnapshotConfig is the configuration for [NewSnapshot].
type SnapshotConfig struct {
	// Directory the PNG files are written into; created if missing.
	Dir string

	// Figure size. Zero values get reasonable defaults.
	Width, Height vg.Length
}

// Snapshot is a [pitwall.Renderer] that writes one numbered PNG of
// the whole figure per redraw.
//
// The dirty list is ignored: a fresh PNG always repaints everything,
// so the only-redraw-what-changed optimization does not apply here.
type Snapshot struct {
	log *slog.Logger

	dir           string
	width, height vg.Length

	seq int
}

// NewSnapshot returns a snapshot renderer writing into cfg.Dir.
func NewSnapshot(log *slog.Logger, cfg SnapshotConfig) (*Snapshot, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &Snapshot{
		log: log,

		dir:    cfg.Dir,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// Redraw implements [pitwall.Renderer].
func (s *Snapshot) Redraw(v *pitwall.Viewer, dirty []string) error {
	path := filepath.Join(s.dir, fmt.Sprintf("figure_%06d.png", s.seq))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	if err := WritePNG(v, f, s.width, s.height); err != nil {
		return err
	}

	s.seq++
	s.log.Debug("Wrote figure snapshot", "path", path, "dirty", dirty)
	return nil
}

// ImageDir is a [pitwall.ImageSink] that stores each camera frame
// as a numbered PNG file.
type ImageDir struct {
	log *slog.Logger

	dir string
	seq int
}

// NewImageDir returns an image sink writing into dir.
func NewImageDir(log *slog.Logger, dir string) (*ImageDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageDir{log: log, dir: dir}, nil
}

// ShowImage implements [pitwall.ImageSink].
func (d *ImageDir) ShowImage(img image.Image) error {
	path := filepath.Join(d.dir, fmt.Sprintf("camera_%06d.png", d.seq))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	d.seq++
	d.log.Debug("Wrote camera frame", "path", path)
	return nil
}
