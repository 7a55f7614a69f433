package pitwall

import (
	"fmt"
	"image/color"
	"log/slog"
	"maps"
	"slices"

	"github.com/pitwall-engine/pitwall/pcurve"
	"github.com/pitwall-engine/pitwall/pgrid"
	"github.com/pitwall-engine/pitwall/pwire"
)

// Mode selects how a viewer's curves get their data.
type Mode uint8

const (
	// All data is fixed at subplot creation.
	ModeStatic Mode = iota + 1

	// Pre-recorded frames are replayed through a [Playback].
	ModeDynamic

	// Frames stream in live through a [LiveSession].
	ModeLiveDynamic
)

// CurveStyle selects how a curve is drawn.
type CurveStyle uint8

const (
	StyleLine CurveStyle = iota + 1
	StyleScatter
	StyleStep
	StyleSemilogX
	StyleSemilogY
	StyleLogLog
)

// CurveConfig describes one curve of a subplot.
type CurveConfig struct {
	Role  pcurve.Role
	Style CurveStyle

	// Optional draw color; the renderer picks one if nil.
	Color color.Color

	// Pre-seeded data, required for Static curves
	// (TemporalData for temporal subplots,
	// SpatialData for spatial ones) and ignored otherwise.
	TemporalData []float64
	SpatialData  [][2]float64
}

// SubplotConfig describes one subplot of the figure.
type SubplotConfig struct {
	Name   string
	Region pgrid.Region
	Kind   pcurve.Kind

	// Unit of the plotted values, shown in the title if ShowUnit.
	Unit     string
	ShowUnit bool

	Curves map[string]CurveConfig
}

// ViewerConfig is the configuration for [NewViewer].
type ViewerConfig struct {
	Mode Mode

	// Grid dimensions of the figure.
	Rows, Cols int

	// Seconds per sample for temporal axes.
	// Zero means the axis is the sample index.
	SamplingTime float64
}

// Viewer owns the figure layout and all curve state.
//
// Viewer is not safe for concurrent use: frame application and
// rendering must stay on one goroutine. The transport side never
// touches the viewer; it only feeds the delivery queue.
type Viewer struct {
	log *slog.Logger

	mode         Mode
	grid         *pgrid.Grid
	samplingTime float64

	// Insertion order, for stable rendering.
	names    []string
	subplots map[string]*subplot
}

type subplot struct {
	cfg    SubplotConfig
	curves *pcurve.Subplot
}

// NewViewer returns a viewer with an empty grid.
func NewViewer(log *slog.Logger, cfg ViewerConfig) *Viewer {
	return &Viewer{
		log: log,

		mode:         cfg.Mode,
		grid:         pgrid.New(cfg.Rows, cfg.Cols),
		samplingTime: cfg.SamplingTime,

		subplots: map[string]*subplot{},
	}
}

func (v *Viewer) Mode() Mode            { return v.mode }
func (v *Viewer) Rows() int             { return v.grid.Rows() }
func (v *Viewer) Cols() int             { return v.grid.Cols() }
func (v *Viewer) SamplingTime() float64 { return v.samplingTime }

// AddSubplot registers a subplot on a free rectangular grid region
// and creates its curve states.
// Static curves are seeded from their configured data.
func (v *Viewer) AddSubplot(cfg SubplotConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("subplot name must not be empty")
	}
	if _, ok := v.subplots[cfg.Name]; ok {
		return SubplotExistsError{Name: cfg.Name}
	}
	if cfg.Kind != pcurve.Temporal && cfg.Kind != pcurve.Spatial {
		return fmt.Errorf("subplot %q has unknown kind %v", cfg.Name, cfg.Kind)
	}

	if err := v.grid.Reserve(cfg.Region); err != nil {
		return fmt.Errorf("cannot place subplot %q: %w", cfg.Name, err)
	}

	sp := &subplot{
		cfg:    cfg,
		curves: pcurve.NewSubplot(cfg.Kind),
	}

	for _, curveID := range slices.Sorted(maps.Keys(cfg.Curves)) {
		cc := cfg.Curves[curveID]

		st, err := sp.curves.AddCurve(curveID, cc.Role)
		if err != nil {
			return fmt.Errorf("subplot %q: %w", cfg.Name, err)
		}

		if cc.Role != pcurve.Static {
			continue
		}
		switch cfg.Kind {
		case pcurve.Temporal:
			if cc.TemporalData == nil {
				return fmt.Errorf("static curve %q in subplot %q has no temporal data", curveID, cfg.Name)
			}
			st.SeedTemporal(cc.TemporalData)
		case pcurve.Spatial:
			if cc.SpatialData == nil {
				return fmt.Errorf("static curve %q in subplot %q has no spatial data", curveID, cfg.Name)
			}
			st.SeedSpatial(cc.SpatialData)
		}
	}

	v.names = append(v.names, cfg.Name)
	v.subplots[cfg.Name] = sp
	return nil
}

// SubplotNames returns the registered subplot names in insertion order.
func (v *Viewer) SubplotNames() []string {
	return slices.Clone(v.names)
}

// SubplotConfig returns the configuration a subplot was registered with.
func (v *Viewer) SubplotConfig(name string) (SubplotConfig, bool) {
	sp, ok := v.subplots[name]
	if !ok {
		return SubplotConfig{}, false
	}
	return sp.cfg, true
}

// Curves returns the curve states of a subplot.
func (v *Viewer) Curves(name string) (*pcurve.Subplot, bool) {
	sp, ok := v.subplots[name]
	if !ok {
		return nil, false
	}
	return sp.curves, true
}

// ApplyFrame applies one frame's updates to the curve states.
//
// Per-curve validation failures and references to unknown subplots or
// curves are logged and skipped; the rest of the frame still applies.
// The returned list names the subplots that actually changed,
// in sorted order.
func (v *Viewer) ApplyFrame(f pwire.Frame) []string {
	var dirty []string

	for _, subplotID := range slices.Sorted(maps.Keys(f.Updates)) {
		sp, ok := v.subplots[subplotID]
		if !ok {
			v.log.Warn("Dropping update for unknown subplot", "subplot", subplotID)
			continue
		}

		updated := false
		curves := f.Updates[subplotID]
		for _, curveID := range slices.Sorted(maps.Keys(curves)) {
			if err := sp.curves.ApplyUpdate(curveID, curves[curveID]); err != nil {
				v.log.Warn(
					"Dropping curve update",
					"subplot", subplotID,
					"curve", curveID,
					"err", err,
				)
				continue
			}
			updated = true
		}

		if updated {
			dirty = append(dirty, subplotID)
		}
	}

	return dirty
}
