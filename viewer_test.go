package pitwall_test

import (
	"testing"

	"github.com/pitwall-engine/pitwall"
	"github.com/pitwall-engine/pitwall/internal/ptest"
	"github.com/pitwall-engine/pitwall/pcurve"
	"github.com/pitwall-engine/pitwall/pgrid"
	"github.com/pitwall-engine/pitwall/pwire"
	"github.com/stretchr/testify/require"
)

func newLiveViewer(t *testing.T) *pitwall.Viewer {
	t.Helper()

	v := pitwall.NewViewer(ptest.NewLogger(t), pitwall.ViewerConfig{
		Mode: pitwall.ModeLiveDynamic,
		Rows: 2,
		Cols: 2,
	})

	require.NoError(t, v.AddSubplot(pitwall.SubplotConfig{
		Name:   "map",
		Region: pgrid.Region{Row: 0, Col: 0, RowSpan: 2},
		Kind:   pcurve.Spatial,
		Unit:   "m",
		Curves: map[string]pitwall.CurveConfig{
			"cones": {
				Role:        pcurve.Static,
				Style:       pitwall.StyleScatter,
				SpatialData: [][2]float64{{0, 0}, {1, 1}},
			},
			"trajectory":      {Role: pcurve.Regular, Style: pitwall.StyleLine},
			"trajectory_pred": {Role: pcurve.Prediction, Style: pitwall.StyleLine},
		},
	}))
	require.NoError(t, v.AddSubplot(pitwall.SubplotConfig{
		Name:   "orientation",
		Region: pgrid.Region{Row: 0, Col: 1},
		Kind:   pcurve.Temporal,
		Unit:   "rad",
		Curves: map[string]pitwall.CurveConfig{
			"orientation":      {Role: pcurve.Regular, Style: pitwall.StyleLine},
			"orientation_pred": {Role: pcurve.Prediction, Style: pitwall.StyleLine},
		},
	}))
	require.NoError(t, v.AddSubplot(pitwall.SubplotConfig{
		Name:   "steering",
		Region: pgrid.Region{Row: 1, Col: 1},
		Kind:   pcurve.Temporal,
		Unit:   "rad",
		Curves: map[string]pitwall.CurveConfig{
			"steering": {Role: pcurve.Regular, Style: pitwall.StyleStep},
		},
	}))

	return v
}

func TestViewer_addSubplotRejectsDuplicatesAndOverlaps(t *testing.T) {
	t.Parallel()

	v := newLiveViewer(t)

	err := v.AddSubplot(pitwall.SubplotConfig{
		Name:   "map",
		Region: pgrid.Region{Row: 0, Col: 0},
		Kind:   pcurve.Spatial,
	})
	var exists pitwall.SubplotExistsError
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "map", exists.Name)

	// The whole grid is taken by now.
	err = v.AddSubplot(pitwall.SubplotConfig{
		Name:   "extra",
		Region: pgrid.Region{Row: 1, Col: 0},
		Kind:   pcurve.Temporal,
	})
	var overlap pgrid.OverlapError
	require.ErrorAs(t, err, &overlap)
}

func TestViewer_staticCurveRequiresData(t *testing.T) {
	t.Parallel()

	v := pitwall.NewViewer(ptest.NewLogger(t), pitwall.ViewerConfig{
		Mode: pitwall.ModeStatic,
		Rows: 1,
		Cols: 1,
	})

	err := v.AddSubplot(pitwall.SubplotConfig{
		Name:   "speed",
		Region: pgrid.Region{},
		Kind:   pcurve.Temporal,
		Curves: map[string]pitwall.CurveConfig{
			"limit": {Role: pcurve.Static, Style: pitwall.StyleLine},
		},
	})
	require.ErrorContains(t, err, "no temporal data")
}

func TestViewer_applyFrame(t *testing.T) {
	t.Parallel()

	v := newLiveViewer(t)

	dirty := v.ApplyFrame(pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"map": {
				"trajectory":      pwire.PointValue(1, 2),
				"trajectory_pred": pwire.MatrixValue([][]float64{{3, 4}, {5, 6}}),
			},
			"orientation": {
				"orientation": pwire.ScalarValue(0.5),
			},
		},
	})
	require.Equal(t, []string{"map", "orientation"}, dirty)

	mapCurves, ok := v.Curves("map")
	require.True(t, ok)
	traj, ok := mapCurves.Curve("trajectory")
	require.True(t, ok)
	require.Equal(t, [][2]float64{{1, 2}}, traj.Spatial())

	// Static data survived registration.
	cones, ok := mapCurves.Curve("cones")
	require.True(t, ok)
	require.Equal(t, [][2]float64{{0, 0}, {1, 1}}, cones.Spatial())
}

func TestViewer_applyFrame_partialFrameTolerance(t *testing.T) {
	t.Parallel()

	v := newLiveViewer(t)

	// The orientation update is malformed;
	// the steering update in the same frame still applies,
	// and unknown subplots are skipped quietly.
	dirty := v.ApplyFrame(pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"orientation": {
				"orientation": pwire.VectorValue([]float64{1, 2, 3}),
			},
			"steering": {
				"steering": pwire.ScalarValue(-0.25),
			},
			"ghost": {
				"whatever": pwire.ScalarValue(1),
			},
		},
	})
	require.Equal(t, []string{"steering"}, dirty)

	orientationCurves, _ := v.Curves("orientation")
	o, _ := orientationCurves.Curve("orientation")
	require.Empty(t, o.Temporal())

	steeringCurves, _ := v.Curves("steering")
	s, _ := steeringCurves.Curve("steering")
	require.Equal(t, []float64{-0.25}, s.Temporal())
}

func TestViewer_subplotNamesInsertionOrder(t *testing.T) {
	t.Parallel()

	v := newLiveViewer(t)
	require.Equal(t, []string{"map", "orientation", "steering"}, v.SubplotNames())
}
