package pcurve

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/pitwall-engine/pitwall/pwire"
)

// Kind indicates the geometry of a curve.
type Kind uint8

const (
	// Temporal curves hold one real value per time step.
	Temporal Kind = 1

	// Spatial curves hold one 2-D coordinate per time step.
	Spatial Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Temporal:
		return "temporal"
	case Spatial:
		return "spatial"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Role indicates how a curve's buffer evolves over a session.
type Role uint8

const (
	// Static curves are fixed at creation and never updated live.
	Static Role = 1

	// Regular curves accumulate history, one sample per frame.
	Regular Role = 2

	// Prediction curves hold a rolling forecast window,
	// fully replaced on each update.
	Prediction Role = 3
)

func (r Role) String() string {
	switch r {
	case Static:
		return "static"
	case Regular:
		return "regular"
	case Prediction:
		return "prediction"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// State is the accumulated sample buffer for one curve.
//
// State is not safe for concurrent use;
// all mutation must happen on the single drain/playback goroutine.
type State struct {
	kind Kind
	role Role

	// Temporal sample buffer.
	ys []float64

	// Spatial sample buffer, rows of (x, y).
	pts [][2]float64

	// Expected prediction window length.
	// Zero until the first prediction update fixes it.
	windowLen int
}

// NewState returns an empty curve state.
func NewState(kind Kind, role Role) *State {
	return &State{kind: kind, role: role}
}

func (s *State) Kind() Kind { return s.kind }
func (s *State) Role() Role { return s.role }

// SeedTemporal sets the buffer of a temporal [Static] curve.
func (s *State) SeedTemporal(ys []float64) {
	s.ys = slices.Clone(ys)
}

// SeedSpatial sets the buffer of a spatial [Static] curve.
func (s *State) SeedSpatial(pts [][2]float64) {
	s.pts = slices.Clone(pts)
}

// Temporal returns the temporal sample buffer.
// Callers must not modify the returned slice.
func (s *State) Temporal() []float64 { return s.ys }

// Spatial returns the spatial sample buffer.
// Callers must not modify the returned slice.
func (s *State) Spatial() [][2]float64 { return s.pts }

// Len reports the number of samples currently buffered.
func (s *State) Len() int {
	if s.kind == Temporal {
		return len(s.ys)
	}
	return len(s.pts)
}

type applyKey struct {
	kind Kind
	role Role
}

type applyFunc func(*State, pwire.Value) error

// One validate-and-apply func per (geometry, role) pair.
// Static roles are deliberately absent: a static curve
// never accepts a live update.
var appliers = map[applyKey]applyFunc{
	{Temporal, Regular}:    (*State).applyTemporalRegular,
	{Temporal, Prediction}: (*State).applyTemporalPrediction,
	{Spatial, Regular}:     (*State).applySpatialRegular,
	{Spatial, Prediction}:  (*State).applySpatialPrediction,
}

// Apply validates v against the curve's geometry and role
// and either appends it to or replaces the buffer.
// On error the buffer is unchanged.
func (s *State) Apply(v pwire.Value) error {
	fn, ok := appliers[applyKey{s.kind, s.role}]
	if !ok {
		return fmt.Errorf("%s curve does not accept live updates", s.role)
	}
	return fn(s, v)
}

func (s *State) applyTemporalRegular(v pwire.Value) error {
	if v.Kind != pwire.ScalarKind {
		return fmt.Errorf("expected a scalar, got %s", kindName(v.Kind))
	}
	// Any finite number is accepted.
	if math.IsNaN(v.Scalar) || math.IsInf(v.Scalar, 0) {
		return errors.New("sample is not a finite number")
	}

	s.ys = append(s.ys, v.Scalar)
	return nil
}

func (s *State) applyTemporalPrediction(v pwire.Value) error {
	if v.Kind != pwire.VectorKind {
		return fmt.Errorf("expected a vector, got %s", kindName(v.Kind))
	}
	if len(v.Vec) == 0 {
		return errors.New("prediction window must not be empty")
	}
	if s.windowLen != 0 && len(v.Vec) != s.windowLen {
		return fmt.Errorf("prediction window length changed from %d to %d", s.windowLen, len(v.Vec))
	}

	s.windowLen = len(v.Vec)
	s.ys = slices.Clone(v.Vec)
	return nil
}

func (s *State) applySpatialRegular(v pwire.Value) error {
	if v.Kind != pwire.VectorKind || len(v.Vec) != 2 {
		return fmt.Errorf("expected a 2-element coordinate, got %s", valueShape(v))
	}

	s.pts = append(s.pts, [2]float64{v.Vec[0], v.Vec[1]})
	return nil
}

func (s *State) applySpatialPrediction(v pwire.Value) error {
	if v.Kind != pwire.MatrixKind {
		return fmt.Errorf("expected an (M,2) matrix, got %s", kindName(v.Kind))
	}
	if len(v.Mat) == 0 {
		return errors.New("prediction window must not be empty")
	}
	for _, row := range v.Mat {
		if len(row) != 2 {
			return fmt.Errorf("expected an (M,2) matrix, got %d columns", len(row))
		}
	}
	if s.windowLen != 0 && len(v.Mat) != s.windowLen {
		return fmt.Errorf("prediction window length changed from %d to %d", s.windowLen, len(v.Mat))
	}

	pts := make([][2]float64, len(v.Mat))
	for i, row := range v.Mat {
		pts[i] = [2]float64{row[0], row[1]}
	}
	s.windowLen = len(v.Mat)
	s.pts = pts
	return nil
}

func kindName(k pwire.ValueKind) string {
	switch k {
	case pwire.ScalarKind:
		return "a scalar"
	case pwire.VectorKind:
		return "a vector"
	case pwire.MatrixKind:
		return "a matrix"
	default:
		return fmt.Sprintf("value kind 0x%x", uint8(k))
	}
}

func valueShape(v pwire.Value) string {
	if v.Kind == pwire.VectorKind {
		return fmt.Sprintf("a %d-element vector", len(v.Vec))
	}
	return kindName(v.Kind)
}
