package pcurve

import (
	"fmt"
	"maps"
	"slices"

	"github.com/pitwall-engine/pitwall/pwire"
)

// ValidationError reports a live update
// that did not match its curve's expected shape.
type ValidationError struct {
	Curve  string
	Reason error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid update for curve %q: %v", e.Curve, e.Reason)
}

func (e ValidationError) Unwrap() error { return e.Reason }

// Subplot owns the curve states for one region of the figure.
// All of its curves share one geometry.
type Subplot struct {
	kind   Kind
	curves map[string]*State
}

// NewSubplot returns a subplot with no curves.
func NewSubplot(kind Kind) *Subplot {
	return &Subplot{
		kind:   kind,
		curves: map[string]*State{},
	}
}

func (s *Subplot) Kind() Kind { return s.kind }

// AddCurve registers a new empty curve state under the given id.
func (s *Subplot) AddCurve(id string, role Role) (*State, error) {
	if _, ok := s.curves[id]; ok {
		return nil, fmt.Errorf("a curve named %q already exists", id)
	}

	st := NewState(s.kind, role)
	s.curves[id] = st
	return st, nil
}

// Curve returns the state for the given curve id.
func (s *Subplot) Curve(id string) (*State, bool) {
	st, ok := s.curves[id]
	return st, ok
}

// CurveIDs returns the subplot's curve ids in sorted order.
func (s *Subplot) CurveIDs() []string {
	return slices.Sorted(maps.Keys(s.curves))
}

// ApplyUpdate validates and applies one live update.
// Failures are reported as a [ValidationError]
// and leave every buffer unchanged.
func (s *Subplot) ApplyUpdate(curveID string, v pwire.Value) error {
	st, ok := s.curves[curveID]
	if !ok {
		return ValidationError{Curve: curveID, Reason: fmt.Errorf("no such curve")}
	}
	if err := st.Apply(v); err != nil {
		return ValidationError{Curve: curveID, Reason: err}
	}
	return nil
}
