package pwire

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the value as its natural JSON shape:
// a number for scalars, an array for vectors,
// and an array of arrays for matrices.
//
// This is the representation served to browser viewers;
// it is not used on the TCP wire.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ScalarKind:
		return json.Marshal(v.Scalar)
	case VectorKind:
		return json.Marshal(v.Vec)
	case MatrixKind:
		return json.Marshal(v.Mat)
	default:
		return nil, fmt.Errorf("cannot marshal value of kind 0x%x", v.Kind)
	}
}
