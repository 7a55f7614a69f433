package pwire

// MessageType is a single byte header indicating the type of message.
type MessageType uint8

const (
	// Keep zero reserved.
	// Not using iota here, to avoid possibility of values changing across the wire.

	// End-of-stream signal; always the last message of a session.
	SentinelMessageType MessageType = 1

	// A plain frame update: one set of concurrent curve updates.
	FrameMessageType MessageType = 2

	// A frame update carrying an encoded camera image alongside.
	FrameWithImageMessageType MessageType = 3
)

// Message is a unit of data sent from publisher to subscriber.
//
// The two implementations are [Sentinel] and [Frame].
type Message interface {
	// Type reports the wire type byte for the message.
	Type() MessageType
}

// Sentinel signals that no more data will be sent.
type Sentinel struct{}

// Type implements [Message].
func (Sentinel) Type() MessageType { return SentinelMessageType }

// Frame is one set of concurrent curve updates,
// representing a single time step of the underlying experiment.
type Frame struct {
	// Updates maps subplot id to curve id to the new data point.
	Updates map[string]map[string]Value `json:"updates"`

	// Image optionally holds an encoded (JPEG or PNG) camera frame
	// captured at the same time step.
	Image []byte `json:"image,omitempty"`
}

// Type implements [Message].
func (f Frame) Type() MessageType {
	if len(f.Image) > 0 {
		return FrameWithImageMessageType
	}
	return FrameMessageType
}

// ValueKind is a single byte tag indicating the shape of a [Value].
type ValueKind uint8

const (
	// Keep zero reserved, same as message types.

	// A single real number.
	ScalarKind ValueKind = 1

	// A 1-D sequence of real numbers.
	VectorKind ValueKind = 2

	// A 2-D row-major array of real numbers.
	MatrixKind ValueKind = 3
)

// Value is a single curve update:
// a scalar for temporal-regular curves,
// a vector for temporal predictions and spatial coordinates,
// or a matrix for spatial predictions.
//
// Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind

	Scalar float64
	Vec    []float64

	// Row-major; all rows must have equal length.
	Mat [][]float64
}

// ScalarValue returns a Value holding a single real number.
func ScalarValue(f float64) Value {
	return Value{Kind: ScalarKind, Scalar: f}
}

// VectorValue returns a Value holding a 1-D sequence.
func VectorValue(v []float64) Value {
	return Value{Kind: VectorKind, Vec: v}
}

// PointValue returns a Value holding a single 2-D coordinate,
// encoded as a length-2 vector.
func PointValue(x, y float64) Value {
	return Value{Kind: VectorKind, Vec: []float64{x, y}}
}

// MatrixValue returns a Value holding a 2-D row-major array.
func MatrixValue(m [][]float64) Value {
	return Value{Kind: MatrixKind, Mat: m}
}
