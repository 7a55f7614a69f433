package pwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
)

// EncodeMessage returns the payload bytes for m,
// starting with the message type byte.
//
// Map entries are encoded in sorted key order,
// so that equal frames always encode to equal bytes.
func EncodeMessage(m Message) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(m.Type()))

	f, ok := m.(Frame)
	if !ok {
		// Sentinel has no body.
		return buf.Bytes()
	}

	appendUvarint(&buf, uint64(len(f.Updates)))
	for _, subplotID := range slices.Sorted(maps.Keys(f.Updates)) {
		curves := f.Updates[subplotID]
		appendString(&buf, subplotID)
		appendUvarint(&buf, uint64(len(curves)))
		for _, curveID := range slices.Sorted(maps.Keys(curves)) {
			appendString(&buf, curveID)
			appendValue(&buf, curves[curveID])
		}
	}

	if f.Type() == FrameWithImageMessageType {
		appendUvarint(&buf, uint64(len(f.Image)))
		buf.Write(f.Image)
	}

	return buf.Bytes()
}

// DecodeMessage parses a payload produced by [EncodeMessage].
func DecodeMessage(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	r := bytes.NewReader(payload)
	typeByte, _ := r.ReadByte()

	switch MessageType(typeByte) {
	case SentinelMessageType:
		if r.Len() != 0 {
			return nil, fmt.Errorf("sentinel message carries %d trailing bytes", r.Len())
		}
		return Sentinel{}, nil

	case FrameMessageType, FrameWithImageMessageType:
		f, err := decodeFrame(r, MessageType(typeByte) == FrameWithImageMessageType)
		if err != nil {
			return nil, err
		}
		if r.Len() != 0 {
			return nil, fmt.Errorf("frame message carries %d trailing bytes", r.Len())
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unknown message type 0x%x", typeByte)
	}
}

func decodeFrame(r *bytes.Reader, withImage bool) (Frame, error) {
	nSubplots, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read subplot count: %w", err)
	}

	f := Frame{Updates: make(map[string]map[string]Value, nSubplots)}
	for range nSubplots {
		subplotID, err := readString(r)
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read subplot id: %w", err)
		}

		nCurves, err := binary.ReadUvarint(r)
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read curve count for subplot %q: %w", subplotID, err)
		}

		curves := make(map[string]Value, nCurves)
		for range nCurves {
			curveID, err := readString(r)
			if err != nil {
				return Frame{}, fmt.Errorf("failed to read curve id in subplot %q: %w", subplotID, err)
			}
			v, err := readValue(r)
			if err != nil {
				return Frame{}, fmt.Errorf("failed to read value for curve %q in subplot %q: %w", curveID, subplotID, err)
			}
			curves[curveID] = v
		}
		f.Updates[subplotID] = curves
	}

	if withImage {
		imgLen, err := binary.ReadUvarint(r)
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read image length: %w", err)
		}
		if imgLen > uint64(r.Len()) {
			return Frame{}, fmt.Errorf("image length %d exceeds remaining %d payload bytes", imgLen, r.Len())
		}
		f.Image = make([]byte, imgLen)
		if _, err := io.ReadFull(r, f.Image); err != nil {
			return Frame{}, fmt.Errorf("failed to read image bytes: %w", err)
		}
	}

	return f, nil
}

func appendValue(buf *bytes.Buffer, v Value) {
	buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case ScalarKind:
		appendFloat(buf, v.Scalar)
	case VectorKind:
		appendUvarint(buf, uint64(len(v.Vec)))
		for _, f := range v.Vec {
			appendFloat(buf, f)
		}
	case MatrixKind:
		cols := 0
		if len(v.Mat) > 0 {
			cols = len(v.Mat[0])
		}
		appendUvarint(buf, uint64(len(v.Mat)))
		appendUvarint(buf, uint64(cols))
		for _, row := range v.Mat {
			for _, f := range row {
				appendFloat(buf, f)
			}
		}
	default:
		panic(fmt.Errorf("BUG: cannot encode value of kind 0x%x", v.Kind))
	}
}

func readValue(r *bytes.Reader) (Value, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Value{}, fmt.Errorf("failed to read value kind: %w", err)
	}

	switch ValueKind(kindByte) {
	case ScalarKind:
		f, err := readFloat(r)
		if err != nil {
			return Value{}, err
		}
		return ScalarValue(f), nil

	case VectorKind:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, fmt.Errorf("failed to read vector length: %w", err)
		}
		if n > uint64(r.Len()) || n*8 > uint64(r.Len()) {
			return Value{}, fmt.Errorf("vector length %d exceeds remaining payload", n)
		}
		vec := make([]float64, n)
		for i := range vec {
			if vec[i], err = readFloat(r); err != nil {
				return Value{}, err
			}
		}
		return VectorValue(vec), nil

	case MatrixKind:
		rows, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, fmt.Errorf("failed to read matrix row count: %w", err)
		}
		cols, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, fmt.Errorf("failed to read matrix column count: %w", err)
		}
		if rows > uint64(r.Len()) || cols > uint64(r.Len()) || rows*cols*8 > uint64(r.Len()) {
			return Value{}, fmt.Errorf("matrix shape (%d,%d) exceeds remaining payload", rows, cols)
		}
		mat := make([][]float64, rows)
		for i := range mat {
			mat[i] = make([]float64, cols)
			for j := range mat[i] {
				if mat[i][j], err = readFloat(r); err != nil {
					return Value{}, err
				}
			}
		}
		return MatrixValue(mat), nil

	default:
		return Value{}, fmt.Errorf("unknown value kind 0x%x", kindByte)
	}
}

func appendUvarint(buf *bytes.Buffer, u uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], u)
	buf.Write(tmp[:n])
}

func appendString(buf *bytes.Buffer, s string) {
	appendUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}
	if n > uint64(r.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining %d payload bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to read string bytes: %w", err)
	}
	return string(b), nil
}

func appendFloat(buf *bytes.Buffer, f float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(f))
	buf.Write(tmp[:])
}

func readFloat(r *bytes.Reader) (float64, error) {
	var tmp [8]byte
	// ReadFull, not Read: a short read here must be a decode error,
	// never a zero-padded wrong value.
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, fmt.Errorf("failed to read float bytes: %w", err)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(tmp[:])), nil
}
