package pwire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPayloadLen is the largest payload a frame may carry.
// A length prefix beyond this is treated as stream corruption.
const MaxPayloadLen = 1 << 28

// WriteMessage encodes m and writes it to w as a single frame:
// a 4-byte big-endian payload length followed by the payload.
func WriteMessage(w io.Writer, m Message) error {
	payload := EncodeMessage(m)
	if len(payload) > MaxPayloadLen {
		return fmt.Errorf("payload of %d bytes exceeds frame limit %d", len(payload), MaxPayloadLen)
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadPayload reads one frame from r and returns its raw payload.
//
// If the stream ends before a complete length prefix arrives,
// ReadPayload returns [io.EOF]: the remote closed between frames,
// which is the normal end-of-stream condition.
// A stream ending mid-payload is an error.
func ReadPayload(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n > MaxPayloadLen {
		return nil, fmt.Errorf("length prefix %d exceeds frame limit %d", n, MaxPayloadLen)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read %d-byte payload: %w", n, err)
	}
	return payload, nil
}
