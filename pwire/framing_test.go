package pwire_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/pitwall-engine/pitwall/pwire"
	"github.com/stretchr/testify/require"
)

func TestFraming_roundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"temporal": {"yaw": pwire.ScalarValue(0.1)},
		},
	}
	require.NoError(t, pwire.WriteMessage(&buf, f))
	require.NoError(t, pwire.WriteMessage(&buf, pwire.Sentinel{}))

	payload, err := pwire.ReadPayload(&buf)
	require.NoError(t, err)
	m, err := pwire.DecodeMessage(payload)
	require.NoError(t, err)
	require.Equal(t, f, m)

	payload, err = pwire.ReadPayload(&buf)
	require.NoError(t, err)
	m, err = pwire.DecodeMessage(payload)
	require.NoError(t, err)
	require.Equal(t, pwire.Sentinel{}, m)

	// Nothing further on the stream.
	_, err = pwire.ReadPayload(&buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadPayload_eofMidPrefix(t *testing.T) {
	t.Parallel()

	// Two bytes of a four-byte prefix:
	// the remote closed between frames, so this is a clean EOF.
	r := bytes.NewReader([]byte{0x00, 0x00})

	_, err := pwire.ReadPayload(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadPayload_truncatedPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, pwire.WriteMessage(&buf, pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"map": {"trajectory": pwire.PointValue(1, 2)},
		},
	}))

	full := buf.Bytes()
	_, err := pwire.ReadPayload(bytes.NewReader(full[:len(full)-1]))
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestReadPayload_oversizedPrefix(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})

	_, err := pwire.ReadPayload(r)
	require.ErrorContains(t, err, "frame limit")
}
