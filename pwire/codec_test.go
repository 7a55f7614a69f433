package pwire_test

import (
	"testing"

	"github.com/pitwall-engine/pitwall/pwire"
	"github.com/stretchr/testify/require"
)

func TestCodec_roundTrip_sentinel(t *testing.T) {
	t.Parallel()

	payload := pwire.EncodeMessage(pwire.Sentinel{})

	m, err := pwire.DecodeMessage(payload)
	require.NoError(t, err)
	require.Equal(t, pwire.Sentinel{}, m)
}

func TestCodec_roundTrip_frame(t *testing.T) {
	t.Parallel()

	f := pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"map": {
				"trajectory":      pwire.PointValue(1.5, -2.25),
				"trajectory_pred": pwire.MatrixValue([][]float64{{1, 2}, {3, 4}, {5, 6}}),
			},
			"orientation": {
				"orientation":      pwire.ScalarValue(0.125),
				"orientation_pred": pwire.VectorValue([]float64{0.1, 0.2, 0.3}),
			},
		},
	}

	m, err := pwire.DecodeMessage(pwire.EncodeMessage(f))
	require.NoError(t, err)
	require.Equal(t, f, m)
}

func TestCodec_roundTrip_frameWithImage(t *testing.T) {
	t.Parallel()

	f := pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"speed": {"speed": pwire.ScalarValue(31.25)},
		},
		Image: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
	}
	require.Equal(t, pwire.FrameWithImageMessageType, f.Type())

	m, err := pwire.DecodeMessage(pwire.EncodeMessage(f))
	require.NoError(t, err)
	require.Equal(t, f, m)
}

func TestCodec_deterministicEncoding(t *testing.T) {
	t.Parallel()

	f := pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"a": {"x": pwire.ScalarValue(1), "y": pwire.ScalarValue(2)},
			"b": {"z": pwire.ScalarValue(3)},
		},
	}

	first := pwire.EncodeMessage(f)
	for range 8 {
		require.Equal(t, first, pwire.EncodeMessage(f))
	}
}

func TestDecodeMessage_errors(t *testing.T) {
	t.Parallel()

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()

		_, err := pwire.DecodeMessage(nil)
		require.Error(t, err)
	})

	t.Run("unknown message type", func(t *testing.T) {
		t.Parallel()

		_, err := pwire.DecodeMessage([]byte{0x7f})
		require.ErrorContains(t, err, "unknown message type")
	})

	t.Run("sentinel with trailing bytes", func(t *testing.T) {
		t.Parallel()

		payload := append(pwire.EncodeMessage(pwire.Sentinel{}), 0x00)
		_, err := pwire.DecodeMessage(payload)
		require.ErrorContains(t, err, "trailing")
	})

	t.Run("truncated frame", func(t *testing.T) {
		t.Parallel()

		f := pwire.Frame{
			Updates: map[string]map[string]pwire.Value{
				"speed": {"speed": pwire.ScalarValue(12.5)},
			},
		}
		payload := pwire.EncodeMessage(f)

		_, err := pwire.DecodeMessage(payload[:len(payload)-3])
		require.Error(t, err)
	})

	t.Run("frame cut mid-sample", func(t *testing.T) {
		t.Parallel()

		f := pwire.Frame{
			Updates: map[string]map[string]pwire.Value{
				"speed": {"speed": pwire.ScalarValue(0.1)},
			},
		}
		payload := pwire.EncodeMessage(f)

		// A cut anywhere inside the 8 sample bytes must fail loudly;
		// zero-padding the tail would decode to a silently wrong value.
		for cut := 1; cut < 8; cut++ {
			_, err := pwire.DecodeMessage(payload[:len(payload)-cut])
			require.Error(t, err, "payload cut by %d bytes", cut)
		}
	})
}
