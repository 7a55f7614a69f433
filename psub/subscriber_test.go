package psub_test

import (
	"context"
	"net"
	"testing"

	"github.com/pitwall-engine/pitwall/internal/ptest"
	"github.com/pitwall-engine/pitwall/ppub"
	"github.com/pitwall-engine/pitwall/psub"
	"github.com/pitwall-engine/pitwall/pwire"
	"github.com/stretchr/testify/require"
)

func yawFrame(v float64) pwire.Frame {
	return pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"temporal": {"yaw": pwire.ScalarValue(v)},
		},
	}
}

func TestRoundTrip_orderPreservedAndSentinelLast(t *testing.T) {
	t.Parallel()

	log := ptest.NewLogger(t)

	pub, err := ppub.New(log, ppub.Config{Port: -1})
	require.NoError(t, err)
	defer pub.Terminate()

	sub := psub.New(log, psub.Config{
		Port: pub.Addr().(*net.TCPAddr).Port,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- sub.Run(context.Background())
	}()

	sent := []pwire.Frame{yawFrame(0.1), yawFrame(0.2), yawFrame(0.3)}
	for _, f := range sent {
		require.NoError(t, pub.Publish(f))
	}
	pub.Terminate()

	q := sub.Deliveries()
	for _, want := range sent {
		d, ok := q.Pop(ptest.ScaledTimeout)
		require.True(t, ok)
		require.NoError(t, d.Err)
		require.Equal(t, want, d.Msg)
	}

	// The sentinel is delivered onward unchanged, and is last.
	d, ok := q.Pop(ptest.ScaledTimeout)
	require.True(t, ok)
	require.Equal(t, pwire.Sentinel{}, d.Msg)

	require.NoError(t, ptest.ReceiveSoon(t, runErr))
	require.Zero(t, q.Len())
	require.NoError(t, pub.Wait())
}

func TestSubscriber_decodeFailureDeliversMarker(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// A well-framed payload with an unknown message type.
		_, _ = conn.Write([]byte{0, 0, 0, 1, 0x7f})

		_ = pwire.WriteMessage(conn, pwire.Sentinel{})
	}()

	sub := psub.New(ptest.NewLogger(t), psub.Config{
		Port: ln.Addr().(*net.TCPAddr).Port,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- sub.Run(context.Background())
	}()

	q := sub.Deliveries()

	d, ok := q.Pop(ptest.ScaledTimeout)
	require.True(t, ok)
	require.Error(t, d.Err)
	require.Nil(t, d.Msg)

	d, ok = q.Pop(ptest.ScaledTimeout)
	require.True(t, ok)
	require.Equal(t, pwire.Sentinel{}, d.Msg)

	require.NoError(t, ptest.ReceiveSoon(t, runErr))
}

func TestSubscriber_eofWithoutSentinelStopsCleanly(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sent := yawFrame(1.5)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_ = pwire.WriteMessage(conn, sent)
		_ = conn.Close()
	}()

	sub := psub.New(ptest.NewLogger(t), psub.Config{
		Port: ln.Addr().(*net.TCPAddr).Port,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- sub.Run(context.Background())
	}()

	d, ok := sub.Deliveries().Pop(ptest.ScaledTimeout)
	require.True(t, ok)
	require.Equal(t, sent, d.Msg)

	require.NoError(t, ptest.ReceiveSoon(t, runErr))
}

func TestSubscriber_connectRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	// Reserve a port with nothing listening on it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	sub := psub.New(ptest.NewLogger(t), psub.Config{Port: port})

	ctx, cancel := context.WithCancel(context.Background())

	runErr := make(chan error, 1)
	go func() {
		runErr <- sub.Run(ctx)
	}()

	cancel()
	require.ErrorIs(t, ptest.ReceiveSoon(t, runErr), context.Canceled)
}
