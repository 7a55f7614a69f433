package pbridge_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-engine/pitwall/internal/ptest"
	"github.com/pitwall-engine/pitwall/pbridge"
	"github.com/pitwall-engine/pitwall/pwire"
)

func newTestBridge(t *testing.T) *pbridge.Bridge {
	t.Helper()

	b, err := pbridge.New(ptest.NewLogger(t), pbridge.Config{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(b.Stop)
	return b
}

func dialFrames(t *testing.T, b *pbridge.Bridge) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+b.Addr().String()+"/frames", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// jsonFrame matches the shape of a scalar-only frame on the feed.
type jsonFrame struct {
	Updates map[string]map[string]float64 `json:"updates"`
}

func yawFrame(v float64) pwire.Frame {
	return pwire.Frame{
		Updates: map[string]map[string]pwire.Value{
			"orientation": {"yaw": pwire.ScalarValue(v)},
		},
	}
}

func TestBridge_streamsPublishedFrames(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t)

	conn := dialFrames(t, b)
	ptest.WaitFor(t, func() bool { return b.Clients() == 1 }, "client to attach")

	b.Publish(yawFrame(0.25))
	b.Publish(yawFrame(0.5))

	var got jsonFrame
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, 0.25, got.Updates["orientation"]["yaw"])

	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, 0.5, got.Updates["orientation"]["yaw"])
}

func TestBridge_fansOutToAllClients(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t)

	c1 := dialFrames(t, b)
	c2 := dialFrames(t, b)
	ptest.WaitFor(t, func() bool { return b.Clients() == 2 }, "both clients to attach")

	b.Publish(yawFrame(1))

	for _, conn := range []*websocket.Conn{c1, c2} {
		var got jsonFrame
		require.NoError(t, conn.ReadJSON(&got))
		require.Equal(t, 1.0, got.Updates["orientation"]["yaw"])
	}
}

func TestBridge_lateClientMissesEarlierFrames(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t)

	b.Publish(yawFrame(1))

	conn := dialFrames(t, b)
	ptest.WaitFor(t, func() bool { return b.Clients() == 1 }, "client to attach")

	b.Publish(yawFrame(2))

	var got jsonFrame
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, 2.0, got.Updates["orientation"]["yaw"])
}

func TestBridge_status(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t)

	dialFrames(t, b)
	ptest.WaitFor(t, func() bool { return b.Clients() == 1 }, "client to attach")

	resp, err := http.Get("http://" + b.Addr().String() + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Clients int `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, 1, status.Clients)
}

func TestBridge_stopDisconnectsClients(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t)

	conn := dialFrames(t, b)
	ptest.WaitFor(t, func() bool { return b.Clients() == 1 }, "client to attach")

	b.Stop()

	var got jsonFrame
	err := conn.ReadJSON(&got)
	require.Error(t, err)
}
