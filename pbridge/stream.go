package pbridge

import "github.com/pitwall-engine/pitwall/pwire"

// node is one link in the frame fan-out list.
// The list has a single writer and one reader per connected client,
// so each client consumes frames at its own pace.
//
// A client that stops reading pins its node and everything after it,
// which is a memory leak; the bridge drops clients on write failure
// to bound that.
type node struct {
	// Closed once frame and next are safe to read.
	ready chan struct{}

	next  *node
	frame pwire.Frame
}

func newNode() *node {
	return &node{ready: make(chan struct{})}
}
