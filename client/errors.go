package client

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout means a pending request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrPeerGone means the targeted peer was evicted before replying.
	ErrPeerGone = errors.New("peer gone")

	// ErrNoPeer means no suitable peer is known for the request.
	ErrNoPeer = errors.New("no peer available")

	// ErrShutdown means the request was aborted by Disconnect.
	ErrShutdown = errors.New("client shut down")

	// ErrNotConnected means the session is not running: Connect has not
	// been called, or Disconnect has ended it.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected means Connect was called on a live session.
	ErrAlreadyConnected = errors.New("already connected")
)

// RequestError wraps a request failure with the peer, data type, and
// layer it concerns.
type RequestError struct {
	NodeID   uint16
	DataType uint8
	Layer    uint8
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request (node %d, data type %d, layer %d): %v", e.NodeID, e.DataType, e.Layer, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
