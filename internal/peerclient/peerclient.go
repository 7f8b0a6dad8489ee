// Package peerclient provides the abstract capability to call another
// node's peer-facing HTTP endpoints, plus the concrete HTTP implementation
// used in production and a fake used by tests.
package peerclient

import (
	"context"

	"github.com/google/uuid"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// Client is the abstraction the outbox dispatcher and the orchestrator
// consume, so that tests can substitute a deterministic fake instead of
// making real HTTP calls.
type Client interface {
	// NotifyNewProcess tells a peer that a new process has been created
	// locally. Kept for parity with the capability surface a peer client
	// exposes; the current wiring does not call it on the hot path since
	// the fleet-wide CLI already creates the process on every node
	// directly.
	NotifyNewProcess(ctx context.Context, peerID uint8, processID uuid.UUID) error
	// FetchProcessProgress pulls the caller's view of a process from a
	// peer, used by the orchestrator to recover from lost push messages.
	FetchProcessProgress(ctx context.Context, peerID uint8, processID uuid.UUID) (addition.Progress, error)
	// SendShare pushes this node's own share for processID to peerID.
	SendShare(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error
	// SendSharesSum pushes this node's own shares-sum for processID to
	// peerID.
	SendSharesSum(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error
}

// Error marks a failed peer call (non-2xx or an I/O failure), letting
// callers distinguish it from logic errors without parsing strings.
type Error struct {
	PeerID uint8
	msg    string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }
