// Package outbox implements the reliable-delivery queue sitting between the
// addition domain and the peer client: state transitions enqueue envelopes
// here instead of calling peers directly, and a dispatcher drains the queue
// in the background with retries and an attempt ceiling.
package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// Envelope is the unit of work the outbox carries: a single payload destined
// for a single peer, about a single process.
type Envelope struct {
	PeerID      uint8
	ProcessID   uuid.UUID
	PayloadType addition.PayloadType
	Value       uint64
}

// Item is an Envelope plus the bookkeeping the repository needs to decide
// when it is next due and whether it has been retried too many times.
type Item struct {
	ID          uuid.UUID
	Envelope    Envelope
	CreatedAt   time.Time
	ScheduledAt time.Time
	Attempts    uint8
}

// Repository stores pending envelopes and tracks their retry schedule. It
// mirrors an at-least-once delivery queue: items stay enqueued until a
// caller explicitly dequeues them, whether because they were delivered or
// because they were abandoned.
type Repository interface {
	// Enqueue wraps each envelope in a fresh Item and stores it, then
	// signals the dispatcher that new work is available.
	Enqueue(envelopes []Envelope) ([]Item, error)
	// Dequeue removes items by id, e.g. after a successful send or after
	// abandoning them past the retry ceiling.
	Dequeue(ids []uuid.UUID) ([]Item, error)
	// Reschedule bumps each item's attempt counter and pushes its
	// scheduled time forward by delay.
	Reschedule(ids []uuid.UUID, delay time.Duration) error
	// ReadyToSend returns up to limit items whose scheduled time has
	// passed, oldest first.
	ReadyToSend(limit int) ([]Item, error)
}
