package peerclient

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// Fake is a deterministic, in-process Client used by tests that need to
// simulate a fleet of peers without opening real sockets, or to inject
// failures (e.g. a dropped envelope) that would be impractical to trigger
// over a real network.
//
// A Fake stands in for the outbound client of exactly one node, identified
// by CallerPeerID: every call it makes is "as if" that node were the one
// making it, which is what lets the receiving peer's repository apply the
// share under the right coordinate.
type Fake struct {
	// CallerPeerID is the peer id this Fake authenticates as when pushing
	// or pulling against the peers in Peers.
	CallerPeerID uint8

	// Peers maps a peer id to the repository that peer would be serving
	// behind its HTTP surface. Tests wire this up to the other simulated
	// nodes' repositories.
	Peers map[uint8]addition.Repository

	// DropFirstN, if set, makes every SendShare/SendSharesSum call to any
	// peer fail with a transport error for the first N attempts against a
	// given (peer, process) pair, modelling a lossy dispatcher.
	DropFirstN int

	mu       sync.Mutex
	attempts map[fakeAttemptKey]int
}

type fakeAttemptKey struct {
	peerID    uint8
	processID uuid.UUID
}

// NewFake builds an empty Fake speaking as callerPeerID; populate Peers
// before use.
func NewFake(callerPeerID uint8) *Fake {
	return &Fake{
		CallerPeerID: callerPeerID,
		Peers:        make(map[uint8]addition.Repository),
		attempts:     make(map[fakeAttemptKey]int),
	}
}

func (f *Fake) shouldDrop(peerID uint8, processID uuid.UUID) bool {
	if f.DropFirstN <= 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fakeAttemptKey{peerID: peerID, processID: processID}
	f.attempts[key]++
	return f.attempts[key] <= f.DropFirstN
}

func (f *Fake) repoFor(peerID uint8) (addition.Repository, error) {
	repo, ok := f.Peers[peerID]
	if !ok {
		return nil, &Error{PeerID: peerID, msg: "unknown peer id"}
	}
	return repo, nil
}

func (f *Fake) NotifyNewProcess(ctx context.Context, peerID uint8, processID uuid.UUID) error {
	_, err := f.repoFor(peerID)
	return err
}

func (f *Fake) FetchProcessProgress(ctx context.Context, peerID uint8, processID uuid.UUID) (addition.Progress, error) {
	repo, err := f.repoFor(peerID)
	if err != nil {
		return addition.Progress{}, err
	}
	process, err := repo.Get(processID)
	if err != nil {
		return addition.Progress{}, &Error{PeerID: peerID, msg: "process not found on peer", err: err}
	}
	progress, err := addition.ProgressFor(process, f.CallerPeerID)
	if err != nil {
		return addition.Progress{}, &Error{PeerID: peerID, msg: "peer rejected progress request", err: err}
	}
	return progress, nil
}

func (f *Fake) SendShare(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	if f.shouldDrop(peerID, processID) {
		return &Error{PeerID: peerID, msg: "simulated drop"}
	}
	repo, err := f.repoFor(peerID)
	if err != nil {
		return err
	}
	if _, err := addition.ApplyReceivedShare(repo, processID, f.CallerPeerID, value); err != nil {
		return &Error{PeerID: peerID, msg: "applying share", err: err}
	}
	return nil
}

func (f *Fake) SendSharesSum(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	if f.shouldDrop(peerID, processID) {
		return &Error{PeerID: peerID, msg: "simulated drop"}
	}
	repo, err := f.repoFor(peerID)
	if err != nil {
		return err
	}
	if _, err := addition.ApplyReceivedSharesSum(repo, processID, f.CallerPeerID, peerID, value); err != nil {
		return &Error{PeerID: peerID, msg: "applying shares sum", err: err}
	}
	return nil
}
