// Package addition implements the per-process state machine of the additive
// MPC summation protocol: process creation, share/shares-sum reception, the
// in-memory repository that owns process state, and the pull-based
// orchestrator that keeps stuck processes converging.
package addition

import "github.com/google/uuid"

// Peer identifies a remote participant of the protocol.
type Peer struct {
	ID  uint8
	URL string
}

// Preamble holds the fields common to every state of an AdditionProcess.
type Preamble struct {
	ID           uuid.UUID
	Input        uint64
	OwnShare     uint64
	SharesToSend map[uint8]uint64
}

// Process is a tagged union over the three states an addition process can be
// in. Each concrete type only exposes the fields meaningful in its state,
// so a transition function that takes e.g. an AwaitingPeerShares value can
// only return an AwaitingPeerShares or an AwaitingPeerSharesSum — never back
// to a prior state, and never fabricate a Completed out of thin air.
type Process interface {
	Preamble() Preamble
	process()
}

// AwaitingPeerShares is the initial state: the process is still collecting
// input shares from the other peers.
type AwaitingPeerShares struct {
	preamble       Preamble
	ReceivedShares map[uint8]uint64
}

func (p AwaitingPeerShares) Preamble() Preamble { return p.preamble }
func (AwaitingPeerShares) process()             {}

// AwaitingPeerSharesSum is reached once the local shares-sum has been
// computed; the process now collects peer shares-sums.
type AwaitingPeerSharesSum struct {
	preamble           Preamble
	ReceivedShares     map[uint8]uint64
	SharesSum          uint64
	ReceivedSharesSums map[uint8]uint64
}

func (p AwaitingPeerSharesSum) Preamble() Preamble { return p.preamble }
func (AwaitingPeerSharesSum) process()             {}

// Completed is the terminal state: the final sum has been reconstructed.
type Completed struct {
	preamble           Preamble
	ReceivedShares     map[uint8]uint64
	SharesSum          uint64
	ReceivedSharesSums map[uint8]uint64
	FinalSum           uint64
}

func (p Completed) Preamble() Preamble { return p.preamble }
func (Completed) process()             {}
