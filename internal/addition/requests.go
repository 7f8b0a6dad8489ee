package addition

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/VGLoic/mpc-exploration/internal/field"
	"github.com/VGLoic/mpc-exploration/internal/sharing"
)

// CreateProcessRequest carries everything the repository needs to bootstrap
// a brand-new process.
type CreateProcessRequest struct {
	ProcessID    uuid.UUID
	Input        uint64
	OwnShare     uint64
	SharesToSend map[uint8]uint64
}

// NewCreateProcessRequest generates a fresh random input, splits it into one
// share per participant (including the local node), and packages the result
// for the repository.
func NewCreateProcessRequest(processID uuid.UUID, serverPeerID uint8, peerIDs []uint8) (CreateProcessRequest, error) {
	input := uint64(uint16(rand.Uint32()))

	allIDs := make([]uint8, 0, len(peerIDs)+1)
	allIDs = append(allIDs, peerIDs...)
	allIDs = append(allIDs, serverPeerID)

	shares := sharing.Split(input, allIDs)
	ownShare, ok := shares[serverPeerID]
	if !ok {
		return CreateProcessRequest{}, wrapError(KindInvariantViolation,
			fmt.Sprintf("own share missing for peer id %d after splitting", serverPeerID), nil)
	}
	delete(shares, serverPeerID)

	return CreateProcessRequest{
		ProcessID:    processID,
		Input:        input,
		OwnShare:     ownShare,
		SharesToSend: shares,
	}, nil
}

// ReceiveSharesRequest carries the merged set of received shares for an
// AwaitingPeerShares process, plus the shares-sum if the merge just
// completed the set.
type ReceiveSharesRequest struct {
	ProcessID          uuid.UUID
	ReceivedShares      map[uint8]uint64
	ComputedSharesSum  *uint64
}

// NewReceiveSharesRequest merges newly received shares into the process's
// current set and, once every peer has contributed, computes the local
// shares-sum. Calling this repeatedly with overlapping or identical input
// is safe: the merge is idempotent and only ever grows the known set.
func NewReceiveSharesRequest(process AwaitingPeerShares, receivedShares map[uint8]uint64, peersCount int) (ReceiveSharesRequest, error) {
	allReceived := make(map[uint8]uint64, len(process.ReceivedShares)+len(receivedShares))
	for peerID, share := range process.ReceivedShares {
		allReceived[peerID] = share
	}
	for peerID, share := range receivedShares {
		allReceived[peerID] = share
	}

	if len(allReceived) < peersCount {
		return ReceiveSharesRequest{
			ProcessID:      process.preamble.ID,
			ReceivedShares: allReceived,
		}, nil
	}

	sum := process.preamble.OwnShare
	for _, share := range allReceived {
		sum = field.Add(sum, share)
	}

	return ReceiveSharesRequest{
		ProcessID:         process.preamble.ID,
		ReceivedShares:     allReceived,
		ComputedSharesSum: &sum,
	}, nil
}

// ReceiveSharesSumsRequest carries the merged set of received shares-sums
// for an AwaitingPeerSharesSum process, plus the reconstructed final sum if
// the merge just completed the set.
type ReceiveSharesSumsRequest struct {
	ProcessID           uuid.UUID
	ReceivedSharesSums  map[uint8]uint64
	FinalSum            *uint64
}

// NewReceiveSharesSumsRequest merges newly received shares-sums into the
// process's current set and, once every peer has contributed, reconstructs
// the final sum by interpolating {(serverPeerID, process.SharesSum)} union
// the received shares-sums and evaluating at zero. It is the node's own
// shares-sum — not its raw input share — that acts as this node's
// coordinate in that final interpolation; the shares-sum is itself a share
// of the final sum at this node's peer id.
func NewReceiveSharesSumsRequest(process AwaitingPeerSharesSum, receivedSharesSums map[uint8]uint64, serverPeerID uint8, peersCount int) (ReceiveSharesSumsRequest, error) {
	allReceived := make(map[uint8]uint64, len(process.ReceivedSharesSums)+len(receivedSharesSums))
	for peerID, sum := range process.ReceivedSharesSums {
		allReceived[peerID] = sum
	}
	for peerID, sum := range receivedSharesSums {
		allReceived[peerID] = sum
	}

	if len(allReceived) < peersCount {
		return ReceiveSharesSumsRequest{
			ProcessID:          process.preamble.ID,
			ReceivedSharesSums: allReceived,
		}, nil
	}

	coordinates := make([]sharing.Share, 0, len(allReceived)+1)
	coordinates = append(coordinates, sharing.Share{Point: serverPeerID, Value: process.SharesSum})
	for peerID, sum := range allReceived {
		coordinates = append(coordinates, sharing.Share{Point: peerID, Value: sum})
	}

	finalSum, err := sharing.Recover(coordinates)
	if err != nil {
		return ReceiveSharesSumsRequest{}, wrapError(KindInvariantViolation, "reconstructing final sum", err)
	}

	return ReceiveSharesSumsRequest{
		ProcessID:          process.preamble.ID,
		ReceivedSharesSums: allReceived,
		FinalSum:           &finalSum,
	}, nil
}

// ApplyReceivedShare fetches processID from repo, merges in a single
// (fromPeerID, value) share and persists the result. It is the shared
// entry point used both by the inbound HTTP handler and by test doubles
// that simulate a peer's repository directly.
func ApplyReceivedShare(repo Repository, processID uuid.UUID, fromPeerID uint8, value uint64) (Process, error) {
	process, err := repo.Get(processID)
	if err != nil {
		return nil, err
	}
	awaiting, ok := process.(AwaitingPeerShares)
	if !ok {
		return nil, newError(KindWrongState, "process is not awaiting peer shares")
	}
	peersCount := len(awaiting.preamble.SharesToSend)
	req, err := NewReceiveSharesRequest(awaiting, map[uint8]uint64{fromPeerID: value}, peersCount)
	if err != nil {
		return nil, err
	}
	return repo.ReceiveShares(req)
}

// ApplyReceivedSharesSum fetches processID from repo, merges in a single
// (fromPeerID, value) shares-sum and persists the result.
func ApplyReceivedSharesSum(repo Repository, processID uuid.UUID, fromPeerID uint8, serverPeerID uint8, value uint64) (Process, error) {
	process, err := repo.Get(processID)
	if err != nil {
		return nil, err
	}
	awaiting, ok := process.(AwaitingPeerSharesSum)
	if !ok {
		return nil, newError(KindWrongState, "process is not awaiting peer shares sums")
	}
	peersCount := len(awaiting.preamble.SharesToSend)
	req, err := NewReceiveSharesSumsRequest(awaiting, map[uint8]uint64{fromPeerID: value}, serverPeerID, peersCount)
	if err != nil {
		return nil, err
	}
	return repo.ReceiveSharesSums(req)
}
