package addition

// Progress is what a node discloses to a peer that asks "how far along is
// process X, from your point of view". Share is always the share of this
// node's input owed to the caller; SharesSum is only known once this node has reached
// AwaitingPeerSharesSum or Completed.
type Progress struct {
	Share     uint64  `json:"share"`
	SharesSum *uint64 `json:"shares_sum,omitempty"`
}

// ProgressFor builds the Progress a given caller peer is entitled to see.
func ProgressFor(process Process, callerPeerID uint8) (Progress, error) {
	preamble := process.Preamble()
	share, ok := preamble.SharesToSend[callerPeerID]
	if !ok {
		return Progress{}, newError(KindUnauthorized, "caller is not a recognized peer of this process")
	}

	switch p := process.(type) {
	case AwaitingPeerShares:
		return Progress{Share: share}, nil
	case AwaitingPeerSharesSum:
		sum := p.SharesSum
		return Progress{Share: share, SharesSum: &sum}, nil
	case Completed:
		sum := p.SharesSum
		return Progress{Share: share, SharesSum: &sum}, nil
	default:
		return Progress{}, newError(KindUnknown, "unrecognized process state")
	}
}
