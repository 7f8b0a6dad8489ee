package addition

import (
	"sync"

	"github.com/google/uuid"
)

// Repository owns every AdditionProcess in the node. All operations are
// linearizable with respect to a single process id; get/list take a read
// lock, every mutation takes a write lock for the whole map (contention is
// low, the HTTP handlers and the orchestrator are the only frequent callers).
type Repository interface {
	Get(id uuid.UUID) (Process, error)
	ListOngoing() ([]Process, error)
	Create(req CreateProcessRequest) (Process, error)
	ReceiveShares(req ReceiveSharesRequest) (Process, error)
	ReceiveSharesSums(req ReceiveSharesSumsRequest) (Process, error)
	Delete(id uuid.UUID) error
}

// InMemoryRepository is the only Repository implementation: process state
// is not meant to survive a restart (see Non-goals).
type InMemoryRepository struct {
	mu        sync.RWMutex
	processes map[uuid.UUID]Process
}

// NewInMemoryRepository builds an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		processes: make(map[uuid.UUID]Process),
	}
}

func (r *InMemoryRepository) Get(id uuid.UUID) (Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processes[id]
	if !ok {
		return nil, newError(KindNotFound, "process not found")
	}
	return p, nil
}

func (r *InMemoryRepository) ListOngoing() ([]Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ongoing := make([]Process, 0, len(r.processes))
	for _, p := range r.processes {
		if _, done := p.(Completed); done {
			continue
		}
		ongoing = append(ongoing, p)
	}
	return ongoing, nil
}

// Create inserts a brand-new process. If a process already exists under
// this id, it is returned unchanged rather than overwritten or rejected:
// at-least-once delivery of the creation trigger (CLI retries, peer
// retries) must not clobber in-flight state.
func (r *InMemoryRepository) Create(req CreateProcessRequest) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.processes[req.ProcessID]; ok {
		return existing, nil
	}

	process := AwaitingPeerShares{
		preamble: Preamble{
			ID:           req.ProcessID,
			Input:        req.Input,
			OwnShare:     req.OwnShare,
			SharesToSend: req.SharesToSend,
		},
		ReceivedShares: make(map[uint8]uint64),
	}
	r.processes[req.ProcessID] = process
	return process, nil
}

func (r *InMemoryRepository) ReceiveShares(req ReceiveSharesRequest) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.processes[req.ProcessID]
	if !ok {
		return nil, newError(KindNotFound, "process not found")
	}
	awaiting, ok := current.(AwaitingPeerShares)
	if !ok {
		return nil, newError(KindWrongState, "process is not awaiting peer shares")
	}

	merged := make(map[uint8]uint64, len(awaiting.ReceivedShares)+len(req.ReceivedShares))
	for peerID, share := range awaiting.ReceivedShares {
		merged[peerID] = share
	}
	for peerID, share := range req.ReceivedShares {
		merged[peerID] = share
	}

	if req.ComputedSharesSum == nil {
		updated := AwaitingPeerShares{
			preamble:       awaiting.preamble,
			ReceivedShares: merged,
		}
		r.processes[req.ProcessID] = updated
		return updated, nil
	}

	updated := AwaitingPeerSharesSum{
		preamble:           awaiting.preamble,
		ReceivedShares:     merged,
		SharesSum:          *req.ComputedSharesSum,
		ReceivedSharesSums: make(map[uint8]uint64),
	}
	r.processes[req.ProcessID] = updated
	return updated, nil
}

func (r *InMemoryRepository) ReceiveSharesSums(req ReceiveSharesSumsRequest) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.processes[req.ProcessID]
	if !ok {
		return nil, newError(KindNotFound, "process not found")
	}
	awaiting, ok := current.(AwaitingPeerSharesSum)
	if !ok {
		return nil, newError(KindWrongState, "process is not awaiting peer shares sums")
	}

	merged := make(map[uint8]uint64, len(awaiting.ReceivedSharesSums)+len(req.ReceivedSharesSums))
	for peerID, sum := range awaiting.ReceivedSharesSums {
		merged[peerID] = sum
	}
	for peerID, sum := range req.ReceivedSharesSums {
		merged[peerID] = sum
	}

	if req.FinalSum == nil {
		updated := AwaitingPeerSharesSum{
			preamble:           awaiting.preamble,
			ReceivedShares:     awaiting.ReceivedShares,
			SharesSum:          awaiting.SharesSum,
			ReceivedSharesSums: merged,
		}
		r.processes[req.ProcessID] = updated
		return updated, nil
	}

	updated := Completed{
		preamble:           awaiting.preamble,
		ReceivedShares:     awaiting.ReceivedShares,
		SharesSum:          awaiting.SharesSum,
		ReceivedSharesSums: merged,
		FinalSum:           *req.FinalSum,
	}
	r.processes[req.ProcessID] = updated
	return updated, nil
}

func (r *InMemoryRepository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processes, id)
	return nil
}
