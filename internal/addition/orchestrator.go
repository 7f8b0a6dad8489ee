package addition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VGLoic/mpc-exploration/internal/observability"
)

const (
	orchestratorFanOut      = 5
	orchestratorTick        = time.Second
	orchestratorMaxFailures = 5
)

// ProgressFetcher is the subset of peerclient.Client the orchestrator needs.
// Declared locally (rather than imported from peerclient) so this package
// does not depend on its own consumer.
type ProgressFetcher interface {
	FetchProcessProgress(ctx context.Context, peerID uint8, processID uuid.UUID) (Progress, error)
}

// Orchestrator periodically pulls missing shares and shares-sums from peers,
// recovering processes whose push-based delivery (the outbox) lost a
// message. It never mutates Repository state from the outbox's data; it
// always re-derives the request through NewReceiveSharesRequest /
// NewReceiveSharesSumsRequest so the merge stays idempotent.
type Orchestrator struct {
	repo      Repository
	client    ProgressFetcher
	ownPeerID uint8
	peerIDs   []uint8
	wakeup    <-chan struct{}
	logger    *zap.Logger
	metrics   *observability.Metrics
	failures  map[uuid.UUID]int
}

// NewOrchestrator builds an Orchestrator. wakeup is pinged by whatever
// process creates or advances processes locally; the orchestrator also
// wakes on its own one-second tick regardless. metrics may be nil.
func NewOrchestrator(repo Repository, client ProgressFetcher, ownPeerID uint8, peerIDs []uint8, wakeup <-chan struct{}, logger *zap.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		client:    client,
		ownPeerID: ownPeerID,
		peerIDs:   peerIDs,
		wakeup:    wakeup,
		logger:    logger,
		metrics:   metrics,
		failures:  make(map[uuid.UUID]int),
	}
}

// Run blocks, orchestrating ongoing processes until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(orchestratorTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wakeup:
		case <-ticker.C:
		}
		o.orchestrateOnce(ctx)
	}
}

func (o *Orchestrator) orchestrateOnce(ctx context.Context) {
	processes, err := o.repo.ListOngoing()
	if err != nil {
		o.logger.Error("fetching ongoing addition processes", zap.Error(err))
		return
	}

	active := processes[:0]
	for _, p := range processes {
		if o.failures[p.Preamble().ID] < orchestratorMaxFailures {
			active = append(active, p)
		}
	}

	for _, process := range active {
		if err := o.pollAndUpdate(ctx, process); err != nil {
			o.logger.Error("polling and updating process",
				zap.String("process_id", process.Preamble().ID.String()), zap.Error(err))
			o.recordPoll("failed")
			id := process.Preamble().ID
			o.failures[id]++
			if o.failures[id] >= orchestratorMaxFailures {
				o.logger.Error("process reached maximum failure attempts, skipping from now on",
					zap.String("process_id", id.String()))
				if o.metrics != nil {
					o.metrics.ProcessesAbandonedTotal.Inc()
				}
			}
			continue
		}
		o.recordPoll("succeeded")
	}
}

func (o *Orchestrator) recordPoll(outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.OrchestratorPollsTotal.WithLabelValues(outcome).Inc()
}

func (o *Orchestrator) pollAndUpdate(ctx context.Context, process Process) error {
	switch p := process.(type) {
	case AwaitingPeerShares:
		return o.pollForPeerShares(ctx, p)
	case AwaitingPeerSharesSum:
		return o.pollForPeerSharesSums(ctx, p)
	case Completed:
		return nil
	default:
		return fmt.Errorf("unknown process state %T", process)
	}
}

func (o *Orchestrator) pollForPeerShares(ctx context.Context, process AwaitingPeerShares) error {
	var missing []uint8
	for _, peerID := range o.peerIDs {
		if _, ok := process.ReceivedShares[peerID]; !ok {
			missing = append(missing, peerID)
		}
	}
	// With nothing missing, the empty merge below still advances a process
	// whose full set was recorded without the transition being applied.
	received := make(map[uint8]uint64, len(missing))
	if len(missing) > 0 {
		progresses, err := o.fetchProgressFromPeers(ctx, missing, process.preamble.ID)
		if err != nil {
			return fmt.Errorf("fetching missing process progresses: %w", err)
		}
		for _, pr := range progresses {
			received[pr.peerID] = pr.progress.Share
		}
	}

	req, err := NewReceiveSharesRequest(process, received, len(o.peerIDs))
	if err != nil {
		return fmt.Errorf("creating receive shares request: %w", err)
	}
	if _, err := o.repo.ReceiveShares(req); err != nil {
		return fmt.Errorf("updating process with received shares: %w", err)
	}
	return nil
}

func (o *Orchestrator) pollForPeerSharesSums(ctx context.Context, process AwaitingPeerSharesSum) error {
	var missing []uint8
	for _, peerID := range o.peerIDs {
		if _, ok := process.ReceivedSharesSums[peerID]; !ok {
			missing = append(missing, peerID)
		}
	}
	received := make(map[uint8]uint64, len(missing))
	if len(missing) > 0 {
		progresses, err := o.fetchProgressFromPeers(ctx, missing, process.preamble.ID)
		if err != nil {
			return fmt.Errorf("fetching missing process progresses for shares sums: %w", err)
		}
		for _, pr := range progresses {
			if pr.progress.SharesSum != nil {
				received[pr.peerID] = *pr.progress.SharesSum
			}
		}
	}

	req, err := NewReceiveSharesSumsRequest(process, received, o.ownPeerID, len(o.peerIDs))
	if err != nil {
		return fmt.Errorf("creating receive shares sums request: %w", err)
	}
	updated, err := o.repo.ReceiveSharesSums(req)
	if err != nil {
		return fmt.Errorf("updating process with received shares sums: %w", err)
	}
	if completed, ok := updated.(Completed); ok {
		o.logger.Info("process completed",
			zap.String("process_id", process.preamble.ID.String()), zap.Uint64("final_sum", completed.FinalSum))
		if o.metrics != nil {
			o.metrics.ProcessesCompletedTotal.Inc()
		}
	}
	return nil
}

type progressFromPeer struct {
	peerID   uint8
	progress Progress
}

func (o *Orchestrator) fetchProgressFromPeers(ctx context.Context, peerIDs []uint8, processID uuid.UUID) ([]progressFromPeer, error) {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(orchestratorFanOut)

	results := make([]*progressFromPeer, len(peerIDs))
	for i, peerID := range peerIDs {
		i, peerID := i, peerID
		group.Go(func() error {
			progress, err := o.client.FetchProcessProgress(gctx, peerID, processID)
			if err != nil {
				o.logger.Error("fetching process progress from peer", zap.Uint8("peer_id", peerID), zap.Error(err))
				return nil
			}
			results[i] = &progressFromPeer{peerID: peerID, progress: progress}
			return nil
		})
	}
	_ = group.Wait()

	progresses := make([]progressFromPeer, 0, len(peerIDs))
	for _, r := range results {
		if r != nil {
			progresses = append(progresses, *r)
		}
	}
	if len(progresses) == 0 {
		return nil, fmt.Errorf("failed to fetch progress from any peer")
	}
	return progresses, nil
}
