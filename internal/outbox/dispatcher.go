package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/observability"
	"github.com/VGLoic/mpc-exploration/internal/peerclient"
)

const (
	batchSize      = 10
	fanOut         = 5
	retryDelay     = time.Second
	maxAttempts    = 5
	tickerInterval = time.Second
)

// Dispatcher drains a Repository in the background, pushing each envelope
// to its peer through a peerclient.Client. It wakes on two signals: an
// explicit ping after an enqueue, and a steady one-second tick that catches
// items whose retry delay has elapsed without any new enqueue happening.
type Dispatcher struct {
	repo    Repository
	client  peerclient.Client
	wakeup  <-chan struct{}
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatcher builds a Dispatcher. wakeup should be the same channel the
// Repository signals after Enqueue. metrics may be nil, in which case the
// dispatcher simply does not record Prometheus metrics.
func NewDispatcher(repo Repository, client peerclient.Client, wakeup <-chan struct{}, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{repo: repo, client: client, wakeup: wakeup, logger: logger, metrics: metrics}
}

// Run blocks, dispatching batches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wakeup:
		case <-ticker.C:
		}
		if err := d.pollAndDispatch(ctx); err != nil {
			d.logger.Error("poll and dispatch outbox items", zap.Error(err))
		}
	}
}

func (d *Dispatcher) pollAndDispatch(ctx context.Context) error {
	items, err := d.repo.ReadyToSend(batchSize)
	if err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.OutboxQueueDepth.Set(float64(len(items)))
	}
	if len(items) == 0 {
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(fanOut)

	results := make([]error, len(items))
	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			results[i] = d.dispatch(gctx, item)
			return nil
		})
	}
	_ = group.Wait()

	var succeeded, retried, abandoned []uuid.UUID
	for i, item := range items {
		if results[i] == nil {
			succeeded = append(succeeded, item.ID)
			continue
		}
		if item.Attempts+1 >= maxAttempts {
			abandoned = append(abandoned, item.ID)
		} else {
			retried = append(retried, item.ID)
		}
	}

	if len(succeeded) > 0 {
		if _, err := d.repo.Dequeue(succeeded); err != nil {
			return err
		}
		d.recordOutcome("succeeded", len(succeeded))
	}
	if len(retried) > 0 {
		d.logger.Info("re-enqueuing failed outbox items", zap.Int("count", len(retried)))
		if err := d.repo.Reschedule(retried, retryDelay); err != nil {
			return err
		}
		d.recordOutcome("retried", len(retried))
	}
	if len(abandoned) > 0 {
		d.logger.Warn("abandoning outbox items past attempt ceiling", zap.Int("count", len(abandoned)))
		if _, err := d.repo.Dequeue(abandoned); err != nil {
			return err
		}
		d.recordOutcome("abandoned", len(abandoned))
	}

	return nil
}

func (d *Dispatcher) recordOutcome(outcome string, count int) {
	if d.metrics == nil {
		return
	}
	d.metrics.OutboxDispatchedTotal.WithLabelValues(outcome).Add(float64(count))
}

func (d *Dispatcher) dispatch(ctx context.Context, item Item) error {
	envelope := item.Envelope
	switch envelope.PayloadType {
	case addition.PayloadTypeShare:
		return d.client.SendShare(ctx, envelope.PeerID, envelope.ProcessID, envelope.Value)
	case addition.PayloadTypeSharesSum:
		return d.client.SendSharesSum(ctx, envelope.PeerID, envelope.ProcessID, envelope.Value)
	default:
		d.logger.Error("unknown outbox payload type", zap.String("type", string(envelope.PayloadType)))
		return nil
	}
}
