package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/outbox"
	"github.com/VGLoic/mpc-exploration/internal/peerclient"
)

func TestDispatcherDeliversAndDrainsOnSuccess(t *testing.T) {
	wakeup := make(chan struct{}, 10)
	repo := outbox.NewInMemoryRepository(wakeup)

	fake := peerclient.NewFake(1)
	peerRepo := addition.NewInMemoryRepository()
	fake.Peers[2] = peerRepo

	processID := uuid.New()
	_, err := peerRepo.Create(addition.CreateProcessRequest{
		ProcessID:    processID,
		Input:        10,
		OwnShare:     3,
		SharesToSend: map[uint8]uint64{1: 7},
	})
	require.NoError(t, err)

	dispatcher := outbox.NewDispatcher(repo, fake, wakeup, zap.NewNop(), nil)

	_, err = repo.Enqueue([]outbox.Envelope{
		{PeerID: 2, ProcessID: processID, PayloadType: addition.PayloadTypeShare, Value: 9},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go dispatcher.Run(ctx)

	require.Eventually(t, func() bool {
		ready, err := repo.ReadyToSend(10)
		return err == nil && len(ready) == 0
	}, 150*time.Millisecond, 5*time.Millisecond)
}

func TestDispatcherRetriesOnFailure(t *testing.T) {
	wakeup := make(chan struct{}, 10)
	repo := outbox.NewInMemoryRepository(wakeup)

	fake := peerclient.NewFake(1)
	// peer 2 is never registered, so every send fails with an unknown-peer error.

	dispatcher := outbox.NewDispatcher(repo, fake, wakeup, zap.NewNop(), nil)

	processID := uuid.New()
	_, err := repo.Enqueue([]outbox.Envelope{
		{PeerID: 2, ProcessID: processID, PayloadType: addition.PayloadTypeShare, Value: 1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go dispatcher.Run(ctx)
	<-ctx.Done()

	ready, err := repo.ReadyToSend(10)
	require.NoError(t, err)
	require.Empty(t, ready, "item should be rescheduled a second in the future, not immediately ready")
}
