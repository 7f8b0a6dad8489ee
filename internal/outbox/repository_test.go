package outbox_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/outbox"
)

func TestEnqueuePingsWakeup(t *testing.T) {
	wakeup := make(chan struct{}, 1)
	repo := outbox.NewInMemoryRepository(wakeup)

	items, err := repo.Enqueue([]outbox.Envelope{
		{PeerID: 1, ProcessID: uuid.New(), PayloadType: addition.PayloadTypeShare, Value: 42},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	select {
	case <-wakeup:
	default:
		t.Fatal("expected enqueue to ping the wakeup channel")
	}
}

func TestReadyToSendRespectsSchedule(t *testing.T) {
	wakeup := make(chan struct{}, 10)
	repo := outbox.NewInMemoryRepository(wakeup)

	items, err := repo.Enqueue([]outbox.Envelope{
		{PeerID: 1, ProcessID: uuid.New(), PayloadType: addition.PayloadTypeShare, Value: 1},
	})
	require.NoError(t, err)

	ready, err := repo.ReadyToSend(10)
	require.NoError(t, err)
	assert.Len(t, ready, 1)

	require.NoError(t, repo.Reschedule([]uuid.UUID{items[0].ID}, time.Hour))

	ready, err = repo.ReadyToSend(10)
	require.NoError(t, err)
	assert.Empty(t, ready, "rescheduled item should not be ready until its delay elapses")
}

func TestDequeueRemovesItems(t *testing.T) {
	wakeup := make(chan struct{}, 10)
	repo := outbox.NewInMemoryRepository(wakeup)

	items, err := repo.Enqueue([]outbox.Envelope{
		{PeerID: 1, ProcessID: uuid.New(), PayloadType: addition.PayloadTypeShare, Value: 1},
		{PeerID: 2, ProcessID: uuid.New(), PayloadType: addition.PayloadTypeSharesSum, Value: 2},
	})
	require.NoError(t, err)

	dequeued, err := repo.Dequeue([]uuid.UUID{items[0].ID})
	require.NoError(t, err)
	assert.Len(t, dequeued, 1)

	ready, err := repo.ReadyToSend(10)
	require.NoError(t, err)
	assert.Len(t, ready, 1)
	assert.Equal(t, items[1].ID, ready[0].ID)
}

func TestReadyToSendOrdersOldestFirstAndRespectsLimit(t *testing.T) {
	wakeup := make(chan struct{}, 10)
	repo := outbox.NewInMemoryRepository(wakeup)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		items, err := repo.Enqueue([]outbox.Envelope{
			{PeerID: 1, ProcessID: uuid.New(), PayloadType: addition.PayloadTypeShare, Value: uint64(i)},
		})
		require.NoError(t, err)
		ids = append(ids, items[0].ID)
		time.Sleep(time.Millisecond)
	}

	ready, err := repo.ReadyToSend(2)
	require.NoError(t, err)
	require.Len(t, ready, 2)
	assert.Equal(t, ids[0], ready[0].ID)
	assert.Equal(t, ids[1], ready[1].ID)
}
