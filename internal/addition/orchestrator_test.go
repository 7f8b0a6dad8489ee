package addition_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/peerclient"
)

// setupTwoNodeFleet wires two repositories plus a Fake client speaking as
// node 1, both already holding the same process: node 1 awaiting shares
// from node 2, node 2 already holding its own share of the split secret.
func setupTwoNodeFleet(t *testing.T) (processID uuid.UUID, repo1 addition.Repository, fake1 *peerclient.Fake) {
	t.Helper()

	processID = uuid.New()

	repo1 = addition.NewInMemoryRepository()
	_, err := repo1.Create(addition.CreateProcessRequest{
		ProcessID:    processID,
		Input:        10,
		OwnShare:     4,
		SharesToSend: map[uint8]uint64{2: 6},
	})
	require.NoError(t, err)

	repo2 := addition.NewInMemoryRepository()
	_, err = repo2.Create(addition.CreateProcessRequest{
		ProcessID:    processID,
		Input:        10,
		OwnShare:     6,
		SharesToSend: map[uint8]uint64{1: 4},
	})
	require.NoError(t, err)

	fake1 = peerclient.NewFake(1)
	fake1.Peers[2] = repo2

	return processID, repo1, fake1
}

func TestOrchestratorRecoversMissingShareFromPeer(t *testing.T) {
	processID, repo1, fake1 := setupTwoNodeFleet(t)

	wakeup := make(chan struct{}, 1)
	orchestrator := addition.NewOrchestrator(repo1, fake1, 1, []uint8{2}, wakeup, zap.NewNop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	wakeup <- struct{}{}
	go orchestrator.Run(ctx)

	require.Eventually(t, func() bool {
		process, err := repo1.Get(processID)
		if err != nil {
			return false
		}
		_, isSharesSum := process.(addition.AwaitingPeerSharesSum)
		return isSharesSum
	}, 150*time.Millisecond, 5*time.Millisecond)
}
