// Package e2e spins up small fleets of fully-wired nodes — repository,
// outbox, dispatcher, orchestrator and HTTP server, wired exactly like
// cmd/mpc-node's main — to exercise the scenarios of spec.md §8 over real
// HTTP rather than mocked transport.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/httpapi"
	"github.com/VGLoic/mpc-exploration/internal/outbox"
	"github.com/VGLoic/mpc-exploration/internal/peerclient"
	"github.com/VGLoic/mpc-exploration/internal/utils"
)

// node bundles one simulated participant's full stack.
type node struct {
	id   uint8
	url  string
	repo addition.Repository
}

type fleetOptions struct {
	// dispatcherEnabled controls whether each node's outbox dispatcher
	// actually runs. Disabling it models a fleet relying purely on the
	// orchestrator's pull-based recovery (scenario D).
	dispatcherEnabled bool
	// dropFirstN, if set, wraps every node's peer client so the first N
	// delivery attempts of every envelope fail (scenario C).
	dropFirstN int
}

// newFleet wires n nodes with peer ids 1..n, each addressable over real
// HTTP, and returns the fleet plus a teardown func.
func newFleet(t *testing.T, n int, opts fleetOptions) ([]*node, func()) {
	t.Helper()

	ids := make([]uint8, n)
	ports := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = uint8(i + 1)
		port, err := utils.FreePort()
		require.NoError(t, err)
		ports[i] = port
	}

	nodes := make([]*node, n)
	servers := make([]*httptest.Server, n)
	cancels := make([]context.CancelFunc, 0, n)

	for i := 0; i < n; i++ {
		selfID := ids[i]
		peerURLs := make(map[uint8]string, n-1)
		peers := make([]addition.Peer, 0, n-1)
		otherIDs := make([]uint8, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			url := fmt.Sprintf("http://127.0.0.1:%d", ports[j])
			peerURLs[ids[j]] = url
			peers = append(peers, addition.Peer{ID: ids[j], URL: url})
			otherIDs = append(otherIDs, ids[j])
		}

		repo := addition.NewInMemoryRepository()

		outboxWakeup := make(chan struct{}, 1)
		outboxRepo := outbox.NewInMemoryRepository(outboxWakeup)

		var client peerclient.Client = peerclient.NewHTTPClient(selfID, peerURLs)
		if opts.dropFirstN > 0 {
			client = &lossyClient{inner: client, dropFirstN: opts.dropFirstN}
		}

		dispatcher := outbox.NewDispatcher(outboxRepo, client, outboxWakeup, zap.NewNop(), nil)
		orchestratorWakeup := make(chan struct{}, 1)
		orchestrator := addition.NewOrchestrator(repo, client, selfID, otherIDs, orchestratorWakeup, zap.NewNop(), nil)

		server := httpapi.NewServer(selfID, peers, repo, outboxRepo, orchestratorWakeup, zap.NewNop(), nil, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancels = append(cancels, cancel)
		go orchestrator.Run(ctx)
		if opts.dispatcherEnabled {
			go dispatcher.Run(ctx)
		}

		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", ports[i]))
		require.NoError(t, err)
		httpServer := httptest.NewUnstartedServer(server.Router())
		httpServer.Listener.Close()
		httpServer.Listener = ln
		httpServer.Start()
		servers[i] = httpServer

		nodes[i] = &node{id: selfID, url: httpServer.URL, repo: repo}
	}

	teardown := func() {
		for _, cancel := range cancels {
			cancel()
		}
		for _, s := range servers {
			s.Close()
		}
	}
	return nodes, teardown
}

// lossyClient wraps a real Client and fails the first dropFirstN delivery
// attempts of every (peer, process, payload type) envelope, modelling a lossy
// network link for the outbox/dispatcher retry path without touching
// production code.
type lossyClient struct {
	inner      peerclient.Client
	dropFirstN int

	mu       sync.Mutex
	attempts map[lossyKey]int
}

type lossyKey struct {
	peerID      uint8
	processID   uuid.UUID
	payloadType addition.PayloadType
}

func (c *lossyClient) shouldDrop(peerID uint8, processID uuid.UUID, payloadType addition.PayloadType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempts == nil {
		c.attempts = make(map[lossyKey]int)
	}
	key := lossyKey{peerID: peerID, processID: processID, payloadType: payloadType}
	c.attempts[key]++
	return c.attempts[key] <= c.dropFirstN
}

func (c *lossyClient) NotifyNewProcess(ctx context.Context, peerID uint8, processID uuid.UUID) error {
	return c.inner.NotifyNewProcess(ctx, peerID, processID)
}

func (c *lossyClient) FetchProcessProgress(ctx context.Context, peerID uint8, processID uuid.UUID) (addition.Progress, error) {
	return c.inner.FetchProcessProgress(ctx, peerID, processID)
}

func (c *lossyClient) SendShare(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	if c.shouldDrop(peerID, processID, addition.PayloadTypeShare) {
		return fmt.Errorf("simulated drop")
	}
	return c.inner.SendShare(ctx, peerID, processID, value)
}

func (c *lossyClient) SendSharesSum(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	if c.shouldDrop(peerID, processID, addition.PayloadTypeSharesSum) {
		return fmt.Errorf("simulated drop")
	}
	return c.inner.SendSharesSum(ctx, peerID, processID, value)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	return postJSONWithHeader(t, url, body, "", "")
}

func postJSONWithHeader(t *testing.T, url string, body any, headerKey, headerValue string) *http.Response {
	t.Helper()
	client := &http.Client{}
	req := newJSONRequest(t, http.MethodPost, url, body)
	if headerKey != "" {
		req.Header.Set(headerKey, headerValue)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func getJSONWithHeader(t *testing.T, url, headerKey, headerValue string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set(headerKey, headerValue)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func newJSONRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}
