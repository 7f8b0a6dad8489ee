// Package httpapi exposes a node's peer-facing and operator-facing HTTP
// surface: the addition lifecycle routes, the progress endpoint peers poll,
// and the ambient /health and /metrics routes. Handlers never talk to peers
// directly — they only touch the addition.Repository and the outbox.Repository,
// leaving delivery to the dispatcher.
package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/observability"
	"github.com/VGLoic/mpc-exploration/internal/outbox"
)

// Server holds every dependency a handler needs. It has no state of its
// own beyond configuration: all process state lives in the repositories.
type Server struct {
	serverPeerID uint8
	peerIDs      []uint8
	peerIDSet    map[uint8]struct{}

	repo   addition.Repository
	outbox outbox.Repository

	// orchestratorWakeup lets a handler nudge the orchestrator right after
	// locally creating or advancing a process, instead of waiting for its
	// one-second tick. It is optional: a nil channel simply disables the nudge.
	orchestratorWakeup chan<- struct{}

	logger  *zap.Logger
	obs     *observability.Manager
	metrics *observability.Metrics
}

// NewServer builds a Server. peers is the full set of remote participants
// of this node (the local node's own id is serverPeerID and is not part of
// it). orchestratorWakeup may be nil.
func NewServer(serverPeerID uint8, peers []addition.Peer, repo addition.Repository, outboxRepo outbox.Repository, orchestratorWakeup chan<- struct{}, logger *zap.Logger, obs *observability.Manager, metrics *observability.Metrics) *Server {
	peerIDs := make([]uint8, len(peers))
	peerIDSet := make(map[uint8]struct{}, len(peers))
	for i, p := range peers {
		peerIDs[i] = p.ID
		peerIDSet[p.ID] = struct{}{}
	}
	return &Server{
		serverPeerID:       serverPeerID,
		peerIDs:            peerIDs,
		peerIDSet:          peerIDSet,
		repo:               repo,
		outbox:             outboxRepo,
		orchestratorWakeup: orchestratorWakeup,
		logger:             logger,
		obs:                obs,
		metrics:            metrics,
	}
}

func (s *Server) nudgeOrchestrator() {
	if s.orchestratorWakeup == nil {
		return
	}
	select {
	case s.orchestratorWakeup <- struct{}{}:
	default:
	}
}

// Router builds the complete mux: the five domain routes from the wire
// protocol plus /health and /metrics, wrapped with request logging,
// tracing and metrics middleware.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /additions", s.handleCreate)
	mux.HandleFunc("GET /additions/{id}", s.handleGet)
	mux.HandleFunc("DELETE /additions/{id}", s.handleDelete)
	mux.HandleFunc("POST /additions/{id}/receive", s.handleReceive)
	mux.HandleFunc("GET /additions/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metricsHandler())

	return s.withMiddleware(mux)
}

func (s *Server) peerFromHeader(r *http.Request) (addition.Peer, *apiError) {
	raw := r.Header.Get("X-PEER-ID")
	if raw == "" {
		return addition.Peer{}, unauthorized("missing X-PEER-ID header")
	}
	id, err := parsePeerID(raw)
	if err != nil {
		return addition.Peer{}, unauthorized("invalid X-PEER-ID header")
	}
	if _, ok := s.peerIDSet[id]; !ok {
		return addition.Peer{}, unauthorized("unrecognized peer id")
	}
	return addition.Peer{ID: id}, nil
}

// enqueueShares schedules one outbox envelope per recipient configured in
// process's SharesToSend, each carrying that recipient's own share.
func (s *Server) enqueueShares(process addition.Process) {
	preamble := process.Preamble()
	envelopes := make([]outbox.Envelope, 0, len(preamble.SharesToSend))
	for peerID, share := range preamble.SharesToSend {
		envelopes = append(envelopes, outbox.Envelope{
			PeerID:      peerID,
			ProcessID:   preamble.ID,
			PayloadType: addition.PayloadTypeShare,
			Value:       share,
		})
	}
	if _, err := s.outbox.Enqueue(envelopes); err != nil {
		s.logger.Error("enqueueing shares", zap.Error(err), zap.String("process_id", preamble.ID.String()))
	}
}

// enqueueSharesSum broadcasts this node's own shares-sum to every peer this
// process knows about, once that sum has just been computed.
func (s *Server) enqueueSharesSum(process addition.AwaitingPeerSharesSum) {
	preamble := process.Preamble()
	envelopes := make([]outbox.Envelope, 0, len(preamble.SharesToSend))
	for peerID := range preamble.SharesToSend {
		envelopes = append(envelopes, outbox.Envelope{
			PeerID:      peerID,
			ProcessID:   preamble.ID,
			PayloadType: addition.PayloadTypeSharesSum,
			Value:       process.SharesSum,
		})
	}
	if _, err := s.outbox.Enqueue(envelopes); err != nil {
		s.logger.Error("enqueueing shares sum", zap.Error(err), zap.String("process_id", preamble.ID.String()))
	}
}

func parseProcessID(r *http.Request) (uuid.UUID, *apiError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.UUID{}, badRequest("invalid process id", err)
	}
	return id, nil
}
