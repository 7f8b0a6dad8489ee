package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// handleCreate originates a process locally: POST /additions is idempotent,
// re-posting the same process_id returns the existing process rather than
// re-splitting the input (Open Question 4).
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body addition.CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.logger, s.obs, badRequest("decoding request body", err))
		return
	}

	if existing, err := s.repo.Get(body.ProcessID); err == nil {
		writeJSON(w, http.StatusOK, addition.ToGetResponseBody(existing))
		return
	}

	req, err := addition.NewCreateProcessRequest(body.ProcessID, s.serverPeerID, s.peerIDs)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("creating process", err))
		return
	}
	process, err := s.repo.Create(req)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("persisting new process", err))
		return
	}
	s.enqueueShares(process)
	s.nudgeOrchestrator()

	writeJSON(w, http.StatusOK, addition.CreateResponseBody{
		ProcessID: process.Preamble().ID,
		Input:     process.Preamble().Input,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseProcessID(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	process, err := s.repo.Get(id)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("fetching process", err))
		return
	}
	writeJSON(w, http.StatusOK, addition.ToGetResponseBody(process))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseProcessID(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	if err := s.repo.Delete(id); err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("deleting process", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReceive accepts either a share or a shares-sum pushed by a peer. A
// share for a process this node has never heard of bootstraps it on the
// spot (Open Question 1: bootstrap on first contact), mirroring a node that
// joined a fleet-wide addition after its peers already started pushing.
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseProcessID(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	peer, apiErr := s.peerFromHeader(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	var body addition.ReceiveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.logger, s.obs, badRequest("decoding request body", err))
		return
	}

	switch body.Type {
	case addition.PayloadTypeShare:
		s.receiveShare(w, id, peer.ID, body.Data.Value)
	case addition.PayloadTypeSharesSum:
		s.receiveSharesSum(w, id, peer.ID, body.Data.Value)
	default:
		writeError(w, s.logger, s.obs, badRequest("unknown payload type", nil))
	}
}

func (s *Server) receiveShare(w http.ResponseWriter, id uuid.UUID, fromPeerID uint8, value uint64) {
	process, err := addition.ApplyReceivedShare(s.repo, id, fromPeerID, value)
	if isNotFound(err) {
		req, buildErr := addition.NewCreateProcessRequest(id, s.serverPeerID, s.peerIDs)
		if buildErr != nil {
			writeError(w, s.logger, s.obs, fromDomainError("bootstrapping process on receive", buildErr))
			return
		}
		bootstrapped, createErr := s.repo.Create(req)
		if createErr != nil {
			writeError(w, s.logger, s.obs, fromDomainError("bootstrapping process on receive", createErr))
			return
		}
		s.enqueueShares(bootstrapped)
		process, err = addition.ApplyReceivedShare(s.repo, id, fromPeerID, value)
	}
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("applying received share", err))
		return
	}
	if awaitingSum, ok := process.(addition.AwaitingPeerSharesSum); ok && len(awaitingSum.ReceivedSharesSums) == 0 {
		s.enqueueSharesSum(awaitingSum)
	}
	s.nudgeOrchestrator()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) receiveSharesSum(w http.ResponseWriter, id uuid.UUID, fromPeerID uint8, value uint64) {
	process, err := addition.ApplyReceivedSharesSum(s.repo, id, fromPeerID, s.serverPeerID, value)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("applying received shares sum", err))
		return
	}
	if completed, ok := process.(addition.Completed); ok {
		s.logger.Info("process completed via push delivery",
			zap.String("process_id", id.String()), zap.Uint64("final_sum", completed.FinalSum))
		if s.metrics != nil {
			s.metrics.ProcessesCompletedTotal.Inc()
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseProcessID(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	peer, apiErr := s.peerFromHeader(r)
	if apiErr != nil {
		writeError(w, s.logger, s.obs, apiErr)
		return
	}
	process, err := s.repo.Get(id)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("fetching process", err))
		return
	}
	progress, err := addition.ProgressFor(process, peer.ID)
	if err != nil {
		writeError(w, s.logger, s.obs, fromDomainError("computing progress", err))
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, addition.HealthResponseBody{OK: true})
}

func isNotFound(err error) bool {
	apiErr := fromDomainError("", err)
	return apiErr.status == http.StatusNotFound
}
