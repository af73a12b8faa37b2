package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	governanceerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
	governancehttp "wct/contexts/token-governance/governance-ledger/transport/http"
)

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{Code: code, Message: message})
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, governanceerrors.ErrInvalidGovernanceInput),
		errors.Is(err, governanceerrors.ErrInvalidQuorumPercentage),
		errors.Is(err, governanceerrors.ErrInvalidVotingPeriod),
		errors.Is(err, governanceerrors.ErrInvalidExecutionDelay),
		errors.Is(err, governanceerrors.ErrInvalidProposalInput),
		errors.Is(err, governanceerrors.ErrInvalidProposalType),
		errors.Is(err, governanceerrors.ErrInvalidVoteChoice):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, governanceerrors.ErrGovernanceNotFound),
		errors.Is(err, governanceerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrGovernanceAlreadyExists):
		writeGovernanceError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, governanceerrors.ErrInsufficientTokens),
		errors.Is(err, governanceerrors.ErrNoVotingPower):
		writeGovernanceError(w, http.StatusForbidden, "insufficient_tokens", err.Error())
	case errors.Is(err, governanceerrors.ErrVotingClosed),
		errors.Is(err, governanceerrors.ErrVotingStillOpen),
		errors.Is(err, governanceerrors.ErrProposalAlreadyExecuted),
		errors.Is(err, governanceerrors.ErrProposalCancelled),
		errors.Is(err, governanceerrors.ErrExecutionDelayNotPassed),
		errors.Is(err, governanceerrors.ErrQuorumNotReached),
		errors.Is(err, governanceerrors.ErrProposalNotPassed):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "state_precondition_failed", err.Error())
	case errors.Is(err, governanceerrors.ErrUnauthorized),
		errors.Is(err, governanceerrors.ErrUnauthorizedCancellation):
		writeGovernanceError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, governanceerrors.ErrArithmeticOverflow),
		errors.Is(err, governanceerrors.ErrArithmeticUnderflow):
		writeGovernanceError(w, http.StatusInternalServerError, "bookkeeping_violation", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func parseProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := strings.TrimSpace(r.PathValue("proposal_id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleInitializeGovernance(w http.ResponseWriter, r *http.Request) {
	var req governancehttp.InitializeGovernanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.InitializeGovernanceHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.GovernanceSummaryHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateGovernance(w http.ResponseWriter, r *http.Request) {
	authority, ok := requireActor(w, r, writeGovernanceError)
	if !ok {
		return
	}
	var req governancehttp.UpdateGovernanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.UpdateGovernanceHandler(r.Context(), authority, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	proposer, ok := requireActor(w, r, writeGovernanceError)
	if !ok {
		return
	}
	var req governancehttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), proposer, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposalList(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ProposalListHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voter, ok := requireActor(w, r, writeGovernanceError)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	var req governancehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.CastVoteHandler(r.Context(), voter, proposalID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteList(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.VoteListHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.TallyHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	executor, ok := requireActor(w, r, writeGovernanceError)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ExecuteProposalHandler(r.Context(), executor, proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, writeGovernanceError)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.CancelProposalHandler(r.Context(), actor, proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
