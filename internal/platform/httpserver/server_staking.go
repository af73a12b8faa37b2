package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	stakingerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	stakinghttp "wct/contexts/token-governance/staking-ledger/transport/http"
)

func writeStakingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, stakinghttp.ErrorResponse{Code: code, Message: message})
}

func writeStakingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stakingerrors.ErrInvalidStakeInput),
		errors.Is(err, stakingerrors.ErrInvalidStakeDuration),
		errors.Is(err, stakingerrors.ErrInvalidRewardParams):
		writeStakingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, stakingerrors.ErrPoolNotFound),
		errors.Is(err, stakingerrors.ErrStakeNotFound):
		writeStakingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, stakingerrors.ErrPoolAlreadyExists),
		errors.Is(err, stakingerrors.ErrActiveStakeExists):
		writeStakingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, stakingerrors.ErrStakeLockNotExpired),
		errors.Is(err, stakingerrors.ErrStakeAlreadyWithdrawn),
		errors.Is(err, stakingerrors.ErrNoRewardsYet):
		writeStakingError(w, http.StatusUnprocessableEntity, "state_precondition_failed", err.Error())
	case errors.Is(err, stakingerrors.ErrUnauthorized):
		writeStakingError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, stakingerrors.ErrArithmeticOverflow),
		errors.Is(err, stakingerrors.ErrArithmeticUnderflow):
		writeStakingError(w, http.StatusInternalServerError, "bookkeeping_violation", err.Error())
	default:
		writeStakingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireActor(w http.ResponseWriter, r *http.Request, writeError func(http.ResponseWriter, int, string, string)) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actor, true
}

func (s *Server) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req stakinghttp.InitializePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStakingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.staking.Handler.InitializePoolHandler(r.Context(), req)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePoolSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.staking.Handler.PoolSummaryHandler(r.Context())
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRewardParams(w http.ResponseWriter, r *http.Request) {
	authority, ok := requireActor(w, r, writeStakingError)
	if !ok {
		return
	}
	var req stakinghttp.UpdateRewardParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStakingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.staking.Handler.UpdateRewardParamsHandler(r.Context(), authority, req)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireActor(w, r, writeStakingError)
	if !ok {
		return
	}
	var req stakinghttp.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStakingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.staking.Handler.StakeHandler(r.Context(), owner, req)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireActor(w, r, writeStakingError)
	if !ok {
		return
	}
	resp, err := s.staking.Handler.ClaimRewardHandler(r.Context(), owner)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireActor(w, r, writeStakingError)
	if !ok {
		return
	}
	resp, err := s.staking.Handler.UnstakeHandler(r.Context(), owner)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStakeByOwner(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.PathValue("owner"))
	if owner == "" {
		writeStakingError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}
	resp, err := s.staking.Handler.StakeByOwnerHandler(r.Context(), owner)
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStakeList(w http.ResponseWriter, r *http.Request) {
	resp, err := s.staking.Handler.StakeListHandler(r.Context())
	if err != nil {
		writeStakingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
