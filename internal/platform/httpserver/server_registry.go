package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	registryerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
	registryhttp "wct/contexts/token-governance/voting-power-registry/transport/http"
)

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{Code: code, Message: message})
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidRegistryInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registryerrors.ErrRegistryNotFound),
		errors.Is(err, registryerrors.ErrVoterNotFound):
		writeRegistryError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, registryerrors.ErrRegistryAlreadyExists):
		writeRegistryError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, registryerrors.ErrUnauthorizedSource):
		writeRegistryError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, registryerrors.ErrTotalPowerOverflow),
		errors.Is(err, registryerrors.ErrTotalPowerInconsistent):
		writeRegistryError(w, http.StatusInternalServerError, "bookkeeping_violation", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleInitializeRegistry(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.InitializeRegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.InitializeRegistryHandler(
		r.Context(),
		s.registry.Registrations.GovernanceID,
		req,
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRegistrySummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.RegistrySummaryHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterPower(w http.ResponseWriter, r *http.Request) {
	voter := strings.TrimSpace(r.PathValue("voter"))
	if voter == "" {
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", "voter is required")
		return
	}
	var req registryhttp.RegisterPowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		req.Source = strings.TrimSpace(r.Header.Get("X-User-Id"))
	}
	resp, err := s.registry.Handler.RegisterPowerHandler(r.Context(), voter, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterPower(w http.ResponseWriter, r *http.Request) {
	voter := strings.TrimSpace(r.PathValue("voter"))
	if voter == "" {
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", "voter is required")
		return
	}
	resp, err := s.registry.Handler.VoterPowerHandler(r.Context(), voter)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterPowerList(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.VoterPowerListHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
