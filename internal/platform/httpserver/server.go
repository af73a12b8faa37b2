package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	governanceledger "wct/contexts/token-governance/governance-ledger"
	stakingledger "wct/contexts/token-governance/staking-ledger"
	votingpowerregistry "wct/contexts/token-governance/voting-power-registry"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "wct/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	staking    stakingledger.Module
	registry   votingpowerregistry.Module
	governance governanceledger.Module
}

func New(
	staking stakingledger.Module,
	registry votingpowerregistry.Module,
	governance governanceledger.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		staking:    staking,
		registry:   registry,
		governance: governance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/staking/v1/pool", s.handleInitializePool)
	s.mux.HandleFunc("GET /api/staking/v1/pool", s.handlePoolSummary)
	s.mux.HandleFunc("PATCH /api/staking/v1/pool/params", s.handleUpdateRewardParams)
	s.mux.HandleFunc("POST /api/staking/v1/stakes", s.handleStake)
	s.mux.HandleFunc("GET /api/staking/v1/stakes", s.handleStakeList)
	s.mux.HandleFunc("GET /api/staking/v1/stakes/{owner}", s.handleStakeByOwner)
	s.mux.HandleFunc("POST /api/staking/v1/stakes/claim", s.handleClaimReward)
	s.mux.HandleFunc("POST /api/staking/v1/stakes/unstake", s.handleUnstake)

	s.mux.HandleFunc("POST /api/registry/v1/registry", s.handleInitializeRegistry)
	s.mux.HandleFunc("GET /api/registry/v1/registry", s.handleRegistrySummary)
	s.mux.HandleFunc("PUT /api/registry/v1/voters/{voter}", s.handleRegisterPower)
	s.mux.HandleFunc("GET /api/registry/v1/voters/{voter}", s.handleVoterPower)
	s.mux.HandleFunc("GET /api/registry/v1/voters", s.handleVoterPowerList)

	s.mux.HandleFunc("POST /api/governance/v1/governance", s.handleInitializeGovernance)
	s.mux.HandleFunc("GET /api/governance/v1/governance", s.handleGovernanceSummary)
	s.mux.HandleFunc("PATCH /api/governance/v1/governance", s.handleUpdateGovernance)
	s.mux.HandleFunc("POST /api/governance/v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /api/governance/v1/proposals", s.handleProposalList)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}", s.handleProposal)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/votes", s.handleVoteList)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/tally", s.handleTally)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/execute", s.handleExecuteProposal)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/cancel", s.handleCancelProposal)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
