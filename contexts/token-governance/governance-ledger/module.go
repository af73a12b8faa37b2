package governanceledger

import (
	"log/slog"

	httpadapter "wct/contexts/token-governance/governance-ledger/adapters/http"
	"wct/contexts/token-governance/governance-ledger/adapters/memory"
	"wct/contexts/token-governance/governance-ledger/application/commands"
	"wct/contexts/token-governance/governance-ledger/application/queries"
	"wct/contexts/token-governance/governance-ledger/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Governance commands.GovernanceUseCase
	Proposals  queries.ProposalUseCase
	Store      *memory.Store
}

type Dependencies struct {
	Repo         ports.GovernanceRepository
	Powers       ports.VotingPowerSource
	Balances     ports.TokenBalanceReader
	Executor     ports.ProposalExecutor
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	GovernanceID string
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	governanceUseCase := commands.GovernanceUseCase{
		Repo:         deps.Repo,
		Powers:       deps.Powers,
		Balances:     deps.Balances,
		Executor:     deps.Executor,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		GovernanceID: deps.GovernanceID,
		Logger:       deps.Logger,
	}
	proposalUseCase := queries.ProposalUseCase{
		Repo:         deps.Repo,
		Powers:       deps.Powers,
		Clock:        deps.Clock,
		GovernanceID: deps.GovernanceID,
	}
	return Module{
		Handler: httpadapter.Handler{
			Governance: governanceUseCase,
			Proposals:  proposalUseCase,
			Logger:     deps.Logger,
		},
		Governance: governanceUseCase,
		Proposals:  proposalUseCase,
	}
}

// NewInMemoryModule wires governance over the in-memory store. Power source,
// balance reader, and executor remain caller-supplied so tests control the
// registry view and observe dispatches.
func NewInMemoryModule(
	powers ports.VotingPowerSource,
	balances ports.TokenBalanceReader,
	executor ports.ProposalExecutor,
	governanceID string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:         store,
		Powers:       powers,
		Balances:     balances,
		Executor:     executor,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		GovernanceID: governanceID,
		Logger:       logger,
	})
	module.Store = store
	return module
}
