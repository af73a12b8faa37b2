package stakingledger

import (
	"log/slog"

	httpadapter "wct/contexts/token-governance/staking-ledger/adapters/http"
	"wct/contexts/token-governance/staking-ledger/adapters/memory"
	"wct/contexts/token-governance/staking-ledger/application/commands"
	"wct/contexts/token-governance/staking-ledger/application/queries"
	"wct/contexts/token-governance/staking-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Stakes  commands.StakeUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Repo      ports.StakeRepository
	Custody   ports.TokenCustody
	Registrar ports.VotingPowerRegistrar
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	PoolID    string
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	stakeUseCase := commands.StakeUseCase{
		Repo:      deps.Repo,
		Custody:   deps.Custody,
		Registrar: deps.Registrar,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		PoolID:    deps.PoolID,
		Logger:    deps.Logger,
	}
	poolUseCase := queries.PoolUseCase{
		Repo:   deps.Repo,
		PoolID: deps.PoolID,
	}
	return Module{
		Handler: httpadapter.Handler{
			Stakes: stakeUseCase,
			Pools:  poolUseCase,
			Logger: deps.Logger,
		},
		Stakes: stakeUseCase,
	}
}

// NewInMemoryModule wires the staking ledger over the in-memory store.
// Custody and registrar remain caller-supplied so tests control balances and
// observe power registrations.
func NewInMemoryModule(
	custody ports.TokenCustody,
	registrar ports.VotingPowerRegistrar,
	poolID string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:      store,
		Custody:   custody,
		Registrar: registrar,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		PoolID:    poolID,
		Logger:    logger,
	})
	module.Store = store
	return module
}
