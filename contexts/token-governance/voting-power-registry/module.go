package votingpowerregistry

import (
	"log/slog"

	httpadapter "wct/contexts/token-governance/voting-power-registry/adapters/http"
	"wct/contexts/token-governance/voting-power-registry/adapters/memory"
	"wct/contexts/token-governance/voting-power-registry/application/commands"
	"wct/contexts/token-governance/voting-power-registry/application/queries"
	"wct/contexts/token-governance/voting-power-registry/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	Registrations commands.RegisterUseCase
	Powers        queries.PowerUseCase
	Store         *memory.Store
}

type Dependencies struct {
	Repo         ports.PowerRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	GovernanceID string
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	registerUseCase := commands.RegisterUseCase{
		Repo:         deps.Repo,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		GovernanceID: deps.GovernanceID,
		Logger:       deps.Logger,
	}
	powerUseCase := queries.PowerUseCase{
		Repo:         deps.Repo,
		GovernanceID: deps.GovernanceID,
	}
	return Module{
		Handler: httpadapter.Handler{
			Registrations: registerUseCase,
			Powers:        powerUseCase,
			Logger:        deps.Logger,
		},
		Registrations: registerUseCase,
		Powers:        powerUseCase,
	}
}

// NewInMemoryModule wires the registry over the in-memory store.
func NewInMemoryModule(governanceID string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:         store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		GovernanceID: governanceID,
		Logger:       logger,
	})
	module.Store = store
	return module
}
