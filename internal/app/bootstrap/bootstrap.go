package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	governanceledger "wct/contexts/token-governance/governance-ledger"
	governancepg "wct/contexts/token-governance/governance-ledger/adapters/postgres"
	governanceworkers "wct/contexts/token-governance/governance-ledger/application/workers"
	governanceentities "wct/contexts/token-governance/governance-ledger/domain/entities"
	stakingledger "wct/contexts/token-governance/staking-ledger"
	stakingpg "wct/contexts/token-governance/staking-ledger/adapters/postgres"
	stakingworkers "wct/contexts/token-governance/staking-ledger/application/workers"
	stakingentities "wct/contexts/token-governance/staking-ledger/domain/entities"
	votingpowerregistry "wct/contexts/token-governance/voting-power-registry"
	registrypg "wct/contexts/token-governance/voting-power-registry/adapters/postgres"
	registrycommands "wct/contexts/token-governance/voting-power-registry/application/commands"
	registryworkers "wct/contexts/token-governance/voting-power-registry/application/workers"
	"wct/internal/platform/config"
	"wct/internal/platform/db"
	"wct/internal/platform/httpserver"
	"wct/internal/platform/messaging"
	"wct/internal/shared/tokenledger"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so context code stays framework-agnostic.

// stakingSourceIdentity is the source name the staking ledger presents when
// pushing derived power into the registry. Operators must initialize the
// registry with this value as its authority or registrations are rejected.
const stakingSourceIdentity = "staking-ledger"

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	relays       []relay
	pollInterval time.Duration
	logger       *slog.Logger
}

type relay struct {
	name string
	run  func(ctx context.Context) error
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := migrateAll(pg); err != nil {
		return nil, err
	}

	// One in-process token ledger stands in for the chain token program.
	// Staking custody, proposal balance gates, and treasury payouts all
	// settle against the same balances.
	ledger := tokenledger.New()
	governanceID := governanceentities.GovernanceKey(cfg.TokenMint)

	registryRepo := registrypg.NewRepository(pg.DB, logger)
	registryModule := votingpowerregistry.NewModule(votingpowerregistry.Dependencies{
		Repo:         registryRepo,
		Outbox:       registryRepo,
		Clock:        registrypg.SystemClock{},
		IDGen:        registrypg.UUIDGenerator{},
		GovernanceID: governanceID,
		Logger:       logger,
	})

	stakingRepo := stakingpg.NewRepository(pg.DB, logger)
	stakingModule := stakingledger.NewModule(stakingledger.Dependencies{
		Repo:    stakingRepo,
		Custody: ledger,
		Registrar: stakingRegistrar{
			registrations: registryModule.Registrations,
			source:        stakingSourceIdentity,
		},
		Outbox: stakingRepo,
		Clock:  stakingpg.SystemClock{},
		IDGen:  stakingpg.UUIDGenerator{},
		PoolID: stakingentities.PoolKey(cfg.TokenMint),
		Logger: logger,
	})

	governanceRepo := governancepg.NewRepository(pg.DB, logger)
	governanceModule := governanceledger.NewModule(governanceledger.Dependencies{
		Repo:     governanceRepo,
		Powers:   registryModule.Powers,
		Balances: ledger,
		Executor: treasuryExecutor{
			ledger:   ledger,
			treasury: cfg.TreasuryAccount,
			logger:   logger,
		},
		Outbox:       governanceRepo,
		Clock:        governancepg.SystemClock{},
		IDGen:        governancepg.UUIDGenerator{},
		GovernanceID: governanceID,
		Logger:       logger,
	})

	server := httpserver.New(stakingModule, registryModule, governanceModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := migrateAll(pg); err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	var relays []relay
	if cfg.EnableStakingOutboxRelay {
		stakingRelay := stakingworkers.OutboxRelay{
			Outbox:    stakingpg.NewRepository(pg.DB, logger),
			Publisher: kafka,
			Clock:     stakingpg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		relays = append(relays, relay{name: "staking_outbox", run: stakingRelay.RunOnce})
	}
	if cfg.EnableRegistryOutboxRelay {
		registryRelay := registryworkers.OutboxRelay{
			Outbox:    registrypg.NewRepository(pg.DB, logger),
			Publisher: kafka,
			Clock:     registrypg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		relays = append(relays, relay{name: "registry_outbox", run: registryRelay.RunOnce})
	}
	if cfg.EnableGovernanceOutboxRelay {
		governanceRelay := governanceworkers.OutboxRelay{
			Outbox:    governancepg.NewRepository(pg.DB, logger),
			Publisher: kafka,
			Clock:     governancepg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		relays = append(relays, relay{name: "governance_outbox", run: governanceRelay.RunOnce})
	}

	return &WorkerApp{
		postgres:     pg,
		relays:       relays,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives every enabled relay on a shared tick. Each relay polls in its
// own goroutine so a slow sink in one context does not hold back the others.
func (w *WorkerApp) Run(ctx context.Context) error {
	if len(w.relays) == 0 {
		w.logger.Warn("worker app has no relays enabled",
			"event", "bootstrap_worker_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relays", len(w.relays),
		"poll_interval", w.pollInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, item := range w.relays {
		item := item
		group.Go(func() error {
			ticker := time.NewTicker(w.pollInterval)
			defer ticker.Stop()
			for {
				if err := item.run(groupCtx); err != nil {
					w.logger.Error("relay cycle failed",
						"event", "bootstrap_relay_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"relay", item.name,
						"error", err.Error(),
					)
					return err
				}
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// stakingRegistrar adapts the registry write side to the staking ledger's
// outbound port without the contexts importing each other.
type stakingRegistrar struct {
	registrations registrycommands.RegisterUseCase
	source        string
}

func (r stakingRegistrar) RegisterVotingPower(ctx context.Context, voter string, power uint64) error {
	_, err := r.registrations.RegisterVotingPower(ctx, registrycommands.RegisterPowerCommand{
		Source:      r.source,
		Voter:       voter,
		VotingPower: power,
	})
	return err
}

// treasuryExecutor settles passed treasury withdrawals against the token
// ledger. Other proposal types have no on-ledger effect here; the executed
// record is the outcome.
type treasuryExecutor struct {
	ledger   *tokenledger.Ledger
	treasury string
	logger   *slog.Logger
}

type treasuryWithdrawal struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (e treasuryExecutor) Execute(ctx context.Context, proposal governanceentities.Proposal) error {
	if proposal.ProposalType != governanceentities.ProposalTypeTreasuryWithdrawal {
		e.logger.Info("proposal effect recorded",
			"event", "bootstrap_proposal_effect_recorded",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"proposal_id", proposal.ProposalID,
			"proposal_type", string(proposal.ProposalType),
		)
		return nil
	}

	var payload treasuryWithdrawal
	if err := json.Unmarshal(proposal.ExecutionPayload, &payload); err != nil {
		return err
	}
	to := strings.TrimSpace(payload.To)
	if to == "" || payload.Amount == 0 {
		return errors.New("treasury withdrawal payload requires to and amount")
	}
	if err := e.ledger.Transfer(ctx, e.treasury, to, payload.Amount); err != nil {
		return err
	}

	e.logger.Info("treasury withdrawal settled",
		"event", "bootstrap_treasury_withdrawal_settled",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"proposal_id", proposal.ProposalID,
		"to", to,
		"amount", payload.Amount,
	)
	return nil
}

func migrateAll(pg *db.Postgres) error {
	if err := stakingpg.AutoMigrate(pg.DB); err != nil {
		return err
	}
	if err := registrypg.AutoMigrate(pg.DB); err != nil {
		return err
	}
	return governancepg.AutoMigrate(pg.DB)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
