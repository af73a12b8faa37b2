package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "wct/contexts/token-governance/voting-power-registry/application"
	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	domainerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
	"wct/contexts/token-governance/voting-power-registry/ports"
)

// InitializeRegistryCommand creates the singleton registry for a governance
// instance and names the power source allowed to write it.
type InitializeRegistryCommand struct {
	GovernanceID string
	Authority    string
}

// RegisterPowerCommand is the idempotent upsert of one voter's power.
type RegisterPowerCommand struct {
	Source      string
	Voter       string
	VotingPower uint64
}

type RegisterPowerResult struct {
	Voter            entities.VoterPower
	OldVotingPower   uint64
	TotalVotingPower uint64
}

// RegisterUseCase maintains the voter → power mapping and its running total.
// The registry is written by the staking ledger (or any source holding the
// registry authority identity) and read by governance at vote time.
type RegisterUseCase struct {
	Repo         ports.PowerRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	GovernanceID string
	Logger       *slog.Logger
}

func (uc RegisterUseCase) InitializeRegistry(ctx context.Context, cmd InitializeRegistryCommand) (entities.Registry, error) {
	logger := application.ResolveLogger(uc.Logger)
	governanceID := strings.TrimSpace(cmd.GovernanceID)
	authority := strings.TrimSpace(cmd.Authority)
	if governanceID == "" || authority == "" {
		return entities.Registry{}, domainerrors.ErrInvalidRegistryInput
	}
	if _, err := uc.Repo.GetRegistry(ctx, governanceID); err == nil {
		return entities.Registry{}, domainerrors.ErrRegistryAlreadyExists
	}

	now := uc.now().Unix()
	registry := entities.Registry{
		GovernanceID:     governanceID,
		Authority:        authority,
		TotalVotingPower: 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.Repo.SaveRegistry(ctx, registry); err != nil {
		return entities.Registry{}, err
	}

	logger.Info("voting power registry initialized",
		"event", "registry_initialized",
		"module", "token-governance/voting-power-registry",
		"layer", "application",
		"governance_id", governanceID,
	)
	return registry, nil
}

// RegisterVotingPower upserts one voter's power and retotals the registry.
// Calling it twice with the same power is a no-op on the total, so power
// sources may retry freely.
func (uc RegisterUseCase) RegisterVotingPower(ctx context.Context, cmd RegisterPowerCommand) (RegisterPowerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	source := strings.TrimSpace(cmd.Source)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" {
		return RegisterPowerResult{}, domainerrors.ErrInvalidRegistryInput
	}

	registry, err := uc.Repo.GetRegistry(ctx, uc.GovernanceID)
	if err != nil {
		return RegisterPowerResult{}, err
	}
	if source != registry.Authority {
		logger.Warn("power registration rejected",
			"event", "registry_register_unauthorized",
			"module", "token-governance/voting-power-registry",
			"layer", "application",
			"governance_id", registry.GovernanceID,
			"source", source,
		)
		return RegisterPowerResult{}, domainerrors.ErrUnauthorizedSource
	}

	var oldPower uint64
	if existing, found, err := uc.Repo.GetVoterPower(ctx, registry.GovernanceID, voter); err != nil {
		return RegisterPowerResult{}, err
	} else if found {
		oldPower = existing.VotingPower
	}

	newTotal, err := registry.ApplyPowerChange(oldPower, cmd.VotingPower)
	if err != nil {
		logger.Error("power retotal failed",
			"event", "registry_retotal_failed",
			"module", "token-governance/voting-power-registry",
			"layer", "application",
			"governance_id", registry.GovernanceID,
			"voter", voter,
			"old_power", oldPower,
			"new_power", cmd.VotingPower,
			"error", err.Error(),
		)
		return RegisterPowerResult{}, err
	}

	now := uc.now().Unix()
	registry.TotalVotingPower = newTotal
	registry.UpdatedAt = now
	power := entities.VoterPower{
		GovernanceID: registry.GovernanceID,
		Voter:        voter,
		VotingPower:  cmd.VotingPower,
		UpdatedAt:    now,
	}
	if err := uc.Repo.ApplyPowerUpdate(ctx, registry, power); err != nil {
		return RegisterPowerResult{}, err
	}
	if err := uc.appendPowerEvent(ctx, voter, oldPower, cmd.VotingPower, newTotal); err != nil {
		return RegisterPowerResult{}, err
	}

	logger.Info("voting power registered",
		"event", "registry_power_registered",
		"module", "token-governance/voting-power-registry",
		"layer", "application",
		"governance_id", registry.GovernanceID,
		"voter", voter,
		"old_power", oldPower,
		"new_power", cmd.VotingPower,
		"total_power", newTotal,
	)
	return RegisterPowerResult{
		Voter:            power,
		OldVotingPower:   oldPower,
		TotalVotingPower: newTotal,
	}, nil
}

func (uc RegisterUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc RegisterUseCase) appendPowerEvent(
	ctx context.Context,
	voter string,
	oldPower uint64,
	newPower uint64,
	totalPower uint64,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"governance_id": uc.GovernanceID,
		"voter":         voter,
		"old_power":     oldPower,
		"new_power":     newPower,
		"total_power":   totalPower,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "registry.power_updated",
		OccurredAt:       uc.now(),
		SourceService:    "voting-power-registry",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "voter",
		PartitionKey:     voter,
		Data:             payload,
	})
}
