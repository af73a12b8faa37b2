package queries

import (
	"context"
	"sort"
	"strings"

	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	"wct/contexts/token-governance/voting-power-registry/ports"
)

type PowerUseCase struct {
	Repo         ports.PowerRepository
	GovernanceID string
}

// VoterPower returns the voter's current registered power; an unregistered
// voter reads as zero, not as an error, because governance treats "no
// record" and "zero power" identically at vote time.
func (uc PowerUseCase) VoterPower(ctx context.Context, voter string) (uint64, error) {
	power, found, err := uc.Repo.GetVoterPower(ctx, uc.GovernanceID, strings.TrimSpace(voter))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return power.VotingPower, nil
}

func (uc PowerUseCase) TotalPower(ctx context.Context) (uint64, error) {
	registry, err := uc.Repo.GetRegistry(ctx, uc.GovernanceID)
	if err != nil {
		return 0, err
	}
	return registry.TotalVotingPower, nil
}

func (uc PowerUseCase) RegistrySummary(ctx context.Context) (entities.Registry, error) {
	return uc.Repo.GetRegistry(ctx, uc.GovernanceID)
}

func (uc PowerUseCase) VoterPowers(ctx context.Context) ([]entities.VoterPower, error) {
	powers, err := uc.Repo.ListVoterPowers(ctx, uc.GovernanceID)
	if err != nil {
		return nil, err
	}
	sort.Slice(powers, func(i, j int) bool {
		return powers[i].Voter < powers[j].Voter
	})
	return powers, nil
}
