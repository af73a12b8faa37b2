package httpadapter

import (
	"context"
	"log/slog"

	"wct/contexts/token-governance/voting-power-registry/application/commands"
	"wct/contexts/token-governance/voting-power-registry/application/queries"
	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	httptransport "wct/contexts/token-governance/voting-power-registry/transport/http"
)

type Handler struct {
	Registrations commands.RegisterUseCase
	Powers        queries.PowerUseCase
	Logger        *slog.Logger
}

func (h Handler) InitializeRegistryHandler(ctx context.Context, governanceID string, req httptransport.InitializeRegistryRequest) (httptransport.RegistryResponse, error) {
	registry, err := h.Registrations.InitializeRegistry(ctx, commands.InitializeRegistryCommand{
		GovernanceID: governanceID,
		Authority:    req.Authority,
	})
	if err != nil {
		return httptransport.RegistryResponse{}, err
	}
	return mapRegistry(registry), nil
}

func (h Handler) RegisterPowerHandler(ctx context.Context, voter string, req httptransport.RegisterPowerRequest) (httptransport.RegisterPowerResponse, error) {
	result, err := h.Registrations.RegisterVotingPower(ctx, commands.RegisterPowerCommand{
		Source:      req.Source,
		Voter:       voter,
		VotingPower: req.VotingPower,
	})
	if err != nil {
		return httptransport.RegisterPowerResponse{}, err
	}
	return httptransport.RegisterPowerResponse{
		Voter:            mapVoterPower(result.Voter),
		OldVotingPower:   result.OldVotingPower,
		TotalVotingPower: result.TotalVotingPower,
	}, nil
}

func (h Handler) RegistrySummaryHandler(ctx context.Context) (httptransport.RegistryResponse, error) {
	registry, err := h.Powers.RegistrySummary(ctx)
	if err != nil {
		return httptransport.RegistryResponse{}, err
	}
	return mapRegistry(registry), nil
}

func (h Handler) VoterPowerHandler(ctx context.Context, voter string) (httptransport.VoterPowerResponse, error) {
	power, err := h.Powers.VoterPower(ctx, voter)
	if err != nil {
		return httptransport.VoterPowerResponse{}, err
	}
	return httptransport.VoterPowerResponse{
		GovernanceID: h.Powers.GovernanceID,
		Voter:        voter,
		VotingPower:  power,
	}, nil
}

func (h Handler) VoterPowerListHandler(ctx context.Context) (httptransport.VoterPowerListResponse, error) {
	powers, err := h.Powers.VoterPowers(ctx)
	if err != nil {
		return httptransport.VoterPowerListResponse{}, err
	}
	items := make([]httptransport.VoterPowerResponse, 0, len(powers))
	for _, power := range powers {
		items = append(items, mapVoterPower(power))
	}
	return httptransport.VoterPowerListResponse{Items: items}, nil
}

func mapVoterPower(power entities.VoterPower) httptransport.VoterPowerResponse {
	return httptransport.VoterPowerResponse{
		GovernanceID: power.GovernanceID,
		Voter:        power.Voter,
		VotingPower:  power.VotingPower,
		UpdatedAt:    power.UpdatedAt,
	}
}

func mapRegistry(registry entities.Registry) httptransport.RegistryResponse {
	return httptransport.RegistryResponse{
		GovernanceID:     registry.GovernanceID,
		Authority:        registry.Authority,
		TotalVotingPower: registry.TotalVotingPower,
		CreatedAt:        registry.CreatedAt,
		UpdatedAt:        registry.UpdatedAt,
	}
}
