package httpadapter

import (
	"context"
	"log/slog"

	"wct/contexts/token-governance/governance-ledger/application/commands"
	"wct/contexts/token-governance/governance-ledger/application/queries"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	httptransport "wct/contexts/token-governance/governance-ledger/transport/http"
)

type Handler struct {
	Governance commands.GovernanceUseCase
	Proposals  queries.ProposalUseCase
	Logger     *slog.Logger
}

func (h Handler) InitializeGovernanceHandler(ctx context.Context, req httptransport.InitializeGovernanceRequest) (httptransport.GovernanceResponse, error) {
	config, err := h.Governance.InitializeGovernance(ctx, commands.InitializeGovernanceCommand{
		Authority:             req.Authority,
		TokenMint:             req.TokenMint,
		Treasury:              req.Treasury,
		MinProposalTokens:     req.MinProposalTokens,
		VotingPeriodSeconds:   req.VotingPeriodSeconds,
		ExecutionDelaySeconds: req.ExecutionDelaySeconds,
		QuorumPercentage:      req.QuorumPercentage,
	})
	if err != nil {
		return httptransport.GovernanceResponse{}, err
	}
	return mapGovernance(config), nil
}

func (h Handler) UpdateGovernanceHandler(ctx context.Context, authority string, req httptransport.UpdateGovernanceRequest) (httptransport.GovernanceResponse, error) {
	config, err := h.Governance.UpdateGovernance(ctx, commands.UpdateGovernanceCommand{
		Authority:             authority,
		MinProposalTokens:     req.MinProposalTokens,
		VotingPeriodSeconds:   req.VotingPeriodSeconds,
		ExecutionDelaySeconds: req.ExecutionDelaySeconds,
		QuorumPercentage:      req.QuorumPercentage,
	})
	if err != nil {
		return httptransport.GovernanceResponse{}, err
	}
	return mapGovernance(config), nil
}

func (h Handler) CreateProposalHandler(ctx context.Context, proposer string, req httptransport.CreateProposalRequest) (httptransport.ProposalResponse, error) {
	result, err := h.Governance.CreateProposal(ctx, commands.CreateProposalCommand{
		Proposer:         proposer,
		Title:            req.Title,
		Description:      req.Description,
		ProposalType:     req.ProposalType,
		ExecutionPayload: req.ExecutionPayload,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(result.Proposal, ""), nil
}

func (h Handler) CastVoteHandler(ctx context.Context, voter string, proposalID uint64, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	result, err := h.Governance.CastVote(ctx, commands.CastVoteCommand{
		Voter:      voter,
		ProposalID: proposalID,
		Choice:     req.Choice,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		Proposal: mapProposal(result.Proposal, ""),
		Vote:     mapVote(result.Vote),
		Revote:   result.Revote,
	}, nil
}

func (h Handler) ExecuteProposalHandler(ctx context.Context, executor string, proposalID uint64) (httptransport.ExecuteProposalResponse, error) {
	result, err := h.Governance.ExecuteProposal(ctx, commands.ExecuteProposalCommand{
		Executor:   executor,
		ProposalID: proposalID,
	})
	if err != nil {
		return httptransport.ExecuteProposalResponse{}, err
	}
	return httptransport.ExecuteProposalResponse{
		Proposal:        mapProposal(result.Proposal, ""),
		QuorumThreshold: result.QuorumThreshold,
		TotalVotes:      result.TotalVotes,
	}, nil
}

func (h Handler) CancelProposalHandler(ctx context.Context, actor string, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Governance.CancelProposal(ctx, commands.CancelProposalCommand{
		Actor:      actor,
		ProposalID: proposalID,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal, ""), nil
}

func (h Handler) GovernanceSummaryHandler(ctx context.Context) (httptransport.GovernanceResponse, error) {
	config, err := h.Proposals.GovernanceSummary(ctx)
	if err != nil {
		return httptransport.GovernanceResponse{}, err
	}
	return mapGovernance(config), nil
}

func (h Handler) ProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	view, err := h.Proposals.Proposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(view.Proposal, view.Phase), nil
}

func (h Handler) ProposalListHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	views, err := h.Proposals.Proposals(ctx)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(views))
	for _, view := range views {
		items = append(items, mapProposal(view.Proposal, view.Phase))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func (h Handler) VoteListHandler(ctx context.Context, proposalID uint64) (httptransport.VoteListResponse, error) {
	votes, err := h.Proposals.Votes(ctx, proposalID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) TallyHandler(ctx context.Context, proposalID uint64) (httptransport.TallyResponse, error) {
	tally, err := h.Proposals.Tally(ctx, proposalID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.TallyResponse{
		ProposalID:       tally.ProposalID,
		YesVotes:         tally.YesVotes,
		NoVotes:          tally.NoVotes,
		TotalVotes:       tally.TotalVotes,
		TotalVotingPower: tally.TotalVotingPower,
		QuorumThreshold:  tally.QuorumThreshold,
		QuorumReached:    tally.QuorumReached,
		MajorityReached:  tally.MajorityReached,
	}, nil
}

func mapGovernance(config entities.GovernanceConfig) httptransport.GovernanceResponse {
	return httptransport.GovernanceResponse{
		GovernanceID:          config.GovernanceID,
		Authority:             config.Authority,
		TokenMint:             config.TokenMint,
		Treasury:              config.Treasury,
		MinProposalTokens:     config.MinProposalTokens,
		VotingPeriodSeconds:   config.VotingPeriodSeconds,
		ExecutionDelaySeconds: config.ExecutionDelaySeconds,
		QuorumPercentage:      config.QuorumPercentage,
		ProposalCount:         config.ProposalCount,
	}
}

func mapProposal(proposal entities.Proposal, phase entities.ProposalPhase) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		GovernanceID: proposal.GovernanceID,
		ProposalID:   proposal.ProposalID,
		Proposer:     proposal.Proposer,
		Title:        proposal.Title,
		Description:  proposal.Description,
		ProposalType: string(proposal.ProposalType),
		CreatedAt:    proposal.CreatedAt,
		VotingEndsAt: proposal.VotingEndsAt,
		YesVotes:     proposal.YesVotes,
		NoVotes:      proposal.NoVotes,
		Status:       string(proposal.Status),
		Phase:        string(phase),
	}
}

func mapVote(vote entities.VoteRecord) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		ProposalID:        vote.ProposalID,
		Voter:             vote.Voter,
		Choice:            string(vote.Choice),
		VotingPowerAtCast: vote.VotingPowerAtCast,
		CastAt:            vote.CastAt,
	}
}
