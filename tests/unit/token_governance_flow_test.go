package unit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	governanceledger "wct/contexts/token-governance/governance-ledger"
	governancecommands "wct/contexts/token-governance/governance-ledger/application/commands"
	governanceentities "wct/contexts/token-governance/governance-ledger/domain/entities"
	stakingledger "wct/contexts/token-governance/staking-ledger"
	stakingcommands "wct/contexts/token-governance/staking-ledger/application/commands"
	stakingentities "wct/contexts/token-governance/staking-ledger/domain/entities"
	votingpowerregistry "wct/contexts/token-governance/voting-power-registry"
	registrycommands "wct/contexts/token-governance/voting-power-registry/application/commands"
	"wct/internal/shared/tokenledger"
)

const (
	flowMint     = "mint-1"
	flowTreasury = "treasury"
	flowVault    = "vault"
)

// registrarGlue is the same one-way adapter the composition root uses: the
// staking ledger pushes derived power into the registry under a fixed source
// identity.
type registrarGlue struct {
	registrations registrycommands.RegisterUseCase
}

func (g registrarGlue) RegisterVotingPower(ctx context.Context, voter string, power uint64) error {
	_, err := g.registrations.RegisterVotingPower(ctx, registrycommands.RegisterPowerCommand{
		Source:      "staking-ledger",
		Voter:       voter,
		VotingPower: power,
	})
	return err
}

// treasuryGlue settles treasury withdrawals against the shared token ledger.
type treasuryGlue struct {
	ledger *tokenledger.Ledger
}

func (g treasuryGlue) Execute(ctx context.Context, proposal governanceentities.Proposal) error {
	if proposal.ProposalType != governanceentities.ProposalTypeTreasuryWithdrawal {
		return nil
	}
	var payload struct {
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if err := json.Unmarshal(proposal.ExecutionPayload, &payload); err != nil {
		return err
	}
	return g.ledger.Transfer(ctx, flowTreasury, payload.To, payload.Amount)
}

func TestStakeVoteExecuteFlow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	governanceID := governanceentities.GovernanceKey(flowMint)

	ledger := tokenledger.NewSeeded(map[string]uint64{
		"alice":      10_000_000_000,
		"bob":        5_000_000_000,
		flowTreasury: 1_000_000_000,
	})

	registry := votingpowerregistry.NewInMemoryModule(governanceID, nil)
	registry.Store.SetNow(start)
	if _, err := registry.Registrations.InitializeRegistry(ctx, registrycommands.InitializeRegistryCommand{
		GovernanceID: governanceID,
		Authority:    "staking-ledger",
	}); err != nil {
		t.Fatalf("initialize registry failed: %v", err)
	}

	staking := stakingledger.NewInMemoryModule(ledger, registrarGlue{registrations: registry.Registrations}, stakingentities.PoolKey(flowMint), nil)
	staking.Store.SetNow(start)
	if _, err := staking.Stakes.InitializePool(ctx, stakingcommands.InitializePoolCommand{
		Authority:       "pool-admin",
		TokenMint:       flowMint,
		TreasuryAccount: flowTreasury,
		VaultAccount:    flowVault,
	}); err != nil {
		t.Fatalf("initialize pool failed: %v", err)
	}

	governance := governanceledger.NewInMemoryModule(registry.Powers, ledger, treasuryGlue{ledger: ledger}, governanceID, nil)
	governance.Store.SetNow(start)
	if _, err := governance.Governance.InitializeGovernance(ctx, governancecommands.InitializeGovernanceCommand{
		Authority:             "dao-admin",
		TokenMint:             flowMint,
		Treasury:              flowTreasury,
		MinProposalTokens:     1_000_000_000,
		VotingPeriodSeconds:   7 * stakingentities.Day,
		ExecutionDelaySeconds: 3600,
		QuorumPercentage:      50,
	}); err != nil {
		t.Fatalf("initialize governance failed: %v", err)
	}

	// Staking derives voting power and pushes it through the registry:
	// 6 tokens at 3x and 4 tokens at 1.5x.
	if _, err := staking.Stakes.Stake(ctx, stakingcommands.StakeCommand{
		Owner: "alice", Amount: 6_000_000_000, DurationSeconds: stakingentities.Tier365Days,
	}); err != nil {
		t.Fatalf("alice stake failed: %v", err)
	}
	if _, err := staking.Stakes.Stake(ctx, stakingcommands.StakeCommand{
		Owner: "bob", Amount: 4_000_000_000, DurationSeconds: stakingentities.Tier90Days,
	}); err != nil {
		t.Fatalf("bob stake failed: %v", err)
	}

	total, err := registry.Powers.TotalPower(ctx)
	if err != nil {
		t.Fatalf("total power failed: %v", err)
	}
	if total != 24 {
		t.Fatalf("expected registry total 24 (18+6), got %d", total)
	}

	payload, _ := json.Marshal(map[string]any{"to": "carol", "amount": 250})
	created, err := governance.Governance.CreateProposal(ctx, governancecommands.CreateProposalCommand{
		Proposer:         "alice",
		Title:            "fund carol",
		Description:      "pay out 250 from the treasury",
		ProposalType:     "treasury_withdrawal",
		ExecutionPayload: payload,
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := governance.Governance.CastVote(ctx, governancecommands.CastVoteCommand{
		Voter: "alice", ProposalID: proposalID, Choice: "yes",
	}); err != nil {
		t.Fatalf("alice vote failed: %v", err)
	}
	vote, err := governance.Governance.CastVote(ctx, governancecommands.CastVoteCommand{
		Voter: "bob", ProposalID: proposalID, Choice: "no",
	})
	if err != nil {
		t.Fatalf("bob vote failed: %v", err)
	}
	if vote.Proposal.YesVotes != 18 || vote.Proposal.NoVotes != 6 {
		t.Fatalf("expected tallies 18/6, got %d/%d", vote.Proposal.YesVotes, vote.Proposal.NoVotes)
	}

	tally, err := governance.Proposals.Tally(ctx, proposalID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if !tally.QuorumReached || !tally.MajorityReached || tally.QuorumThreshold != 12 {
		t.Fatalf("expected passing tally with threshold 12, got %+v", tally)
	}

	governance.Store.AdvanceNow(time.Duration(7*stakingentities.Day+3600) * time.Second)
	result, err := governance.Governance.ExecuteProposal(ctx, governancecommands.ExecuteProposalCommand{
		Executor: "keeper", ProposalID: proposalID,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.Proposal.Status != governanceentities.ProposalStatusExecuted {
		t.Fatalf("expected executed proposal, got %s", result.Proposal.Status)
	}

	carol, _ := ledger.BalanceOf(ctx, "carol")
	if carol != 250 {
		t.Fatalf("expected treasury payout of 250 to carol, got %d", carol)
	}

	// Unstaking re-registers power zero and the registry total follows.
	staking.Store.AdvanceNow(time.Duration(stakingentities.Tier90Days) * time.Second)
	if _, err := staking.Stakes.Unstake(ctx, stakingcommands.UnstakeCommand{Owner: "bob"}); err != nil {
		t.Fatalf("bob unstake failed: %v", err)
	}
	total, err = registry.Powers.TotalPower(ctx)
	if err != nil {
		t.Fatalf("total power failed: %v", err)
	}
	if total != 18 {
		t.Fatalf("expected registry total 18 after bob unstaked, got %d", total)
	}

	bobPower, err := registry.Powers.VoterPower(ctx, "bob")
	if err != nil {
		t.Fatalf("voter power failed: %v", err)
	}
	if bobPower != 0 {
		t.Fatalf("expected bob power 0, got %d", bobPower)
	}
}

func TestStakeRegistrationFailureAbortsStake(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	governanceID := governanceentities.GovernanceKey(flowMint)

	ledger := tokenledger.NewSeeded(map[string]uint64{"alice": 2_000_000_000})

	// Registry initialized under a different authority: the staking ledger's
	// pushes are rejected and the stake must surface the failure.
	registry := votingpowerregistry.NewInMemoryModule(governanceID, nil)
	registry.Store.SetNow(start)
	if _, err := registry.Registrations.InitializeRegistry(ctx, registrycommands.InitializeRegistryCommand{
		GovernanceID: governanceID,
		Authority:    "someone-else",
	}); err != nil {
		t.Fatalf("initialize registry failed: %v", err)
	}

	staking := stakingledger.NewInMemoryModule(ledger, registrarGlue{registrations: registry.Registrations}, stakingentities.PoolKey(flowMint), nil)
	staking.Store.SetNow(start)
	if _, err := staking.Stakes.InitializePool(ctx, stakingcommands.InitializePoolCommand{
		Authority:       "pool-admin",
		TokenMint:       flowMint,
		TreasuryAccount: flowTreasury,
		VaultAccount:    flowVault,
	}); err != nil {
		t.Fatalf("initialize pool failed: %v", err)
	}

	_, err := staking.Stakes.Stake(ctx, stakingcommands.StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: stakingentities.Tier30Days,
	})
	if err == nil {
		t.Fatalf("expected stake to fail when registration is rejected")
	}
	total, err := registry.Powers.TotalPower(ctx)
	if err != nil || total != 0 {
		t.Fatalf("expected empty registry, total=%d err=%v", total, err)
	}

	// The whole transaction rolls back: no stake row, no principal movement,
	// no pool totals.
	if _, found, _ := staking.Store.GetStake(ctx, staking.Stakes.PoolID, "alice"); found {
		t.Fatalf("expected no stake row after rejected registration")
	}
	alice, _ := ledger.BalanceOf(ctx, "alice")
	if alice != 2_000_000_000 {
		t.Fatalf("expected alice balance untouched, got %d", alice)
	}
	vault, _ := ledger.BalanceOf(ctx, flowVault)
	if vault != 0 {
		t.Fatalf("expected empty vault, got %d", vault)
	}
	pool, err := staking.Store.GetPool(ctx, staking.Stakes.PoolID)
	if err != nil {
		t.Fatalf("pool lookup failed: %v", err)
	}
	if pool.TotalStaked != 0 || pool.StakerCount != 0 {
		t.Fatalf("expected pool untouched, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}
}
