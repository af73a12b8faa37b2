package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"wct/contexts/token-governance/governance-ledger/adapters/memory"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
)

const (
	testMint         = "mint-1"
	testGovernanceID = "governance:" + testMint
	votingPeriod     = int64(7 * 24 * 60 * 60)
	executionDelay   = int64(60 * 60)
)

type powerSourceStub struct {
	powers map[string]uint64
	total  uint64
}

func (p *powerSourceStub) VoterPower(_ context.Context, voter string) (uint64, error) {
	return p.powers[voter], nil
}

func (p *powerSourceStub) TotalPower(_ context.Context) (uint64, error) {
	return p.total, nil
}

type balanceStub map[string]uint64

func (b balanceStub) BalanceOf(_ context.Context, account string) (uint64, error) {
	return b[account], nil
}

type executorRecorder struct {
	dispatched []entities.Proposal
	fail       error
}

func (e *executorRecorder) Execute(_ context.Context, proposal entities.Proposal) error {
	if e.fail != nil {
		return e.fail
	}
	e.dispatched = append(e.dispatched, proposal)
	return nil
}

func newGovernanceFixture(t *testing.T, powers *powerSourceStub, balances balanceStub, executor *executorRecorder) (GovernanceUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	uc := GovernanceUseCase{
		Repo:         store,
		Powers:       powers,
		Balances:     balances,
		Executor:     executor,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		GovernanceID: testGovernanceID,
	}
	if _, err := uc.InitializeGovernance(context.Background(), InitializeGovernanceCommand{
		Authority:             "dao-admin",
		TokenMint:             testMint,
		Treasury:              "treasury",
		MinProposalTokens:     500,
		VotingPeriodSeconds:   votingPeriod,
		ExecutionDelaySeconds: executionDelay,
		QuorumPercentage:      50,
	}); err != nil {
		t.Fatalf("initialize governance failed: %v", err)
	}
	return uc, store
}

func TestInitializeGovernanceValidation(t *testing.T) {
	store := memory.NewStore()
	uc := GovernanceUseCase{Repo: store, Outbox: store, Clock: store, IDGen: store, GovernanceID: testGovernanceID}

	cases := []struct {
		name string
		cmd  InitializeGovernanceCommand
		want error
	}{
		{
			"zero quorum",
			InitializeGovernanceCommand{Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 1, QuorumPercentage: 0},
			domainerrors.ErrInvalidQuorumPercentage,
		},
		{
			"quorum above 100",
			InitializeGovernanceCommand{Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 1, QuorumPercentage: 101},
			domainerrors.ErrInvalidQuorumPercentage,
		},
		{
			"non-positive voting period",
			InitializeGovernanceCommand{Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 0, QuorumPercentage: 50},
			domainerrors.ErrInvalidVotingPeriod,
		},
		{
			"negative execution delay",
			InitializeGovernanceCommand{Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 1, ExecutionDelaySeconds: -1, QuorumPercentage: 50},
			domainerrors.ErrInvalidExecutionDelay,
		},
	}
	for _, tc := range cases {
		if _, err := uc.InitializeGovernance(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := uc.InitializeGovernance(context.Background(), InitializeGovernanceCommand{
		Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 1, QuorumPercentage: 100,
	}); err != nil {
		t.Fatalf("boundary quorum 100 must be accepted: %v", err)
	}
	if _, err := uc.InitializeGovernance(context.Background(), InitializeGovernanceCommand{
		Authority: "a", TokenMint: testMint, Treasury: "t", VotingPeriodSeconds: 1, QuorumPercentage: 100,
	}); !errors.Is(err, domainerrors.ErrGovernanceAlreadyExists) {
		t.Fatalf("expected duplicate governance error, got %v", err)
	}
}

func TestUpdateGovernanceAppliesOnlyProvidedFields(t *testing.T) {
	uc, _ := newGovernanceFixture(t, &powerSourceStub{}, balanceStub{}, &executorRecorder{})

	newQuorum := uint64(75)
	if _, err := uc.UpdateGovernance(context.Background(), UpdateGovernanceCommand{
		Authority:        "mallory",
		QuorumPercentage: &newQuorum,
	}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized update, got %v", err)
	}

	config, err := uc.UpdateGovernance(context.Background(), UpdateGovernanceCommand{
		Authority:        "dao-admin",
		QuorumPercentage: &newQuorum,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if config.QuorumPercentage != 75 {
		t.Fatalf("expected quorum 75, got %d", config.QuorumPercentage)
	}
	if config.VotingPeriodSeconds != votingPeriod || config.MinProposalTokens != 500 {
		t.Fatalf("untouched fields changed: period=%d min=%d", config.VotingPeriodSeconds, config.MinProposalTokens)
	}

	badQuorum := uint64(0)
	if _, err := uc.UpdateGovernance(context.Background(), UpdateGovernanceCommand{
		Authority:        "dao-admin",
		QuorumPercentage: &badQuorum,
	}); !errors.Is(err, domainerrors.ErrInvalidQuorumPercentage) {
		t.Fatalf("expected quorum validation on update, got %v", err)
	}
}

func TestCreateProposalBalanceGateAndMonotonicIDs(t *testing.T) {
	uc, _ := newGovernanceFixture(t, &powerSourceStub{}, balanceStub{"alice": 1000, "bob": 10}, &executorRecorder{})

	if _, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "bob", Title: "underfunded", ProposalType: "other",
	}); !errors.Is(err, domainerrors.ErrInsufficientTokens) {
		t.Fatalf("expected insufficient tokens, got %v", err)
	}

	first, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "first", ProposalType: "other",
	})
	if err != nil {
		t.Fatalf("first proposal failed: %v", err)
	}
	second, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "second", ProposalType: "parameter_change",
	})
	if err != nil {
		t.Fatalf("second proposal failed: %v", err)
	}
	if first.Proposal.ProposalID != 1 || second.Proposal.ProposalID != 2 {
		t.Fatalf("expected monotonic ids 1,2, got %d,%d", first.Proposal.ProposalID, second.Proposal.ProposalID)
	}
	if first.Proposal.VotingEndsAt != first.Proposal.CreatedAt+votingPeriod {
		t.Fatalf("expected voting window of %d seconds", votingPeriod)
	}

	if _, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "bad type", ProposalType: "coup",
	}); !errors.Is(err, domainerrors.ErrInvalidProposalType) {
		t.Fatalf("expected invalid proposal type, got %v", err)
	}
}

func TestCastVoteReadsRegistryAtEachCast(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 60, "bob": 40}, total: 100}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, &executorRecorder{})

	created, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	first, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if first.Revote || first.Proposal.YesVotes != 60 || first.Proposal.NoVotes != 0 {
		t.Fatalf("unexpected first vote state: revote=%v yes=%d no=%d", first.Revote, first.Proposal.YesVotes, first.Proposal.NoVotes)
	}

	// The registry moved between casts; the revote must subtract the old
	// snapshot and add the current reading.
	powers.powers["alice"] = 55
	revote, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "no"})
	if err != nil {
		t.Fatalf("revote failed: %v", err)
	}
	if !revote.Revote {
		t.Fatalf("expected revote flag")
	}
	if revote.Proposal.YesVotes != 0 || revote.Proposal.NoVotes != 55 {
		t.Fatalf("expected tallies 0/55 after revote, got %d/%d", revote.Proposal.YesVotes, revote.Proposal.NoVotes)
	}

	abstain, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "bob", ProposalID: proposalID, Choice: "abstain"})
	if err != nil {
		t.Fatalf("abstain failed: %v", err)
	}
	if abstain.Proposal.YesVotes != 0 || abstain.Proposal.NoVotes != 55 {
		t.Fatalf("abstain must not move tallies, got %d/%d", abstain.Proposal.YesVotes, abstain.Proposal.NoVotes)
	}
	if vote, found, _ := store.GetVote(context.Background(), testGovernanceID, proposalID, "bob"); !found || vote.Choice != entities.VoteChoiceAbstain {
		t.Fatalf("expected recorded abstain vote, found=%v", found)
	}

	votes, err := store.ListVotes(context.Background(), testGovernanceID, proposalID)
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected one slot per voter, got %d", len(votes))
	}
}

func TestCastVoteGates(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 60}, total: 100}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, &executorRecorder{})

	created, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "nobody", ProposalID: proposalID, Choice: "yes"}); !errors.Is(err, domainerrors.ErrNoVotingPower) {
		t.Fatalf("expected no voting power, got %v", err)
	}
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "perhaps"}); !errors.Is(err, domainerrors.ErrInvalidVoteChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: 99, Choice: "yes"}); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected proposal not found, got %v", err)
	}

	// Voting window closes exactly at votingEndsAt.
	store.AdvanceNow(time.Duration(votingPeriod) * time.Second)
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); !errors.Is(err, domainerrors.ErrVotingClosed) {
		t.Fatalf("expected voting closed, got %v", err)
	}
}

func TestExecuteProposalQuorumAndMajority(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 60, "bob": 40}, total: 100}
	executor := &executorRecorder{}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, executor)

	created, err := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); err != nil {
		t.Fatalf("yes vote failed: %v", err)
	}
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "bob", ProposalID: proposalID, Choice: "no"}); err != nil {
		t.Fatalf("no vote failed: %v", err)
	}

	if _, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrVotingStillOpen) {
		t.Fatalf("expected voting still open, got %v", err)
	}

	store.AdvanceNow(time.Duration(votingPeriod) * time.Second)
	if _, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrExecutionDelayNotPassed) {
		t.Fatalf("expected delay gate, got %v", err)
	}

	store.AdvanceNow(time.Duration(executionDelay) * time.Second)
	result, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.QuorumThreshold != 50 || result.TotalVotes != 100 {
		t.Fatalf("expected threshold 50 and total 100, got %d/%d", result.QuorumThreshold, result.TotalVotes)
	}
	if result.Proposal.Status != entities.ProposalStatusExecuted {
		t.Fatalf("expected executed status, got %s", result.Proposal.Status)
	}
	if len(executor.dispatched) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(executor.dispatched))
	}

	if _, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrProposalAlreadyExecuted) {
		t.Fatalf("expected already executed, got %v", err)
	}
	if len(executor.dispatched) != 1 {
		t.Fatalf("re-execution must not dispatch again, got %d", len(executor.dispatched))
	}
}

func TestExecuteProposalQuorumNotReached(t *testing.T) {
	// Quorum counts yes+no only: two yes voters out of a large total miss
	// the threshold even though nobody voted against.
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 60, "bob": 40}, total: 1000}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, &executorRecorder{})

	created, _ := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	proposalID := created.Proposal.ProposalID
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	store.AdvanceNow(time.Duration(votingPeriod+executionDelay) * time.Second)
	_, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID})
	if !errors.Is(err, domainerrors.ErrQuorumNotReached) {
		t.Fatalf("expected quorum not reached, got %v", err)
	}
}

func TestExecuteProposalTieFails(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 50, "bob": 50}, total: 100}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, &executorRecorder{})

	created, _ := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	proposalID := created.Proposal.ProposalID
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); err != nil {
		t.Fatalf("yes vote failed: %v", err)
	}
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "bob", ProposalID: proposalID, Choice: "no"}); err != nil {
		t.Fatalf("no vote failed: %v", err)
	}

	store.AdvanceNow(time.Duration(votingPeriod+executionDelay) * time.Second)
	_, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID})
	if !errors.Is(err, domainerrors.ErrProposalNotPassed) {
		t.Fatalf("tie must fail strict majority, got %v", err)
	}
}

func TestExecuteLatchCommitsBeforeDispatch(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 100}, total: 100}
	executor := &executorRecorder{fail: errors.New("sink offline")}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000}, executor)

	created, _ := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	proposalID := created.Proposal.ProposalID
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	store.AdvanceNow(time.Duration(votingPeriod+executionDelay) * time.Second)
	if _, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID}); err == nil {
		t.Fatalf("expected dispatch failure to surface")
	}

	proposal, err := store.GetProposal(context.Background(), testGovernanceID, proposalID)
	if err != nil {
		t.Fatalf("proposal lookup failed: %v", err)
	}
	if proposal.Status != entities.ProposalStatusExecuted {
		t.Fatalf("latch must commit before dispatch, got status %s", proposal.Status)
	}
	if _, err := uc.ExecuteProposal(context.Background(), ExecuteProposalCommand{Executor: "keeper", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrProposalAlreadyExecuted) {
		t.Fatalf("expected already executed after latch, got %v", err)
	}
}

func TestCancelProposalAuthorizationAndLatch(t *testing.T) {
	powers := &powerSourceStub{powers: map[string]uint64{"alice": 100}, total: 100}
	uc, store := newGovernanceFixture(t, powers, balanceStub{"alice": 1000, "carol": 1000}, &executorRecorder{})

	created, _ := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "alice", Title: "proposal", ProposalType: "other",
	})
	proposalID := created.Proposal.ProposalID

	if _, err := uc.CancelProposal(context.Background(), CancelProposalCommand{Actor: "mallory", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrUnauthorizedCancellation) {
		t.Fatalf("expected unauthorized cancellation, got %v", err)
	}
	unchanged, _ := store.GetProposal(context.Background(), testGovernanceID, proposalID)
	if unchanged.Status != entities.ProposalStatusActive {
		t.Fatalf("rejected cancel must leave the proposal active, got %s", unchanged.Status)
	}

	cancelled, err := uc.CancelProposal(context.Background(), CancelProposalCommand{Actor: "alice", ProposalID: proposalID})
	if err != nil {
		t.Fatalf("proposer cancel failed: %v", err)
	}
	if cancelled.Status != entities.ProposalStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if _, err := uc.CastVote(context.Background(), CastVoteCommand{Voter: "alice", ProposalID: proposalID, Choice: "yes"}); !errors.Is(err, domainerrors.ErrProposalCancelled) {
		t.Fatalf("expected cancelled gate on vote, got %v", err)
	}
	if _, err := uc.CancelProposal(context.Background(), CancelProposalCommand{Actor: "alice", ProposalID: proposalID}); !errors.Is(err, domainerrors.ErrProposalCancelled) {
		t.Fatalf("expected cancelled latch, got %v", err)
	}

	// The governance authority may cancel someone else's proposal.
	other, _ := uc.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer: "carol", Title: "another", ProposalType: "other",
	})
	if _, err := uc.CancelProposal(context.Background(), CancelProposalCommand{Actor: "dao-admin", ProposalID: other.Proposal.ProposalID}); err != nil {
		t.Fatalf("authority cancel failed: %v", err)
	}
}
