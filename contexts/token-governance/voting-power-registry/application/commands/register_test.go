package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"wct/contexts/token-governance/voting-power-registry/adapters/memory"
	domainerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
)

const testGovernanceID = "governance:mint-1"

func newRegistryFixture(t *testing.T) (RegisterUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	uc := RegisterUseCase{
		Repo:         store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		GovernanceID: testGovernanceID,
	}
	if _, err := uc.InitializeRegistry(context.Background(), InitializeRegistryCommand{
		GovernanceID: testGovernanceID,
		Authority:    "staking-ledger",
	}); err != nil {
		t.Fatalf("initialize registry failed: %v", err)
	}
	return uc, store
}

func TestInitializeRegistryRejectsDuplicate(t *testing.T) {
	uc, _ := newRegistryFixture(t)
	_, err := uc.InitializeRegistry(context.Background(), InitializeRegistryCommand{
		GovernanceID: testGovernanceID,
		Authority:    "staking-ledger",
	})
	if !errors.Is(err, domainerrors.ErrRegistryAlreadyExists) {
		t.Fatalf("expected duplicate registry error, got %v", err)
	}
}

func TestRegisterVotingPowerKeepsTotalConsistent(t *testing.T) {
	uc, store := newRegistryFixture(t)

	register := func(voter string, power uint64) RegisterPowerResult {
		t.Helper()
		result, err := uc.RegisterVotingPower(context.Background(), RegisterPowerCommand{
			Source:      "staking-ledger",
			Voter:       voter,
			VotingPower: power,
		})
		if err != nil {
			t.Fatalf("register %s=%d failed: %v", voter, power, err)
		}
		return result
	}

	register("alice", 40)
	register("bob", 15)
	result := register("alice", 25)
	if result.OldVotingPower != 40 {
		t.Fatalf("expected old power 40, got %d", result.OldVotingPower)
	}
	if result.TotalVotingPower != 40 {
		t.Fatalf("expected total 40 after downgrade, got %d", result.TotalVotingPower)
	}

	// Same-value registration is idempotent on the total.
	result = register("bob", 15)
	if result.TotalVotingPower != 40 {
		t.Fatalf("expected total unchanged at 40, got %d", result.TotalVotingPower)
	}

	powers, err := store.ListVoterPowers(context.Background(), testGovernanceID)
	if err != nil {
		t.Fatalf("list powers failed: %v", err)
	}
	var sum uint64
	for _, power := range powers {
		sum += power.VotingPower
	}
	registry, err := store.GetRegistry(context.Background(), testGovernanceID)
	if err != nil {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if registry.TotalVotingPower != sum {
		t.Fatalf("total %d does not match sum of voters %d", registry.TotalVotingPower, sum)
	}
}

func TestRegisterVotingPowerRejectsUnknownSource(t *testing.T) {
	uc, store := newRegistryFixture(t)
	_, err := uc.RegisterVotingPower(context.Background(), RegisterPowerCommand{
		Source:      "mallory",
		Voter:       "alice",
		VotingPower: 10,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorizedSource) {
		t.Fatalf("expected unauthorized source, got %v", err)
	}
	if _, found, _ := store.GetVoterPower(context.Background(), testGovernanceID, "alice"); found {
		t.Fatalf("expected no power row after rejected registration")
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("expected no outbox event after rejected registration")
	}
}

func TestRegisterVotingPowerEmitsOutboxEvent(t *testing.T) {
	uc, store := newRegistryFixture(t)
	if _, err := uc.RegisterVotingPower(context.Background(), RegisterPowerCommand{
		Source:      "staking-ledger",
		Voter:       "alice",
		VotingPower: 7,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if store.PendingOutboxCount() != 1 {
		t.Fatalf("expected one pending outbox event, got %d", store.PendingOutboxCount())
	}
}

func TestRegisterVotingPowerRequiresRegistry(t *testing.T) {
	store := memory.NewStore()
	uc := RegisterUseCase{
		Repo:         store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		GovernanceID: testGovernanceID,
	}
	_, err := uc.RegisterVotingPower(context.Background(), RegisterPowerCommand{
		Source:      "staking-ledger",
		Voter:       "alice",
		VotingPower: 10,
	})
	if !errors.Is(err, domainerrors.ErrRegistryNotFound) {
		t.Fatalf("expected registry not found, got %v", err)
	}
}
