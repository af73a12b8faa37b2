package entities

import (
	"fmt"
	"math"

	domainerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
)

// Registry is the per-governance singleton holding the running power total.
// Invariant: TotalVotingPower == sum of every VoterPower.VotingPower.
type Registry struct {
	GovernanceID     string
	Authority        string
	TotalVotingPower uint64
	CreatedAt        int64
	UpdatedAt        int64
}

// VoterPower is one voter's current weight, keyed by (governance, voter).
type VoterPower struct {
	GovernanceID string
	Voter        string
	VotingPower  uint64
	UpdatedAt    int64
}

// RegistryKey derives the deterministic record key for a governance instance.
func RegistryKey(governanceID string) string {
	return "voting_power_registry:" + governanceID
}

// VoterPowerKey derives the deterministic record key for a voter's power slot.
func VoterPowerKey(governanceID string, voter string) string {
	return fmt.Sprintf("voter_power:%s:%s", governanceID, voter)
}

// ApplyPowerChange retotals the registry for one voter moving from oldPower
// to newPower. The subtract and add are checked separately: an underflow on
// the subtract means the recorded total no longer covers registered voters,
// which is a fatal bookkeeping violation, not a saturating edge case.
func (r Registry) ApplyPowerChange(oldPower uint64, newPower uint64) (uint64, error) {
	if oldPower > r.TotalVotingPower {
		return 0, domainerrors.ErrTotalPowerInconsistent
	}
	reduced := r.TotalVotingPower - oldPower
	if newPower > math.MaxUint64-reduced {
		return 0, domainerrors.ErrTotalPowerOverflow
	}
	return reduced + newPower, nil
}
