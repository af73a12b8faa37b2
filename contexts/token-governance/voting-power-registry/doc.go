// Package votingpowerregistry implements the voting-power side of the
// token-governance context.
//
// The module owns the voter → power mapping for one governance instance and
// keeps a running total that retotals on every idempotent upsert. The staking
// ledger writes it through the registry authority identity; the governance
// ledger reads it at vote time.
package votingpowerregistry
