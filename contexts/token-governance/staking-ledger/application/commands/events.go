package commands

import (
	"context"
	"encoding/json"

	"wct/contexts/token-governance/staking-ledger/ports"
)

// appendStakingEvent writes one outbox envelope per successful operation.
// Events are partitioned by owner (or pool for pool-level changes) so
// per-staker consumers observe a stable order.
func (uc StakeUseCase) appendStakingEvent(
	ctx context.Context,
	eventType string,
	partitionKey string,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "staking-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "owner",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}
