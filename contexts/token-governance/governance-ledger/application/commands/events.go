package commands

import (
	"context"
	"encoding/json"

	"wct/contexts/token-governance/governance-ledger/ports"
)

// appendGovernanceEvent writes one outbox envelope per successful operation.
// Events partition by governance ID so proposal consumers observe a stable
// per-instance order.
func (uc GovernanceUseCase) appendGovernanceEvent(
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
		SourceService:    "governance-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "governance_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}
