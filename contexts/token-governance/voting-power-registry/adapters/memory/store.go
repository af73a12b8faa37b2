package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	domainerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
	"wct/contexts/token-governance/voting-power-registry/ports"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory power registry. ApplyPowerUpdate lands both rows
// under a single lock acquisition.
type Store struct {
	mu sync.RWMutex

	registries map[string]entities.Registry
	powers     map[string]entities.VoterPower
	outbox     map[string]outboxRecord

	// fixedNow pins the clock for deterministic tests; zero means wall clock.
	fixedNow time.Time
}

func NewStore() *Store {
	return &Store{
		registries: make(map[string]entities.Registry),
		powers:     make(map[string]entities.VoterPower),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fixedNow.IsZero() {
		return time.Now().UTC()
	}
	return s.fixedNow
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetRegistry(_ context.Context, governanceID string) (entities.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registry, ok := s.registries[strings.TrimSpace(governanceID)]
	if !ok {
		return entities.Registry{}, domainerrors.ErrRegistryNotFound
	}
	return registry, nil
}

func (s *Store) SaveRegistry(_ context.Context, registry entities.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registries[registry.GovernanceID] = registry
	return nil
}

func (s *Store) GetVoterPower(_ context.Context, governanceID string, voter string) (entities.VoterPower, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	power, ok := s.powers[entities.VoterPowerKey(strings.TrimSpace(governanceID), strings.TrimSpace(voter))]
	if !ok {
		return entities.VoterPower{}, false, nil
	}
	return power, true, nil
}

func (s *Store) ListVoterPowers(_ context.Context, governanceID string) ([]entities.VoterPower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	governanceID = strings.TrimSpace(governanceID)
	items := make([]entities.VoterPower, 0)
	for _, power := range s.powers {
		if power.GovernanceID == governanceID {
			items = append(items, power)
		}
	}
	return items, nil
}

func (s *Store) ApplyPowerUpdate(_ context.Context, registry entities.Registry, power entities.VoterPower) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registries[registry.GovernanceID] = registry
	s.powers[entities.VoterPowerKey(power.GovernanceID, power.Voter)] = power
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[envelope.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

// PendingOutboxCount supports worker tests.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.published {
			count++
		}
	}
	return count
}
