package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wct/contexts/token-governance/staking-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	"wct/contexts/token-governance/staking-ledger/ports"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory staking ledger. Every Apply* method commits its
// records under one lock acquisition, which is the whole atomicity story for
// in-process wiring.
type Store struct {
	mu sync.RWMutex

	pools  map[string]entities.StakingPool
	stakes map[string]entities.UserStake
	outbox map[string]outboxRecord

	// fixedNow pins the clock for deterministic tests; zero means wall clock.
	fixedNow time.Time
}

func NewStore() *Store {
	return &Store{
		pools:  make(map[string]entities.StakingPool),
		stakes: make(map[string]entities.UserStake),
		outbox: make(map[string]outboxRecord),
	}
}

// SetNow pins the store clock. Tests drive time-dependent transitions
// (lock expiry, accrual windows) through this.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now
}

// AdvanceNow moves the pinned clock forward.
func (s *Store) AdvanceNow(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixedNow.IsZero() {
		s.fixedNow = time.Now().UTC()
	}
	s.fixedNow = s.fixedNow.Add(d)
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

func (s *Store) GetPool(_ context.Context, poolID string) (entities.StakingPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[strings.TrimSpace(poolID)]
	if !ok {
		return entities.StakingPool{}, domainerrors.ErrPoolNotFound
	}
	return pool, nil
}

func (s *Store) SavePool(_ context.Context, pool entities.StakingPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.PoolID] = pool
	return nil
}

func (s *Store) GetStake(_ context.Context, poolID string, owner string) (entities.UserStake, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stake, ok := s.stakes[entities.StakeKey(strings.TrimSpace(poolID), strings.TrimSpace(owner))]
	if !ok {
		return entities.UserStake{}, false, nil
	}
	return stake, true, nil
}

func (s *Store) ListStakesByPool(_ context.Context, poolID string) ([]entities.UserStake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poolID = strings.TrimSpace(poolID)
	items := make([]entities.UserStake, 0)
	for _, stake := range s.stakes {
		if stake.PoolID == poolID {
			items = append(items, stake)
		}
	}
	return items, nil
}

func (s *Store) ApplyStake(_ context.Context, pool entities.StakingPool, stake entities.UserStake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.PoolID] = pool
	s.stakes[entities.StakeKey(stake.PoolID, stake.Owner)] = stake
	return nil
}

func (s *Store) ApplyClaim(_ context.Context, stake entities.UserStake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakes[entities.StakeKey(stake.PoolID, stake.Owner)] = stake
	return nil
}

func (s *Store) ApplyUnstake(_ context.Context, pool entities.StakingPool, stake entities.UserStake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.PoolID] = pool
	s.stakes[entities.StakeKey(stake.PoolID, stake.Owner)] = stake
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
