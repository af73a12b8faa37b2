package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
	"wct/contexts/token-governance/governance-ledger/ports"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory governance ledger. Every Apply* method commits its
// records under one lock acquisition, which is the whole atomicity story for
// in-process wiring.
type Store struct {
	mu sync.RWMutex

	configs   map[string]entities.GovernanceConfig
	proposals map[string]entities.Proposal
	votes     map[string]entities.VoteRecord
	outbox    map[string]outboxRecord

	// fixedNow pins the clock for deterministic tests; zero means wall clock.
	fixedNow time.Time
}

func NewStore() *Store {
	return &Store{
		configs:   make(map[string]entities.GovernanceConfig),
		proposals: make(map[string]entities.Proposal),
		votes:     make(map[string]entities.VoteRecord),
		outbox:    make(map[string]outboxRecord),
	}
}

// SetNow pins the store clock. Tests drive time-dependent transitions
// (voting windows, execution delay) through this.
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

func (s *Store) GetGovernance(_ context.Context, governanceID string) (entities.GovernanceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	config, ok := s.configs[strings.TrimSpace(governanceID)]
	if !ok {
		return entities.GovernanceConfig{}, domainerrors.ErrGovernanceNotFound
	}
	return config, nil
}

func (s *Store) SaveGovernance(_ context.Context, config entities.GovernanceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.GovernanceID] = config
	return nil
}

func (s *Store) GetProposal(_ context.Context, governanceID string, proposalID uint64) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[entities.ProposalKey(strings.TrimSpace(governanceID), proposalID)]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (s *Store) ListProposals(_ context.Context, governanceID string) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	governanceID = strings.TrimSpace(governanceID)
	items := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.GovernanceID == governanceID {
			items = append(items, proposal)
		}
	}
	return items, nil
}

func (s *Store) GetVote(_ context.Context, governanceID string, proposalID uint64, voter string) (entities.VoteRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[entities.VoteKey(strings.TrimSpace(governanceID), proposalID, strings.TrimSpace(voter))]
	if !ok {
		return entities.VoteRecord{}, false, nil
	}
	return vote, true, nil
}

func (s *Store) ListVotes(_ context.Context, governanceID string, proposalID uint64) ([]entities.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	governanceID = strings.TrimSpace(governanceID)
	items := make([]entities.VoteRecord, 0)
	for _, vote := range s.votes {
		if vote.GovernanceID == governanceID && vote.ProposalID == proposalID {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (s *Store) ApplyProposalCreation(_ context.Context, config entities.GovernanceConfig, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.GovernanceID] = config
	s.proposals[entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID)] = proposal
	return nil
}

func (s *Store) ApplyVote(_ context.Context, proposal entities.Proposal, vote entities.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID)] = proposal
	s.votes[entities.VoteKey(vote.GovernanceID, vote.ProposalID, vote.Voter)] = vote
	return nil
}

func (s *Store) ApplyProposalStatus(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID)] = proposal
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
