package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
	"wct/contexts/token-governance/governance-ledger/ports"
	"wct/internal/shared/outbox"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetGovernance(ctx context.Context, governanceID string) (entities.GovernanceConfig, error) {
	var row governanceModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(governanceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GovernanceConfig{}, domainerrors.ErrGovernanceNotFound
		}
		return entities.GovernanceConfig{}, r.logError("governance_repo_get_failed", err, "governance_id", governanceID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveGovernance(ctx context.Context, config entities.GovernanceConfig) error {
	row := governanceModelFromEntity(config)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"min_proposal_tokens": row.MinProposalTokens,
			"voting_period":       row.VotingPeriod,
			"execution_delay":     row.ExecutionDelay,
			"quorum_percentage":   row.QuorumPercentage,
			"proposal_count":      row.ProposalCount,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrGovernanceAlreadyExists
		}
		return r.logError("governance_repo_save_failed", err, "governance_id", config.GovernanceID)
	}
	return nil
}

func (r *Repository) GetProposal(ctx context.Context, governanceID string, proposalID uint64) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", entities.ProposalKey(strings.TrimSpace(governanceID), proposalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("governance_repo_get_proposal_failed", err,
			"governance_id", governanceID,
			"proposal_id", proposalID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProposals(ctx context.Context, governanceID string) ([]entities.Proposal, error) {
	var rows []proposalModel
	err := r.db.WithContext(ctx).
		Where("governance_id = ?", strings.TrimSpace(governanceID)).
		Order("proposal_id asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_proposals_failed", err, "governance_id", governanceID)
	}
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetVote(ctx context.Context, governanceID string, proposalID uint64, voter string) (entities.VoteRecord, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", entities.VoteKey(strings.TrimSpace(governanceID), proposalID, strings.TrimSpace(voter))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoteRecord{}, false, nil
		}
		return entities.VoteRecord{}, false, r.logError("governance_repo_get_vote_failed", err,
			"governance_id", governanceID,
			"proposal_id", proposalID,
			"voter", voter,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotes(ctx context.Context, governanceID string, proposalID uint64) ([]entities.VoteRecord, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("governance_id = ? AND proposal_id = ?", strings.TrimSpace(governanceID), proposalID).
		Order("voter asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_votes_failed", err,
			"governance_id", governanceID,
			"proposal_id", proposalID,
		)
	}
	items := make([]entities.VoteRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ApplyProposalCreation commits the incremented proposal counter and the new
// proposal row in one transaction, matching the all-or-nothing contract of
// the port.
func (r *Repository) ApplyProposalCreation(ctx context.Context, config entities.GovernanceConfig, proposal entities.Proposal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		configRow := governanceModelFromEntity(config)
		if err := tx.Model(&governanceModel{}).
			Where("id = ?", configRow.ID).
			Updates(map[string]any{
				"proposal_count": configRow.ProposalCount,
				"updated_at":     configRow.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		proposalRow := proposalModelFromEntity(proposal)
		return tx.Create(&proposalRow).Error
	})
	if err != nil {
		return r.logError("governance_repo_apply_proposal_failed", err,
			"governance_id", config.GovernanceID,
			"proposal_id", proposal.ProposalID,
		)
	}
	return nil
}

func (r *Repository) ApplyVote(ctx context.Context, proposal entities.Proposal, vote entities.VoteRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&proposalModel{}).
			Where("id = ?", entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID)).
			Updates(map[string]any{
				"yes_votes": proposal.YesVotes,
				"no_votes":  proposal.NoVotes,
			}).Error; err != nil {
			return err
		}
		voteRow := voteModelFromEntity(vote)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&voteRow).Error
	})
	if err != nil {
		return r.logError("governance_repo_apply_vote_failed", err,
			"governance_id", proposal.GovernanceID,
			"proposal_id", proposal.ProposalID,
			"voter", vote.Voter,
		)
	}
	return nil
}

func (r *Repository) ApplyProposalStatus(ctx context.Context, proposal entities.Proposal) error {
	result := r.db.WithContext(ctx).
		Model(&proposalModel{}).
		Where("id = ?", entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID)).
		Updates(map[string]any{
			"status":       string(proposal.Status),
			"executed_at":  proposal.ExecutedAt,
			"cancelled_at": proposal.CancelledAt,
		})
	if result.Error != nil {
		return r.logError("governance_repo_apply_status_failed", result.Error,
			"governance_id", proposal.GovernanceID,
			"proposal_id", proposal.ProposalID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProposalNotFound
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:           envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("governance_repo_append_outbox_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt,
		}).Error
	if err != nil {
		return r.logError("governance_repo_mark_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "token-governance/governance-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type governanceModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	Authority         string    `gorm:"column:authority"`
	TokenMint         string    `gorm:"column:token_mint"`
	Treasury          string    `gorm:"column:treasury"`
	MinProposalTokens uint64    `gorm:"column:min_proposal_tokens"`
	VotingPeriod      int64     `gorm:"column:voting_period"`
	ExecutionDelay    int64     `gorm:"column:execution_delay"`
	QuorumPercentage  uint64    `gorm:"column:quorum_percentage"`
	ProposalCount     uint64    `gorm:"column:proposal_count"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (governanceModel) TableName() string {
	return "governance_configs"
}

func governanceModelFromEntity(config entities.GovernanceConfig) governanceModel {
	return governanceModel{
		ID:                config.GovernanceID,
		Authority:         config.Authority,
		TokenMint:         config.TokenMint,
		Treasury:          config.Treasury,
		MinProposalTokens: config.MinProposalTokens,
		VotingPeriod:      config.VotingPeriodSeconds,
		ExecutionDelay:    config.ExecutionDelaySeconds,
		QuorumPercentage:  config.QuorumPercentage,
		ProposalCount:     config.ProposalCount,
		CreatedAt:         time.Unix(config.CreatedAt, 0).UTC(),
		UpdatedAt:         time.Unix(config.UpdatedAt, 0).UTC(),
	}
}

func (m governanceModel) toEntity() entities.GovernanceConfig {
	return entities.GovernanceConfig{
		GovernanceID:          m.ID,
		Authority:             m.Authority,
		TokenMint:             m.TokenMint,
		Treasury:              m.Treasury,
		MinProposalTokens:     m.MinProposalTokens,
		VotingPeriodSeconds:   m.VotingPeriod,
		ExecutionDelaySeconds: m.ExecutionDelay,
		QuorumPercentage:      m.QuorumPercentage,
		ProposalCount:         m.ProposalCount,
		CreatedAt:             m.CreatedAt.Unix(),
		UpdatedAt:             m.UpdatedAt.Unix(),
	}
}

type proposalModel struct {
	ID               string `gorm:"column:id;primaryKey"`
	GovernanceID     string `gorm:"column:governance_id;index"`
	ProposalID       uint64 `gorm:"column:proposal_id"`
	Proposer         string `gorm:"column:proposer"`
	Title            string `gorm:"column:title"`
	Description      string `gorm:"column:description"`
	ProposalType     string `gorm:"column:proposal_type"`
	ExecutionPayload []byte `gorm:"column:execution_payload"`
	CreatedAt        int64  `gorm:"column:created_at"`
	VotingEndsAt     int64  `gorm:"column:voting_ends_at"`
	YesVotes         uint64 `gorm:"column:yes_votes"`
	NoVotes          uint64 `gorm:"column:no_votes"`
	Status           string `gorm:"column:status"`
	ExecutedAt       int64  `gorm:"column:executed_at"`
	CancelledAt      int64  `gorm:"column:cancelled_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	return proposalModel{
		ID:               entities.ProposalKey(proposal.GovernanceID, proposal.ProposalID),
		GovernanceID:     proposal.GovernanceID,
		ProposalID:       proposal.ProposalID,
		Proposer:         proposal.Proposer,
		Title:            proposal.Title,
		Description:      proposal.Description,
		ProposalType:     string(proposal.ProposalType),
		ExecutionPayload: proposal.ExecutionPayload,
		CreatedAt:        proposal.CreatedAt,
		VotingEndsAt:     proposal.VotingEndsAt,
		YesVotes:         proposal.YesVotes,
		NoVotes:          proposal.NoVotes,
		Status:           string(proposal.Status),
		ExecutedAt:       proposal.ExecutedAt,
		CancelledAt:      proposal.CancelledAt,
	}
}

func (m proposalModel) toEntity() entities.Proposal {
	return entities.Proposal{
		GovernanceID:     m.GovernanceID,
		ProposalID:       m.ProposalID,
		Proposer:         m.Proposer,
		Title:            m.Title,
		Description:      m.Description,
		ProposalType:     entities.ProposalType(m.ProposalType),
		ExecutionPayload: m.ExecutionPayload,
		CreatedAt:        m.CreatedAt,
		VotingEndsAt:     m.VotingEndsAt,
		YesVotes:         m.YesVotes,
		NoVotes:          m.NoVotes,
		Status:           entities.ProposalStatus(m.Status),
		ExecutedAt:       m.ExecutedAt,
		CancelledAt:      m.CancelledAt,
	}
}

type voteModel struct {
	ID                string `gorm:"column:id;primaryKey"`
	GovernanceID      string `gorm:"column:governance_id;index"`
	ProposalID        uint64 `gorm:"column:proposal_id;index"`
	Voter             string `gorm:"column:voter"`
	Choice            string `gorm:"column:choice"`
	VotingPowerAtCast uint64 `gorm:"column:voting_power_at_cast"`
	CastAt            int64  `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "governance_votes"
}

func voteModelFromEntity(vote entities.VoteRecord) voteModel {
	return voteModel{
		ID:                entities.VoteKey(vote.GovernanceID, vote.ProposalID, vote.Voter),
		GovernanceID:      vote.GovernanceID,
		ProposalID:        vote.ProposalID,
		Voter:             vote.Voter,
		Choice:            string(vote.Choice),
		VotingPowerAtCast: vote.VotingPowerAtCast,
		CastAt:            vote.CastAt,
	}
}

func (m voteModel) toEntity() entities.VoteRecord {
	return entities.VoteRecord{
		GovernanceID:      m.GovernanceID,
		ProposalID:        m.ProposalID,
		Voter:             m.Voter,
		Choice:            entities.VoteChoice(m.Choice),
		VotingPowerAtCast: m.VotingPowerAtCast,
		CastAt:            m.CastAt,
	}
}

type outboxModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}
