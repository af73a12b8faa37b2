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

	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	domainerrors "wct/contexts/token-governance/voting-power-registry/domain/errors"
	"wct/contexts/token-governance/voting-power-registry/ports"
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

func (r *Repository) GetRegistry(ctx context.Context, governanceID string) (entities.Registry, error) {
	var row registryModel
	err := r.db.WithContext(ctx).
		Where("governance_id = ?", strings.TrimSpace(governanceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Registry{}, domainerrors.ErrRegistryNotFound
		}
		return entities.Registry{}, r.logError("registry_repo_get_failed", err, "governance_id", governanceID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveRegistry(ctx context.Context, registry entities.Registry) error {
	row := registryModelFromEntity(registry)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "governance_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_voting_power": row.TotalVotingPower,
			"updated_at":         row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRegistryAlreadyExists
		}
		return r.logError("registry_repo_save_failed", err, "governance_id", registry.GovernanceID)
	}
	return nil
}

func (r *Repository) GetVoterPower(ctx context.Context, governanceID string, voter string) (entities.VoterPower, bool, error) {
	var row voterPowerModel
	err := r.db.WithContext(ctx).
		Where("id = ?", entities.VoterPowerKey(strings.TrimSpace(governanceID), strings.TrimSpace(voter))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoterPower{}, false, nil
		}
		return entities.VoterPower{}, false, r.logError("registry_repo_get_voter_failed", err,
			"governance_id", governanceID,
			"voter", voter,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVoterPowers(ctx context.Context, governanceID string) ([]entities.VoterPower, error) {
	var rows []voterPowerModel
	err := r.db.WithContext(ctx).
		Where("governance_id = ?", strings.TrimSpace(governanceID)).
		Order("voter asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("registry_repo_list_voters_failed", err, "governance_id", governanceID)
	}
	items := make([]entities.VoterPower, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ApplyPowerUpdate commits the retotaled registry and the voter slot in one
// transaction, matching the all-or-nothing contract of the port.
func (r *Repository) ApplyPowerUpdate(ctx context.Context, registry entities.Registry, power entities.VoterPower) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		registryRow := registryModelFromEntity(registry)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "governance_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_voting_power": registryRow.TotalVotingPower,
				"updated_at":         registryRow.UpdatedAt,
			}),
		}).Create(&registryRow).Error; err != nil {
			return err
		}
		voterRow := voterPowerModelFromEntity(power)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&voterRow).Error
	})
	if err != nil {
		return r.logError("registry_repo_apply_power_failed", err,
			"governance_id", registry.GovernanceID,
			"voter", power.Voter,
		)
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
		return r.logError("registry_repo_append_outbox_failed", err, "event_id", envelope.EventID)
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
		return nil, r.logError("registry_repo_list_outbox_failed", err)
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
		return r.logError("registry_repo_mark_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "token-governance/voting-power-registry",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("registry repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type registryModel struct {
	GovernanceID     string    `gorm:"column:governance_id;primaryKey"`
	Authority        string    `gorm:"column:authority"`
	TotalVotingPower uint64    `gorm:"column:total_voting_power"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (registryModel) TableName() string {
	return "voting_power_registries"
}

func registryModelFromEntity(registry entities.Registry) registryModel {
	return registryModel{
		GovernanceID:     registry.GovernanceID,
		Authority:        registry.Authority,
		TotalVotingPower: registry.TotalVotingPower,
		CreatedAt:        time.Unix(registry.CreatedAt, 0).UTC(),
		UpdatedAt:        time.Unix(registry.UpdatedAt, 0).UTC(),
	}
}

func (m registryModel) toEntity() entities.Registry {
	return entities.Registry{
		GovernanceID:     m.GovernanceID,
		Authority:        m.Authority,
		TotalVotingPower: m.TotalVotingPower,
		CreatedAt:        m.CreatedAt.Unix(),
		UpdatedAt:        m.UpdatedAt.Unix(),
	}
}

type voterPowerModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	GovernanceID string    `gorm:"column:governance_id;index"`
	Voter        string    `gorm:"column:voter"`
	VotingPower  uint64    `gorm:"column:voting_power"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (voterPowerModel) TableName() string {
	return "voter_powers"
}

func voterPowerModelFromEntity(power entities.VoterPower) voterPowerModel {
	return voterPowerModel{
		ID:           entities.VoterPowerKey(power.GovernanceID, power.Voter),
		GovernanceID: power.GovernanceID,
		Voter:        power.Voter,
		VotingPower:  power.VotingPower,
		UpdatedAt:    time.Unix(power.UpdatedAt, 0).UTC(),
	}
}

func (m voterPowerModel) toEntity() entities.VoterPower {
	return entities.VoterPower{
		GovernanceID: m.GovernanceID,
		Voter:        m.Voter,
		VotingPower:  m.VotingPower,
		UpdatedAt:    m.UpdatedAt.Unix(),
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
	return "registry_outbox"
}
