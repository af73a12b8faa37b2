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

	"wct/contexts/token-governance/staking-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	"wct/contexts/token-governance/staking-ledger/ports"
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

func (r *Repository) GetPool(ctx context.Context, poolID string) (entities.StakingPool, error) {
	var row poolModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(poolID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.StakingPool{}, domainerrors.ErrPoolNotFound
		}
		return entities.StakingPool{}, r.logError("staking_repo_get_pool_failed", err, "pool_id", poolID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SavePool(ctx context.Context, pool entities.StakingPool) error {
	row := poolModelFromEntity(pool)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_staked":       row.TotalStaked,
			"staker_count":       row.StakerCount,
			"reward_rate_bps":    row.RewardRateBps,
			"min_stake_duration": row.MinStakeDuration,
			"max_stake_duration": row.MaxStakeDuration,
			"updated_at":         row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrPoolAlreadyExists
		}
		return r.logError("staking_repo_save_pool_failed", err, "pool_id", pool.PoolID)
	}
	return nil
}

func (r *Repository) GetStake(ctx context.Context, poolID string, owner string) (entities.UserStake, bool, error) {
	var row stakeModel
	err := r.db.WithContext(ctx).
		Where("id = ?", entities.StakeKey(strings.TrimSpace(poolID), strings.TrimSpace(owner))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserStake{}, false, nil
		}
		return entities.UserStake{}, false, r.logError("staking_repo_get_stake_failed", err,
			"pool_id", poolID,
			"owner", owner,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListStakesByPool(ctx context.Context, poolID string) ([]entities.UserStake, error) {
	var rows []stakeModel
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", strings.TrimSpace(poolID)).
		Order("start_timestamp asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("staking_repo_list_stakes_failed", err, "pool_id", poolID)
	}
	items := make([]entities.UserStake, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ApplyStake commits pool totals and the new stake row in one transaction,
// matching the all-or-nothing contract of the port.
func (r *Repository) ApplyStake(ctx context.Context, pool entities.StakingPool, stake entities.UserStake) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poolRow := poolModelFromEntity(pool)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_staked": poolRow.TotalStaked,
				"staker_count": poolRow.StakerCount,
				"updated_at":   poolRow.UpdatedAt,
			}),
		}).Create(&poolRow).Error; err != nil {
			return err
		}
		stakeRow := stakeModelFromEntity(stake)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&stakeRow).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrActiveStakeExists
		}
		return r.logError("staking_repo_apply_stake_failed", err,
			"pool_id", pool.PoolID,
			"owner", stake.Owner,
		)
	}
	return nil
}

func (r *Repository) ApplyClaim(ctx context.Context, stake entities.UserStake) error {
	result := r.db.WithContext(ctx).
		Model(&stakeModel{}).
		Where("id = ?", entities.StakeKey(stake.PoolID, stake.Owner)).
		Updates(map[string]any{
			"claimed_reward":       stake.ClaimedReward,
			"last_claim_timestamp": stake.LastClaimTimestamp,
		})
	if result.Error != nil {
		return r.logError("staking_repo_apply_claim_failed", result.Error,
			"pool_id", stake.PoolID,
			"owner", stake.Owner,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStakeNotFound
	}
	return nil
}

func (r *Repository) ApplyUnstake(ctx context.Context, pool entities.StakingPool, stake entities.UserStake) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&poolModel{}).
			Where("id = ?", pool.PoolID).
			Updates(map[string]any{
				"total_staked": pool.TotalStaked,
				"staker_count": pool.StakerCount,
				"updated_at":   time.Unix(pool.UpdatedAt, 0).UTC(),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&stakeModel{}).
			Where("id = ?", entities.StakeKey(stake.PoolID, stake.Owner)).
			Updates(map[string]any{
				"claimed_reward":       stake.ClaimedReward,
				"last_claim_timestamp": stake.LastClaimTimestamp,
				"status":               string(stake.Status),
			}).Error
	})
	if err != nil {
		return r.logError("staking_repo_apply_unstake_failed", err,
			"pool_id", pool.PoolID,
			"owner", stake.Owner,
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
		return r.logError("staking_repo_append_outbox_failed", err, "event_id", envelope.EventID)
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
		return nil, r.logError("staking_repo_list_outbox_failed", err)
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
		return r.logError("staking_repo_mark_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "token-governance/staking-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("staking repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type poolModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	Authority        string    `gorm:"column:authority"`
	TokenMint        string    `gorm:"column:token_mint"`
	TreasuryAccount  string    `gorm:"column:treasury_account"`
	VaultAccount     string    `gorm:"column:vault_account"`
	TotalStaked      uint64    `gorm:"column:total_staked"`
	StakerCount      uint64    `gorm:"column:staker_count"`
	RewardRateBps    uint64    `gorm:"column:reward_rate_bps"`
	MinStakeDuration int64     `gorm:"column:min_stake_duration"`
	MaxStakeDuration int64     `gorm:"column:max_stake_duration"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (poolModel) TableName() string {
	return "staking_pools"
}

func poolModelFromEntity(pool entities.StakingPool) poolModel {
	return poolModel{
		ID:               pool.PoolID,
		Authority:        pool.Authority,
		TokenMint:        pool.TokenMint,
		TreasuryAccount:  pool.TreasuryAccount,
		VaultAccount:     pool.VaultAccount,
		TotalStaked:      pool.TotalStaked,
		StakerCount:      pool.StakerCount,
		RewardRateBps:    pool.RewardRateBpsPerDay,
		MinStakeDuration: pool.MinStakeDurationSeconds,
		MaxStakeDuration: pool.MaxStakeDurationSeconds,
		CreatedAt:        time.Unix(pool.CreatedAt, 0).UTC(),
		UpdatedAt:        time.Unix(pool.UpdatedAt, 0).UTC(),
	}
}

func (m poolModel) toEntity() entities.StakingPool {
	return entities.StakingPool{
		PoolID:                  m.ID,
		Authority:               m.Authority,
		TokenMint:               m.TokenMint,
		TreasuryAccount:         m.TreasuryAccount,
		VaultAccount:            m.VaultAccount,
		TotalStaked:             m.TotalStaked,
		StakerCount:             m.StakerCount,
		RewardRateBpsPerDay:     m.RewardRateBps,
		MinStakeDurationSeconds: m.MinStakeDuration,
		MaxStakeDurationSeconds: m.MaxStakeDuration,
		CreatedAt:               m.CreatedAt.Unix(),
		UpdatedAt:               m.UpdatedAt.Unix(),
	}
}

type stakeModel struct {
	ID                 string `gorm:"column:id;primaryKey"`
	PoolID             string `gorm:"column:pool_id;index"`
	Owner              string `gorm:"column:owner"`
	StakeAmount        uint64 `gorm:"column:stake_amount"`
	StartTimestamp     int64  `gorm:"column:start_timestamp"`
	EndTimestamp       int64  `gorm:"column:end_timestamp"`
	ClaimedReward      uint64 `gorm:"column:claimed_reward"`
	LastClaimTimestamp int64  `gorm:"column:last_claim_timestamp"`
	ReputationBoost    uint64 `gorm:"column:reputation_boost"`
	VotingPower        uint64 `gorm:"column:voting_power"`
	Status             string `gorm:"column:status"`
}

func (stakeModel) TableName() string {
	return "user_stakes"
}

func stakeModelFromEntity(stake entities.UserStake) stakeModel {
	return stakeModel{
		ID:                 entities.StakeKey(stake.PoolID, stake.Owner),
		PoolID:             stake.PoolID,
		Owner:              stake.Owner,
		StakeAmount:        stake.StakeAmount,
		StartTimestamp:     stake.StartTimestamp,
		EndTimestamp:       stake.EndTimestamp,
		ClaimedReward:      stake.ClaimedReward,
		LastClaimTimestamp: stake.LastClaimTimestamp,
		ReputationBoost:    stake.ReputationBoostPercent,
		VotingPower:        stake.VotingPower,
		Status:             string(stake.Status),
	}
}

func (m stakeModel) toEntity() entities.UserStake {
	return entities.UserStake{
		PoolID:                 m.PoolID,
		Owner:                  m.Owner,
		StakeAmount:            m.StakeAmount,
		StartTimestamp:         m.StartTimestamp,
		EndTimestamp:           m.EndTimestamp,
		ClaimedReward:          m.ClaimedReward,
		LastClaimTimestamp:     m.LastClaimTimestamp,
		ReputationBoostPercent: m.ReputationBoost,
		VotingPower:            m.VotingPower,
		Status:                 entities.StakeStatus(m.Status),
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
	return "staking_outbox"
}
