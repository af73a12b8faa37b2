package postgresadapter

import "gorm.io/gorm"

// AutoMigrate creates or updates the staking ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&poolModel{}, &stakeModel{}, &outboxModel{})
}
