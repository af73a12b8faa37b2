package postgresadapter

import "gorm.io/gorm"

// AutoMigrate creates or updates the governance ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&governanceModel{}, &proposalModel{}, &voteModel{}, &outboxModel{})
}
