package postgresadapter

import "gorm.io/gorm"

// AutoMigrate creates or updates the power registry tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&registryModel{}, &voterPowerModel{}, &outboxModel{})
}
