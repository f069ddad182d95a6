package repository

import (
	"grocery-storefront/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the storefront uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Store{},
		&model.MasterCategory{},
		&model.Category{},
		&model.CatalogProduct{},
		&model.StoreProductOverride{},
		&model.Customer{},
		&model.Order{},
		&model.OrderItem{},
	)
}
