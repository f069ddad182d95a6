package model

import "github.com/google/uuid"

// UncategorizedName is the fallback store category for products without a master category.
const (
	UncategorizedName      = "Uncategorized"
	UncategorizedSortOrder = 9999
)

// MasterCategory is the global taxonomy shared by all stores (e.g. "Spices").
type MasterCategory struct {
	BaseModel
	Slug string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
}

// Category is a store-scoped instance of a MasterCategory, or a store-only category
// when MasterCategoryID is nil.
type Category struct {
	BaseModel
	StoreID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_category_store_master" json:"store_id"`
	MasterCategoryID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_category_store_master" json:"master_category_id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	SortOrder        int        `gorm:"not null" json:"sort_order"`
	IsActive         bool       `gorm:"not null" json:"is_active"`
}

// CategoryRef is the compact category embedded in product responses.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
