package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CatalogProduct is a product definition, either global (shared by every store)
// or owned by a single store.
type CatalogProduct struct {
	BaseModel
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	BasePrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	Stock            int             `gorm:"not null" json:"stock"` // shared pool for stores without a stock override
	ImageURL         string          `gorm:"type:text" json:"image_url"`
	IsActive         bool            `gorm:"not null" json:"is_active"`
	IsGlobal         bool            `gorm:"not null;index" json:"is_global"`
	OwnerStoreID     *uuid.UUID      `gorm:"type:uuid;index" json:"owner_store_id"`
	MasterCategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"master_category_id"`

	// Branded metadata, optionally filled by barcode enrichment
	Brand      string            `gorm:"type:varchar(255)" json:"brand,omitempty"`
	PackSize   string            `gorm:"type:varchar(100)" json:"pack_size,omitempty"`
	GTIN       string            `gorm:"type:varchar(20);index" json:"gtin,omitempty"`
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`
}

// VisibleTo reports whether the product can be sold by the given store.
func (p *CatalogProduct) VisibleTo(storeID uuid.UUID) bool {
	if p.IsGlobal {
		return true
	}
	return p.OwnerStoreID != nil && *p.OwnerStoreID == storeID
}

// StoreProductOverride layers store-specific settings on top of a CatalogProduct.
// At most one row exists per (store, product).
type StoreProductOverride struct {
	BaseModel
	StoreID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_override_store_product" json:"store_id"`
	ProductID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_override_store_product" json:"product_id"`
	CategoryID       *uuid.UUID          `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	NameOverride     *string             `gorm:"type:varchar(255)" json:"name_override"`
	ImageURLOverride *string             `gorm:"type:text" json:"image_url_override"`
	PriceOverride    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"price_override"`
	Stock            *int                `json:"stock"` // nil defers to CatalogProduct.Stock
	IsActiveOverride *bool               `json:"is_active_override"`
	DiscountPercent  decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	DiscountPrice    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
}

// ProductView is the effective, store-specific product served to clients.
type ProductView struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Price           decimal.Decimal     `json:"price"`
	RegularPrice    decimal.Decimal     `json:"regular_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountPrice   decimal.NullDecimal `json:"discount_price"`
	ImageURL        string              `json:"image_url"`
	Stock           int                 `json:"stock"`
	StockScope      StockScope          `json:"stock_scope"`
	Brand           string              `json:"brand,omitempty"`
	PackSize        string              `json:"pack_size,omitempty"`
	IsGlobal        bool                `json:"is_global"`
	IsActive        bool                `json:"is_active"`
	CategoryID      *uuid.UUID          `json:"category_id"`
	Category        *CategoryRef        `json:"category"`
}
