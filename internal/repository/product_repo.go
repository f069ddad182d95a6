package repository

import (
	"context"
	"errors"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository reads and writes catalog products and their per-store overrides.
// Every lookup is scoped to what the given store may see: global products and
// products the store owns.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	ListVisible(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]model.CatalogProduct, error)
	FindVisible(ctx context.Context, storeID, id uuid.UUID) (*model.CatalogProduct, error)
	FindVisibleByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]model.CatalogProduct, error)
	Create(ctx context.Context, product *model.CatalogProduct) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Count(ctx context.Context) (int64, error)

	ListOverrides(ctx context.Context, storeID uuid.UUID, productIDs ...uuid.UUID) ([]model.StoreProductOverride, error)
	FindOverride(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProductOverride, error)
	SaveOverride(ctx context.Context, override *model.StoreProductOverride) error
	CreateOverridesIfMissing(ctx context.Context, overrides []model.StoreProductOverride) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) visible(ctx context.Context, storeID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("(is_global = ? OR owner_store_id = ?)", true, storeID)
}

func (r *productRepo) ListVisible(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]model.CatalogProduct, error) {
	var products []model.CatalogProduct
	q := r.visible(ctx, storeID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindVisible(ctx context.Context, storeID, id uuid.UUID) (*model.CatalogProduct, error) {
	var product model.CatalogProduct
	err := r.visible(ctx, storeID).First(&product, "id = ?", id).Error
	return &product, err
}

func (r *productRepo) FindVisibleByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]model.CatalogProduct, error) {
	var products []model.CatalogProduct
	if len(ids) == 0 {
		return products, nil
	}
	err := r.visible(ctx, storeID).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) Create(ctx context.Context, product *model.CatalogProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.CatalogProduct{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CatalogProduct{}).Count(&n).Error
	return n, err
}

func (r *productRepo) ListOverrides(ctx context.Context, storeID uuid.UUID, productIDs ...uuid.UUID) ([]model.StoreProductOverride, error) {
	var overrides []model.StoreProductOverride
	q := r.db.WithContext(ctx).Preload("Category").Where("store_id = ?", storeID)
	if len(productIDs) > 0 {
		q = q.Where("product_id IN ?", productIDs)
	}
	err := q.Find(&overrides).Error
	return overrides, err
}

// FindOverride returns nil, nil when the store has no override for the product.
func (r *productRepo) FindOverride(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProductOverride, error) {
	var override model.StoreProductOverride
	err := r.db.WithContext(ctx).Preload("Category").
		First(&override, "store_id = ? AND product_id = ?", storeID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &override, nil
}

// overrideColumns are the override fields admin edits own. Stock is excluded:
// after insert it only moves through StockRepository's conditional updates.
var overrideColumns = []string{
	"category_id",
	"name_override",
	"image_url_override",
	"price_override",
	"is_active_override",
	"discount_percent",
	"discount_price",
	"updated_by",
	"updated_at",
}

// SaveOverride inserts the override, or rewrites its non-stock columns (nulls included).
func (r *productRepo) SaveOverride(ctx context.Context, override *model.StoreProductOverride) error {
	if override.ID == uuid.Nil {
		return r.db.WithContext(ctx).Omit("Category").Create(override).Error
	}
	return r.db.WithContext(ctx).Model(override).
		Select(overrideColumns).
		Updates(override).Error
}

// CreateOverridesIfMissing inserts overrides, skipping (store, product) pairs that already have one.
func (r *productRepo) CreateOverridesIfMissing(ctx context.Context, overrides []model.StoreProductOverride) (int64, error) {
	if len(overrides) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Omit("Category").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&overrides)
	return result.RowsAffected, result.Error
}
