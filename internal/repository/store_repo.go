package repository

import (
	"context"
	"errors"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	WithTx(tx *gorm.DB) StoreRepository
	FindBySlug(ctx context.Context, slug string) (*model.Store, error)
	FindAll(ctx context.Context) ([]model.Store, error)
	Upsert(ctx context.Context, store *model.Store) (created bool, err error)
	Update(ctx context.Context, store *model.Store) error
	DeleteCascade(ctx context.Context, storeID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type storeRepo struct {
	db *gorm.DB
}

func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db}
}

func (r *storeRepo) WithTx(tx *gorm.DB) StoreRepository {
	return &storeRepo{tx}
}

func (r *storeRepo) FindBySlug(ctx context.Context, slug string) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).First(&store, "slug = ?", slug).Error
	return &store, err
}

func (r *storeRepo) FindAll(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&stores).Error
	return stores, err
}

// Upsert keys on slug. On an existing slug the name, phone and theme are replaced
// and store.ID is set to the existing row's ID.
func (r *storeRepo) Upsert(ctx context.Context, store *model.Store) (bool, error) {
	var existing model.Store
	err := r.db.WithContext(ctx).First(&existing, "slug = ?", store.Slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.WithContext(ctx).Create(store).Error
	}
	if err != nil {
		return false, err
	}

	store.ID = existing.ID
	store.CreatedAt = existing.CreatedAt
	store.CreatedBy = existing.CreatedBy
	return false, r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"name":        store.Name,
		"phone":       store.Phone,
		"theme_color": store.ThemeColor,
		"updated_by":  store.UpdatedBy,
	}).Error
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// DeleteCascade removes the store and every row scoped to it. Global catalog
// products are kept; products the store owns are removed with their overrides.
// Must run inside a transaction.
func (r *storeRepo) DeleteCascade(ctx context.Context, storeID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	ownedProducts := db.Model(&model.CatalogProduct{}).Select("id").
		Where("owner_store_id = ? AND is_global = ?", storeID, false)
	storeOrders := db.Model(&model.Order{}).Select("id").Where("store_id = ?", storeID)

	steps := []func() error{
		func() error { return db.Where("order_id IN (?)", storeOrders).Delete(&model.OrderItem{}).Error },
		func() error { return db.Where("store_id = ?", storeID).Delete(&model.Order{}).Error },
		func() error { return db.Where("store_id = ?", storeID).Delete(&model.Customer{}).Error },
		func() error {
			return db.Where("store_id = ? OR product_id IN (?)", storeID, ownedProducts).Delete(&model.StoreProductOverride{}).Error
		},
		func() error { return db.Where("store_id = ?", storeID).Delete(&model.Category{}).Error },
		func() error {
			return db.Where("owner_store_id = ? AND is_global = ?", storeID, false).Delete(&model.CatalogProduct{}).Error
		},
		func() error { return db.Delete(&model.Store{}, "id = ?", storeID).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (r *storeRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Store{}).Count(&n).Error
	return n, err
}
