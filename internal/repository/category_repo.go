package repository

import (
	"context"
	"errors"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Category, error)
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	ListMaster(ctx context.Context) ([]model.MasterCategory, error)
	CreateMaster(ctx context.Context, master *model.MasterCategory) error
	SeedFromMaster(ctx context.Context, storeID uuid.UUID) (int64, error)
	EnsureUncategorized(ctx context.Context, storeID uuid.UUID) (*model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepo{tx}
}

func (r *categoryRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC").Order("created_at DESC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByID(ctx context.Context, storeID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, "id = ? AND store_id = ?", id, storeID).Error
	return &category, err
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) ListMaster(ctx context.Context) ([]model.MasterCategory, error) {
	var masters []model.MasterCategory
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("slug ASC").Find(&masters).Error
	return masters, err
}

func (r *categoryRepo) CreateMaster(ctx context.Context, master *model.MasterCategory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(master).Error
}

// SeedFromMaster creates one store category per master category (sort order i*10).
// Existing (store, master) pairs are left untouched. Returns the number created.
func (r *categoryRepo) SeedFromMaster(ctx context.Context, storeID uuid.UUID) (int64, error) {
	masters, err := r.ListMaster(ctx)
	if err != nil || len(masters) == 0 {
		return 0, err
	}

	categories := lo.Map(masters, func(m model.MasterCategory, i int) model.Category {
		masterID := m.ID
		return model.Category{
			StoreID:          storeID,
			MasterCategoryID: &masterID,
			Name:             m.Name,
			SortOrder:        i * 10,
			IsActive:         true,
		}
	})

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&categories)
	return result.RowsAffected, result.Error
}

func (r *categoryRepo) EnsureUncategorized(ctx context.Context, storeID uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND master_category_id IS NULL AND name = ?", storeID, model.UncategorizedName).
		First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = model.Category{
		StoreID:   storeID,
		Name:      model.UncategorizedName,
		SortOrder: model.UncategorizedSortOrder,
		IsActive:  true,
	}
	if err := r.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
