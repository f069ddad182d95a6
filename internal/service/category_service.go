package service

import (
	"context"
	"strings"

	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"
	"grocery-storefront/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder *int   `json:"sort_order" validate:"omitempty,gte=0"`
}

type CategoryService interface {
	List(ctx context.Context, store *model.Store) ([]model.Category, error)
	Create(ctx context.Context, store *model.Store, req *CreateCategoryRequest, actor string) (*model.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	db           *gorm.DB
}

func NewCategoryService(cRepo repository.CategoryRepository, db *gorm.DB) CategoryService {
	return &categoryService{categoryRepo: cRepo, db: db}
}

// List returns the store's categories. A store that has none yet gets them
// seeded from the master taxonomy on first access.
func (s *categoryService) List(ctx context.Context, store *model.Store) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListByStore(ctx, store.ID)
	if err != nil || len(categories) > 0 {
		return categories, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.categoryRepo.WithTx(tx)
		seeded, err := repo.SeedFromMaster(ctx, store.ID)
		if err != nil {
			return err
		}
		if _, err := repo.EnsureUncategorized(ctx, store.ID); err != nil {
			return err
		}
		logger.FromContext(ctx).Info("categories seeded", zap.String("store", store.Slug), zap.Int64("count", seeded))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.ListByStore(ctx, store.ID)
}

func (s *categoryService) Create(ctx context.Context, store *model.Store, req *CreateCategoryRequest, actor string) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &model.Category{
		StoreID:  store.ID,
		Name:     req.Name,
		IsActive: true,
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	category.CreatedBy = actorOr(actor)
	category.UpdatedBy = actorOr(actor)

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
