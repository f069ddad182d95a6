package service

import (
	"context"
	"fmt"
	"strings"

	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"
	"grocery-storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpsertStoreRequest struct {
	Slug       string `json:"slug" validate:"required,max=100,slug"`
	Name       string `json:"name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"required,max=30"`
	ThemeColor string `json:"theme_color" validate:"omitempty,hexcolor"`
}

type UpdateStoreRequest struct {
	Name       string `json:"name" validate:"omitempty,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	ThemeColor string `json:"theme_color" validate:"omitempty,hexcolor"`
}

// OnboardResult reports what an upsert seeded for the store.
type OnboardResult struct {
	Created               bool  `json:"created"`
	CategoriesSeeded      int64 `json:"categories_seeded"`
	OverridesBootstrapped int64 `json:"overrides_bootstrapped"`
}

type StoreService interface {
	Resolve(ctx context.Context, slug string) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	Upsert(ctx context.Context, req *UpsertStoreRequest, actor string) (*model.Store, *OnboardResult, error)
	Update(ctx context.Context, slug string, req *UpdateStoreRequest, actor string) (*model.Store, error)
	Delete(ctx context.Context, slug string) error
}

type storeService struct {
	storeRepo    repository.StoreRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	db           *gorm.DB
}

func NewStoreService(sRepo repository.StoreRepository, cRepo repository.CategoryRepository, pRepo repository.ProductRepository, db *gorm.DB) StoreService {
	return &storeService{
		storeRepo:    sRepo,
		categoryRepo: cRepo,
		productRepo:  pRepo,
		db:           db,
	}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Resolve maps a tenant slug to its store. Missing slug is a validation error,
// unknown slug is NotFound.
func (s *storeService) Resolve(ctx context.Context, slug string) (*model.Store, error) {
	slug = normalizeSlug(slug)
	if slug == "" {
		return nil, invalid("x-tenant-id", "missing tenant")
	}
	store, err := s.storeRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("store %q", slug))
	}
	return store, nil
}

func (s *storeService) List(ctx context.Context) ([]model.Store, error) {
	return s.storeRepo.FindAll(ctx)
}

// Upsert creates or updates a store by slug, then seeds its categories from the
// master taxonomy and bootstraps overrides for every product it can see.
func (s *storeService) Upsert(ctx context.Context, req *UpsertStoreRequest, actor string) (*model.Store, *OnboardResult, error) {
	req.Slug = normalizeSlug(req.Slug)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	// 1. Validate
	if err := validate(req); err != nil {
		return nil, nil, err
	}

	store := &model.Store{
		Slug:       req.Slug,
		Name:       req.Name,
		Phone:      req.Phone,
		ThemeColor: lo.Ternary(req.ThemeColor == "", model.DefaultThemeColor, req.ThemeColor),
	}
	store.CreatedBy = actorOr(actor)
	store.UpdatedBy = actorOr(actor)

	result := &OnboardResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Upsert the store row
		created, err := s.storeRepo.WithTx(tx).Upsert(ctx, store)
		if err != nil {
			return err
		}
		result.Created = created

		// 3. Seed categories from the master taxonomy
		categories := s.categoryRepo.WithTx(tx)
		if result.CategoriesSeeded, err = categories.SeedFromMaster(ctx, store.ID); err != nil {
			return err
		}

		// 4. Bootstrap overrides, mapped to the store category of each product's master category
		result.OverridesBootstrapped, err = s.bootstrapOverrides(ctx, tx, store.ID, actorOr(actor))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.FromContext(ctx).Info("store upserted",
		zap.String("store", store.Slug),
		zap.Bool("created", result.Created),
		zap.Int64("categories_seeded", result.CategoriesSeeded),
		zap.Int64("overrides_bootstrapped", result.OverridesBootstrapped),
	)
	return store, result, nil
}

func (s *storeService) bootstrapOverrides(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, actor string) (int64, error) {
	categories := s.categoryRepo.WithTx(tx)
	uncategorized, err := categories.EnsureUncategorized(ctx, storeID)
	if err != nil {
		return 0, err
	}
	storeCategories, err := categories.ListByStore(ctx, storeID)
	if err != nil {
		return 0, err
	}
	byMaster := make(map[uuid.UUID]uuid.UUID)
	for _, c := range storeCategories {
		if c.MasterCategoryID != nil {
			byMaster[*c.MasterCategoryID] = c.ID
		}
	}

	products, err := s.productRepo.WithTx(tx).ListVisible(ctx, storeID, true)
	if err != nil {
		return 0, err
	}

	overrides := lo.Map(products, func(p model.CatalogProduct, _ int) model.StoreProductOverride {
		categoryID := uncategorized.ID
		if p.MasterCategoryID != nil {
			if id, ok := byMaster[*p.MasterCategoryID]; ok {
				categoryID = id
			}
		}
		o := model.StoreProductOverride{
			StoreID:          storeID,
			ProductID:        p.ID,
			CategoryID:       lo.ToPtr(categoryID),
			Stock:            lo.ToPtr(0),
			IsActiveOverride: lo.ToPtr(true),
		}
		o.CreatedBy = actor
		o.UpdatedBy = actor
		return o
	})
	return s.productRepo.WithTx(tx).CreateOverridesIfMissing(ctx, overrides)
}

func (s *storeService) Update(ctx context.Context, slug string, req *UpdateStoreRequest, actor string) (*model.Store, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	store, err := s.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		store.Name = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		store.Phone = phone
	}
	if req.ThemeColor != "" {
		store.ThemeColor = req.ThemeColor
	}
	store.UpdatedBy = actorOr(actor)
	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// Delete removes the store and everything scoped to it in one transaction.
func (s *storeService) Delete(ctx context.Context, slug string) error {
	store, err := s.Resolve(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.storeRepo.WithTx(tx).DeleteCascade(ctx, store.ID)
	}); err != nil {
		return err
	}
	logger.FromContext(ctx).Warn("store deleted", zap.String("store", store.Slug), zap.String("id", store.ID.String()))
	return nil
}
