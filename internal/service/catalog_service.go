package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery-storefront/internal/inventory"
	"grocery-storefront/internal/model"
	"grocery-storefront/internal/pricing"
	"grocery-storefront/internal/repository"
	"grocery-storefront/internal/ws"
	"grocery-storefront/pkg/gs1"
	"grocery-storefront/pkg/logger"
	"grocery-storefront/pkg/patch"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Brand       string           `json:"brand" validate:"max=255"`
	PackSize    string           `json:"pack_size" validate:"max=100"`
	GTIN        string           `json:"gtin" validate:"omitempty,numeric,max=14"`
}

// UpdateProductRequest is a PATCH body: omitted members are left unchanged,
// members sent as null clear the store's override for that field.
type UpdateProductRequest struct {
	Name            patch.Field[string]          `json:"name"`
	CategoryID      patch.Field[uuid.UUID]       `json:"category_id"`
	ImageURL        patch.Field[string]          `json:"image_url"`
	Price           patch.Field[decimal.Decimal] `json:"price"`
	DiscountPercent patch.Field[decimal.Decimal] `json:"discount_percent"`
	DiscountPrice   patch.Field[decimal.Decimal] `json:"discount_price"`
}

const (
	StockScopeStore  = "store"
	StockScopeGlobal = "global"
)

type SetStockRequest struct {
	Stock patch.Field[int] `json:"stock"`
	Scope string           `json:"scope" validate:"omitempty,oneof=store global"`
}

type InventoryItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Stock     *int      `json:"stock" validate:"required,gte=0"`
}

type BulkInventoryRequest struct {
	Items []InventoryItem `json:"items" validate:"required,min=1,dive"`
}

type EnrichRequest struct {
	GTIN string `json:"gtin"`
}

// BarcodeLookup is the external product-data service. *gs1.Client implements it.
type BarcodeLookup interface {
	LookupGTIN(ctx context.Context, gtin string) (*gs1.Product, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context, store *model.Store) ([]model.ProductView, error)
	GetProduct(ctx context.Context, store *model.Store, id uuid.UUID) (*model.ProductView, error)
	CreateProduct(ctx context.Context, store *model.Store, req *CreateProductRequest, actor string) (*model.ProductView, error)
	UpdateProduct(ctx context.Context, store *model.Store, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.ProductView, error)
	SetStock(ctx context.Context, store *model.Store, id uuid.UUID, req *SetStockRequest, actor string) (*model.ProductView, error)
	BulkSetInventory(ctx context.Context, store *model.Store, req *BulkInventoryRequest, actor string) (int, error)
	SetActive(ctx context.Context, store *model.Store, id uuid.UUID, active bool, actor string) (*model.ProductView, error)
	MakeGlobal(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*model.CatalogProduct, error)
	Enrich(ctx context.Context, store *model.Store, id uuid.UUID, req *EnrichRequest, actor string) (*model.ProductView, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	stockRepo    repository.StockRepository
	policy       inventory.Policy
	barcode      BarcodeLookup
	recorder     Recorder
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewCatalogService(
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	stRepo repository.StockRepository,
	policy inventory.Policy,
	barcode BarcodeLookup,
	recorder Recorder,
	db *gorm.DB,
	hub *ws.Hub,
) CatalogService {
	return &catalogService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		stockRepo:    stRepo,
		policy:       policy,
		barcode:      barcode,
		recorder:     recorderOrNoop(recorder),
		db:           db,
		wsHub:        hub,
	}
}

// BuildProductView merges the override onto the catalog product and resolves price and stock.
func BuildProductView(p *model.CatalogProduct, o *model.StoreProductOverride, pol inventory.Policy) model.ProductView {
	quote := pricing.Resolve(p, o)
	stock, scope := pol.Effective(p, o)

	v := model.ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        quote.Price,
		RegularPrice: quote.RegularPrice,
		ImageURL:     p.ImageURL,
		Stock:        stock,
		StockScope:   scope,
		Brand:        p.Brand,
		PackSize:     p.PackSize,
		IsGlobal:     p.IsGlobal,
		IsActive:     inventory.Active(p, o),
	}
	if o == nil {
		return v
	}
	if o.NameOverride != nil && *o.NameOverride != "" {
		v.Name = *o.NameOverride
	}
	if o.ImageURLOverride != nil && *o.ImageURLOverride != "" {
		v.ImageURL = *o.ImageURLOverride
	}
	v.DiscountPercent = o.DiscountPercent
	v.DiscountPrice = o.DiscountPrice
	v.CategoryID = o.CategoryID
	if o.Category != nil {
		v.Category = &model.CategoryRef{ID: o.Category.ID, Name: o.Category.Name}
	}
	return v
}

func (s *catalogService) ListProducts(ctx context.Context, store *model.Store) ([]model.ProductView, error) {
	products, err := s.productRepo.ListVisible(ctx, store.ID, true)
	if err != nil {
		return nil, err
	}
	overrides, err := s.productRepo.ListOverrides(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	byProduct := lo.SliceToMap(overrides, func(o model.StoreProductOverride) (uuid.UUID, model.StoreProductOverride) {
		return o.ProductID, o
	})

	views := make([]model.ProductView, 0, len(products))
	for i := range products {
		var o *model.StoreProductOverride
		if found, ok := byProduct[products[i].ID]; ok {
			o = &found
		}
		v := BuildProductView(&products[i], o, s.policy)
		if v.IsActive {
			views = append(views, v)
		}
	}
	return views, nil
}

func (s *catalogService) loadView(ctx context.Context, db *gorm.DB, storeID, id uuid.UUID) (*model.ProductView, error) {
	products := s.productRepo.WithTx(db)
	p, err := products.FindVisible(ctx, storeID, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("product %s", id))
	}
	o, err := products.FindOverride(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	v := BuildProductView(p, o, s.policy)
	return &v, nil
}

func (s *catalogService) GetProduct(ctx context.Context, store *model.Store, id uuid.UUID) (*model.ProductView, error) {
	v, err := s.loadView(ctx, s.db.WithContext(ctx), store.ID, id)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return v, nil
}

// checkCategory verifies the category belongs to the store.
func (s *catalogService) checkCategory(ctx context.Context, tx *gorm.DB, storeID, categoryID uuid.UUID) error {
	if _, err := s.categoryRepo.WithTx(tx).FindByID(ctx, storeID, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("category_id", "category does not belong to this store")
		}
		return err
	}
	return nil
}

// CreateProduct adds a product owned by the store. Stock, when given, becomes the store's own pool.
func (s *catalogService) CreateProduct(ctx context.Context, store *model.Store, req *CreateProductRequest, actor string) (*model.ProductView, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ImageURL = strings.TrimSpace(req.ImageURL)

	// 1. Validate
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Price == nil {
		return nil, invalid("price", "is required")
	}
	if err := pricing.ValidatePrice(*req.Price); err != nil {
		return nil, invalid("price", "must be a non-negative number")
	}

	actor = actorOr(actor)
	var view *model.ProductView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CategoryID != nil {
			if err := s.checkCategory(ctx, tx, store.ID, *req.CategoryID); err != nil {
				return err
			}
		}

		// 2. Catalog row
		product := &model.CatalogProduct{
			Name:         req.Name,
			Description:  strings.TrimSpace(req.Description),
			BasePrice:    req.Price.Round(2),
			ImageURL:     req.ImageURL,
			IsActive:     true,
			IsGlobal:     false,
			OwnerStoreID: lo.ToPtr(store.ID),
			Brand:        strings.TrimSpace(req.Brand),
			PackSize:     strings.TrimSpace(req.PackSize),
			GTIN:         req.GTIN,
		}
		product.CreatedBy = actor
		product.UpdatedBy = actor
		if err := s.productRepo.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}

		// 3. Store override for category and stock
		if req.CategoryID != nil || req.Stock != nil {
			override := &model.StoreProductOverride{
				StoreID:    store.ID,
				ProductID:  product.ID,
				CategoryID: req.CategoryID,
				Stock:      req.Stock,
			}
			override.CreatedBy = actor
			override.UpdatedBy = actor
			if err := s.productRepo.WithTx(tx).SaveOverride(ctx, override); err != nil {
				return err
			}
		}

		var err error
		view, err = s.loadView(ctx, tx, store.ID, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(store.Slug, map[string]interface{}{
		"type":    "stock_update",
		"action":  "product_created",
		"product": view,
		"user":    actor,
	})
	return view, nil
}

// UpdateProduct patches the store's override. Prices are validated before anything is written.
func (s *catalogService) UpdateProduct(ctx context.Context, store *model.Store, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.ProductView, error) {
	// 1. Validate money fields
	checks := []struct {
		field string
		value patch.Field[decimal.Decimal]
		check func(decimal.Decimal) error
	}{
		{"price", req.Price, pricing.ValidatePrice},
		{"discount_price", req.DiscountPrice, pricing.ValidatePrice},
		{"discount_percent", req.DiscountPercent, pricing.ValidatePercent},
	}
	for _, c := range checks {
		if v, ok := c.value.Value.Get(); ok && c.value.Present {
			if err := c.check(v); err != nil {
				return nil, invalid(c.field, "%s", err.Error())
			}
		}
	}
	if v, ok := req.Name.Value.Get(); ok && req.Name.Present && strings.TrimSpace(v) == "" {
		return nil, invalid("name", "must not be blank; send null to clear")
	}

	actor = actorOr(actor)
	var view *model.ProductView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)

		// 2. Product must be visible to the store
		if _, err := products.FindVisible(ctx, store.ID, id); err != nil {
			return notFound(err, fmt.Sprintf("product %s", id))
		}
		if categoryID := req.CategoryID.Ptr(); categoryID != nil {
			if err := s.checkCategory(ctx, tx, store.ID, *categoryID); err != nil {
				return err
			}
		}

		// 3. Apply onto the existing or a fresh override
		override, err := products.FindOverride(ctx, store.ID, id)
		if err != nil {
			return err
		}
		if override == nil {
			override = &model.StoreProductOverride{StoreID: store.ID, ProductID: id}
			override.CreatedBy = actor
		}
		override.Category = nil
		req.Name.Apply(&override.NameOverride)
		req.CategoryID.Apply(&override.CategoryID)
		req.ImageURL.Apply(&override.ImageURLOverride)
		applyMoney(req.Price, &override.PriceOverride)
		applyMoney(req.DiscountPercent, &override.DiscountPercent)
		applyMoney(req.DiscountPrice, &override.DiscountPrice)
		override.UpdatedBy = actor

		if err := products.SaveOverride(ctx, override); err != nil {
			return err
		}
		view, err = s.loadView(ctx, tx, store.ID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("product override updated",
		zap.String("store", store.Slug),
		zap.String("product_id", id.String()),
		zap.String("price", view.Price.String()),
	)
	s.wsHub.Publish(store.Slug, map[string]interface{}{
		"type":    "stock_update",
		"action":  "product_updated",
		"product": view,
		"user":    actor,
	})
	return view, nil
}

func applyMoney(f patch.Field[decimal.Decimal], target *decimal.NullDecimal) {
	if !f.Present {
		return
	}
	if v, ok := f.Value.Get(); ok {
		*target = decimal.NewNullDecimal(v.Round(2))
		return
	}
	*target = decimal.NullDecimal{}
}

// SetStock writes the store pool (scope "store", null clears it) or the shared
// catalog figure (scope "global", affects every store without a pool).
func (s *catalogService) SetStock(ctx context.Context, store *model.Store, id uuid.UUID, req *SetStockRequest, actor string) (*model.ProductView, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	scope := lo.Ternary(req.Scope == "", StockScopeStore, req.Scope)
	if !req.Stock.Present {
		return nil, invalid("stock", "is required (send null to clear the store stock)")
	}
	stock := req.Stock.Ptr()
	if stock != nil && *stock < 0 {
		return nil, invalid("stock", "must be a non-negative integer or null")
	}
	if stock == nil && scope == StockScopeGlobal {
		return nil, invalid("stock", "only the store stock can be cleared")
	}

	actor = actorOr(actor)
	var view *model.ProductView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.productRepo.WithTx(tx).FindVisible(ctx, store.ID, id)
		if err != nil {
			return notFound(err, fmt.Sprintf("product %s", id))
		}
		if scope == StockScopeGlobal {
			if err := s.stockRepo.SetShared(tx, p.ID, *stock, actor); err != nil {
				return err
			}
		} else if err := s.stockRepo.SetStore(tx, store.ID, p.ID, stock, actor); err != nil {
			return err
		}
		view, err = s.loadView(ctx, tx, store.ID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("stock set",
		zap.String("store", store.Slug),
		zap.String("product_id", id.String()),
		zap.String("scope", scope),
		zap.Int("stock", view.Stock),
	)
	s.wsHub.Publish(store.Slug, map[string]interface{}{
		"type":   "stock_update",
		"action": "stock_set",
		"product": map[string]interface{}{
			"id":          view.ID,
			"stock":       view.Stock,
			"stock_scope": view.StockScope,
		},
		"user": actor,
	})
	return view, nil
}

// BulkSetInventory sets store stock for many products at once. Either all rows are written or none.
func (s *catalogService) BulkSetInventory(ctx context.Context, store *model.Store, req *BulkInventoryRequest, actor string) (int, error) {
	if err := validate(req); err != nil {
		return 0, err
	}

	ids := lo.Uniq(lo.Map(req.Items, func(it InventoryItem, _ int) uuid.UUID { return it.ProductID }))
	actor = actorOr(actor)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visible, err := s.productRepo.WithTx(tx).FindVisibleByIDs(ctx, store.ID, ids)
		if err != nil {
			return err
		}
		if len(visible) != len(ids) {
			found := lo.Map(visible, func(p model.CatalogProduct, _ int) uuid.UUID { return p.ID })
			missing, _ := lo.Difference(ids, found)
			return fmt.Errorf("%w: products not visible to this store: %v", ErrNotFound, missing)
		}
		for _, it := range req.Items {
			if err := s.stockRepo.SetStore(tx, store.ID, it.ProductID, it.Stock, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.wsHub.Publish(store.Slug, map[string]interface{}{
		"type":    "stock_update",
		"action":  "inventory_bulk_set",
		"updated": len(req.Items),
		"user":    actor,
	})
	return len(req.Items), nil
}

func (s *catalogService) SetActive(ctx context.Context, store *model.Store, id uuid.UUID, active bool, actor string) (*model.ProductView, error) {
	actor = actorOr(actor)
	var view *model.ProductView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		if _, err := products.FindVisible(ctx, store.ID, id); err != nil {
			return notFound(err, fmt.Sprintf("product %s", id))
		}
		override, err := products.FindOverride(ctx, store.ID, id)
		if err != nil {
			return err
		}
		if override == nil {
			override = &model.StoreProductOverride{StoreID: store.ID, ProductID: id}
			override.CreatedBy = actor
		}
		override.Category = nil
		override.IsActiveOverride = lo.ToPtr(active)
		override.UpdatedBy = actor
		if err := products.SaveOverride(ctx, override); err != nil {
			return err
		}
		view, err = s.loadView(ctx, tx, store.ID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// MakeGlobal promotes a store-owned product into the shared catalog. When the product
// has no master category, it is inferred from the store category it is filed under.
func (s *catalogService) MakeGlobal(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*model.CatalogProduct, error) {
	actor = actorOr(actor)
	var promoted *model.CatalogProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		p, err := products.FindVisible(ctx, store.ID, id)
		if err != nil || !p.IsActive {
			return notFound(lo.Ternary(err != nil, err, gorm.ErrRecordNotFound), fmt.Sprintf("product %s", id))
		}

		fields := map[string]interface{}{
			"is_global":      true,
			"owner_store_id": nil,
			"updated_by":     actor,
		}
		if p.MasterCategoryID == nil {
			override, err := products.FindOverride(ctx, store.ID, id)
			if err != nil {
				return err
			}
			if override != nil && override.Category != nil && override.Category.MasterCategoryID != nil {
				fields["master_category_id"] = *override.Category.MasterCategoryID
			}
		}
		if err := products.UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		promoted, err = products.FindVisible(ctx, store.ID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("product promoted to global catalog",
		zap.String("store", store.Slug),
		zap.String("product_id", id.String()),
		zap.String("by", actor),
	)
	return promoted, nil
}

// Enrich fills brand metadata from the barcode service. Lookup failures surface as
// ErrUpstream and leave the product untouched.
func (s *catalogService) Enrich(ctx context.Context, store *model.Store, id uuid.UUID, req *EnrichRequest, actor string) (*model.ProductView, error) {
	p, err := s.productRepo.FindVisible(ctx, store.ID, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("product %s", id))
	}
	gtin := lo.Ternary(strings.TrimSpace(req.GTIN) != "", strings.TrimSpace(req.GTIN), p.GTIN)
	if gtin == "" {
		return nil, invalid("gtin", "is required when the product has no barcode")
	}
	if s.barcode == nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, gs1.ErrNotConfigured)
	}

	found, err := s.barcode.LookupGTIN(ctx, gtin)
	switch {
	case errors.Is(err, gs1.ErrInvalidGTIN):
		return nil, invalid("gtin", "is not a valid GTIN")
	case errors.Is(err, gs1.ErrNotFound):
		return nil, fmt.Errorf("%w: barcode %s", ErrNotFound, gtin)
	case err != nil:
		s.recorder.EnrichFailed()
		logger.FromContext(ctx).Warn("barcode lookup failed", zap.String("gtin", gtin), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	attrs := datatypes.JSONMap{}
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	for k, v := range found.Attributes() {
		attrs[k] = v
	}
	fields := map[string]interface{}{
		"gtin":       found.GTIN,
		"attributes": attrs,
		"updated_by": actorOr(actor),
	}
	if found.Brand != "" {
		fields["brand"] = found.Brand
	}
	if found.PackSize != "" {
		fields["pack_size"] = found.PackSize
	}
	if p.ImageURL == "" && found.ImageURL != "" {
		fields["image_url"] = found.ImageURL
	}
	if p.Description == "" && found.Description != "" {
		fields["description"] = found.Description
	}
	if err := s.productRepo.UpdateFields(ctx, p.ID, fields); err != nil {
		return nil, err
	}
	return s.loadView(ctx, s.db.WithContext(ctx), store.ID, id)
}
