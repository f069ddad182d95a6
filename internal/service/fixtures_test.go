package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"grocery-storefront/internal/inventory"
	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"
	"grocery-storefront/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRecorder struct {
	mu          sync.Mutex
	transitions map[string]int
	conflicts   int
	enrichFails int
}

func (r *fakeRecorder) OrderTransition(store, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transitions == nil {
		r.transitions = map[string]int{}
	}
	r.transitions[status]++
}

func (r *fakeRecorder) StockConflict(store, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *fakeRecorder) EnrichFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrichFails++
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	recorder *fakeRecorder

	storeRepo    repository.StoreRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository

	stores     StoreService
	catalog    CatalogService
	categories CategoryService
	customers  CustomerService
	orders     OrderService
}

func newFixture(t *testing.T, policy inventory.Policy, barcode BarcodeLookup) *fixture {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		ctx:          context.Background(),
		db:           db,
		recorder:     &fakeRecorder{},
		storeRepo:    repository.NewStoreRepo(db),
		categoryRepo: repository.NewCategoryRepo(db),
		productRepo:  repository.NewProductRepo(db),
		stockRepo:    repository.NewStockRepo(),
	}
	orderRepo := repository.NewOrderRepo(db)
	customerRepo := repository.NewCustomerRepo(db)

	f.stores = NewStoreService(f.storeRepo, f.categoryRepo, f.productRepo, db)
	f.catalog = NewCatalogService(f.productRepo, f.categoryRepo, f.stockRepo, policy, barcode, f.recorder, db, nil)
	f.categories = NewCategoryService(f.categoryRepo, db)
	f.customers = NewCustomerService(customerRepo)
	f.orders = NewOrderService(orderRepo, f.productRepo, f.stockRepo, customerRepo, policy, f.recorder, 45*time.Minute, db, nil)
	return f
}

func sharedFallback() inventory.Policy {
	return inventory.Policy{SharedFallback: true}
}

// store creates a bare store without onboarding, so it has no overrides.
func (f *fixture) store(t *testing.T, slug string) *model.Store {
	t.Helper()
	store := &model.Store{Slug: slug, Name: slug, Phone: "+61400000000", ThemeColor: model.DefaultThemeColor}
	_, err := f.storeRepo.Upsert(f.ctx, store)
	require.NoError(t, err)
	return store
}

func (f *fixture) product(t *testing.T, name, price string, sharedStock int) *model.CatalogProduct {
	t.Helper()
	p := &model.CatalogProduct{
		Name:      name,
		BasePrice: decimal.RequireFromString(price),
		Stock:     sharedStock,
		IsActive:  true,
		IsGlobal:  true,
	}
	require.NoError(t, f.productRepo.Create(f.ctx, p))
	return p
}

func (f *fixture) setStoreStock(t *testing.T, store *model.Store, productID uuid.UUID, stock *int) {
	t.Helper()
	require.NoError(t, f.stockRepo.SetStore(f.db, store.ID, productID, stock, "test"))
}

func (f *fixture) view(t *testing.T, store *model.Store, productID uuid.UUID) *model.ProductView {
	t.Helper()
	v, err := f.catalog.GetProduct(f.ctx, store, productID)
	require.NoError(t, err)
	return v
}

func (f *fixture) stock(t *testing.T, store *model.Store, productID uuid.UUID) int {
	t.Helper()
	return f.view(t, store, productID).Stock
}

func orderFor(productID uuid.UUID, qty int) *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerName:  "Priya",
		CustomerPhone: "+61411111111",
		CustomerEmail: "priya@example.com",
		AddressLine1:  "1 George St",
		City:          "Sydney",
		Items:         []OrderItemRequest{{ProductID: productID, Quantity: qty}},
	}
}

func ptr[T any](v T) *T { return &v }
