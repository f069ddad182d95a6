package repository

import (
	"context"
	"testing"

	"grocery-storefront/internal/model"
	"grocery-storefront/pkg/database"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func mkStore(t *testing.T, db *gorm.DB, slug string) *model.Store {
	t.Helper()
	store := &model.Store{Slug: slug, Name: slug, Phone: "+6100", ThemeColor: model.DefaultThemeColor}
	require.NoError(t, db.Create(store).Error)
	return store
}

func mkProduct(t *testing.T, db *gorm.DB, name string, stock int, owner *uuid.UUID) *model.CatalogProduct {
	t.Helper()
	p := &model.CatalogProduct{
		Name:         name,
		BasePrice:    decimal.RequireFromString("10.00"),
		Stock:        stock,
		IsActive:     true,
		IsGlobal:     owner == nil,
		OwnerStoreID: owner,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func sharedStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p model.CatalogProduct
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestReserveIsConditional(t *testing.T) {
	db := newTestDB(t)
	p := mkProduct(t, db, "Toor Dal 2kg", 3, nil)
	repo := NewStockRepo()
	owner := model.StockOwner{Scope: model.StockScopeShared, ProductID: p.ID}

	ok, err := repo.Reserve(db, owner, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, sharedStock(t, db, p.ID))

	ok, err = repo.Reserve(db, owner, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, sharedStock(t, db, p.ID))

	ok, err = repo.Release(db, owner, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	available, err := repo.Available(db, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestStoreScopedStock(t *testing.T) {
	db := newTestDB(t)
	store := mkStore(t, db, "green-mart")
	p := mkProduct(t, db, "Basmati Rice 5kg", 100, nil)
	repo := NewStockRepo()
	owner := model.StockOwner{Scope: model.StockScopeStore, StoreID: store.ID, ProductID: p.ID}

	// No override row yet: nothing to reserve from
	ok, err := repo.Reserve(db, owner, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetStore(db, store.ID, p.ID, lo.ToPtr(5), "test"))
	require.NoError(t, repo.SetStore(db, store.ID, p.ID, lo.ToPtr(10), "test"))

	var count int64
	require.NoError(t, db.Model(&model.StoreProductOverride{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "SetStore upserts a single row")

	ok, err = repo.Reserve(db, owner, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	available, err := repo.Available(db, owner)
	require.NoError(t, err)
	assert.Equal(t, 6, available)
	assert.Equal(t, 100, sharedStock(t, db, p.ID), "shared pool untouched")

	// Clearing the store pool makes a later release a no-op
	require.NoError(t, repo.SetStore(db, store.ID, p.ID, nil, "test"))
	ok, err = repo.Release(db, owner, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkStore(t, db, "store-a")
	b := mkStore(t, db, "store-b")

	global := mkProduct(t, db, "Garam Masala 200g", 5, nil)
	ownedA := mkProduct(t, db, "House Pickle", 5, &a.ID)
	ownedB := mkProduct(t, db, "Other Pickle", 5, &b.ID)

	repo := NewProductRepo(db)
	visible, err := repo.ListVisible(ctx, a.ID, true)
	require.NoError(t, err)
	ids := lo.Map(visible, func(p model.CatalogProduct, _ int) uuid.UUID { return p.ID })
	assert.ElementsMatch(t, []uuid.UUID{global.ID, ownedA.ID}, ids)

	_, err = repo.FindVisible(ctx, a.ID, ownedB.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindVisibleByIDs(ctx, a.ID, []uuid.UUID{global.ID, ownedB.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	override, err := repo.FindOverride(ctx, a.ID, global.ID)
	require.NoError(t, err)
	assert.Nil(t, override)
}

func TestSaveOverrideClearsNulls(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	p := mkProduct(t, db, "Basmati Rice 5kg", 5, nil)
	repo := NewProductRepo(db)

	o := &model.StoreProductOverride{
		StoreID:       store.ID,
		ProductID:     p.ID,
		PriceOverride: decimal.NewNullDecimal(decimal.RequireFromString("12.00")),
		NameOverride:  lo.ToPtr("Rice"),
	}
	require.NoError(t, repo.SaveOverride(ctx, o))

	o.PriceOverride = decimal.NullDecimal{}
	o.NameOverride = nil
	require.NoError(t, repo.SaveOverride(ctx, o))

	got, err := repo.FindOverride(ctx, store.ID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.PriceOverride.Valid)
	assert.Nil(t, got.NameOverride)
}

func TestSaveOverrideLeavesStockAlone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	p := mkProduct(t, db, "Basmati Rice 5kg", 0, nil)
	repo := NewProductRepo(db)
	stock := NewStockRepo()

	o := &model.StoreProductOverride{StoreID: store.ID, ProductID: p.ID, Stock: lo.ToPtr(5)}
	require.NoError(t, repo.SaveOverride(ctx, o))

	owner := model.StockOwner{Scope: model.StockScopeStore, StoreID: store.ID, ProductID: p.ID}
	ok, err := stock.Reserve(db, owner, 1)
	require.NoError(t, err)
	require.True(t, ok)

	// o still carries Stock 5 from before the reservation
	o.PriceOverride = decimal.NewNullDecimal(decimal.RequireFromString("30.00"))
	require.NoError(t, repo.SaveOverride(ctx, o))

	got, err := repo.FindOverride(ctx, store.ID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 4, *got.Stock)
	assert.Equal(t, "30.00", got.PriceOverride.Decimal.StringFixed(2))
}

func TestSeedFromMasterIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	repo := NewCategoryRepo(db)

	require.NoError(t, repo.CreateMaster(ctx, &model.MasterCategory{Slug: "spices", Name: "Spices"}))
	require.NoError(t, repo.CreateMaster(ctx, &model.MasterCategory{Slug: "rice", Name: "Rice"}))
	require.NoError(t, repo.CreateMaster(ctx, &model.MasterCategory{Slug: "rice", Name: "Rice again"}))

	masters, err := repo.ListMaster(ctx)
	require.NoError(t, err)
	assert.Len(t, masters, 2)

	n, err := repo.SeedFromMaster(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.SeedFromMaster(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	first, err := repo.EnsureUncategorized(ctx, store.ID)
	require.NoError(t, err)
	second, err := repo.EnsureUncategorized(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	categories, err := repo.ListByStore(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, model.UncategorizedName, categories[2].Name)
}

func TestFindByContact(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	repo := NewCustomerRepo(db)

	require.NoError(t, repo.Create(ctx, &model.Customer{StoreID: store.ID, Name: "Priya", Phone: "+61411", Email: "priya@example.com"}))

	byPhone, err := repo.FindByContact(ctx, store.ID, "+61411", "")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, "Priya", byPhone.Name)

	byEmail, err := repo.FindByContact(ctx, store.ID, "+61999", "PRIYA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	none, err := repo.FindByContact(ctx, store.ID, "+61999", "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	other := mkStore(t, db, "sydney-spice")
	none, err = repo.FindByContact(ctx, other.ID, "+61411", "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransitionStatusIsCheckAndSet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	repo := NewOrderRepo(db)

	order := &model.Order{StoreID: store.ID, Status: model.OrderPendingPayment, CustomerName: "Ravi", Total: decimal.Zero}
	require.NoError(t, repo.Create(ctx, order))

	ok, err := repo.TransitionStatus(ctx, store.ID, order.ID, model.OrderPendingPayment, model.OrderConfirmed, "test")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, store.ID, order.ID, model.OrderPendingPayment, model.OrderCancelled, "test")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SetFulfillment(ctx, store.ID, order.ID, model.FulfillmentPacked, "test")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, store.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, got.Status)
	require.NotNil(t, got.FulfillmentStatus)
	assert.Equal(t, model.FulfillmentPacked, *got.FulfillmentStatus)
}

func TestDeleteCascade(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	other := mkStore(t, db, "sydney-spice")
	global := mkProduct(t, db, "Basmati Rice 5kg", 5, nil)
	owned := mkProduct(t, db, "House Pickle", 5, &store.ID)

	categories := NewCategoryRepo(db)
	_, err := categories.EnsureUncategorized(ctx, store.ID)
	require.NoError(t, err)
	stock := NewStockRepo()
	require.NoError(t, stock.SetStore(db, store.ID, global.ID, lo.ToPtr(3), "test"))
	require.NoError(t, stock.SetStore(db, other.ID, global.ID, lo.ToPtr(7), "test"))
	require.NoError(t, NewCustomerRepo(db).Create(ctx, &model.Customer{StoreID: store.ID, Name: "Ravi", Phone: "1"}))
	require.NoError(t, NewOrderRepo(db).Create(ctx, &model.Order{
		StoreID:      store.ID,
		Status:       model.OrderPendingPayment,
		CustomerName: "Ravi",
		Total:        decimal.RequireFromString("10"),
		Items: []model.OrderItem{{
			ProductID:  owned.ID,
			Quantity:   1,
			UnitPrice:  decimal.RequireFromString("10"),
			StockScope: model.StockScopeShared,
		}},
	}))

	err = db.Transaction(func(tx *gorm.DB) error {
		return NewStoreRepo(db).WithTx(tx).DeleteCascade(ctx, store.ID)
	})
	require.NoError(t, err)

	count := func(m interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(&model.Store{}))
	assert.Equal(t, int64(0), count(&model.Order{}))
	assert.Equal(t, int64(0), count(&model.OrderItem{}))
	assert.Equal(t, int64(0), count(&model.Customer{}))
	assert.Equal(t, int64(0), count(&model.Category{}))
	assert.Equal(t, int64(1), count(&model.StoreProductOverride{}), "other store keeps its override")
	assert.Equal(t, int64(1), count(&model.CatalogProduct{}), "global product survives")
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := mkStore(t, db, "green-mart")
	mkProduct(t, db, "Basmati Rice 5kg", 50, nil)
	mkProduct(t, db, "Toor Dal 2kg", 2, nil)

	orders := NewOrderRepo(db)
	require.NoError(t, orders.Create(ctx, &model.Order{StoreID: store.ID, Status: model.OrderConfirmed, CustomerName: "A", Total: decimal.RequireFromString("64.00")}))
	require.NoError(t, orders.Create(ctx, &model.Order{StoreID: store.ID, Status: model.OrderPendingPayment, CustomerName: "B", Total: decimal.RequireFromString("18.50")}))

	stats, err := NewStatsRepo(db).GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalStores)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.Equal(t, "64.00", stats.Revenue.StringFixed(2))
}
