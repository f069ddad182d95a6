package service

import (
	"context"
	"errors"
	"testing"

	"grocery-storefront/internal/model"
	"grocery-storefront/pkg/gs1"
	"grocery-storefront/pkg/patch"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBarcode struct {
	product *gs1.Product
	err     error
	calls   int
}

func (f *fakeBarcode) LookupGTIN(_ context.Context, _ string) (*gs1.Product, error) {
	f.calls++
	return f.product, f.err
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPricePriorityThroughPatch(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	store := f.store(t, "green-mart")
	p := f.product(t, "Garam Masala 200g", "12.00", 5)

	patchAndCheck := func(req *UpdateProductRequest, price, regular string) *model.ProductView {
		t.Helper()
		v, err := f.catalog.UpdateProduct(f.ctx, store, p.ID, req, "")
		require.NoError(t, err)
		assert.Equal(t, price, v.Price.StringFixed(2))
		assert.Equal(t, regular, v.RegularPrice.StringFixed(2))
		return v
	}

	patchAndCheck(&UpdateProductRequest{Price: patch.Set(money("10"))}, "10.00", "10.00")
	patchAndCheck(&UpdateProductRequest{DiscountPercent: patch.Set(money("20"))}, "8.00", "10.00")
	v := patchAndCheck(&UpdateProductRequest{DiscountPrice: patch.Set(money("7"))}, "7.00", "10.00")
	assert.True(t, v.DiscountPercent.Valid, "omitted fields are kept")

	// null clears, omitted keeps
	patchAndCheck(&UpdateProductRequest{DiscountPrice: patch.Null[decimal.Decimal]()}, "8.00", "10.00")
	patchAndCheck(&UpdateProductRequest{DiscountPercent: patch.Null[decimal.Decimal]()}, "10.00", "10.00")
	patchAndCheck(&UpdateProductRequest{Price: patch.Null[decimal.Decimal]()}, "12.00", "12.00")
}

func TestPercentRoundsHalfAwayFromZero(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	store := f.store(t, "green-mart")
	p := f.product(t, "Toor Dal 2kg", "0.15", 5)

	v, err := f.catalog.UpdateProduct(f.ctx, store, p.ID, &UpdateProductRequest{
		DiscountPercent: patch.Set(money("50")),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "0.08", v.Price.StringFixed(2))
}

func TestPatchValidationLeavesProductUntouched(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	store := f.store(t, "green-mart")
	p := f.product(t, "Toor Dal 2kg", "18.50", 5)

	cases := []struct {
		req   *UpdateProductRequest
		field string
	}{
		{&UpdateProductRequest{DiscountPercent: patch.Set(money("101")), Price: patch.Set(money("1"))}, "discount_percent"},
		{&UpdateProductRequest{DiscountPercent: patch.Set(money("-1"))}, "discount_percent"},
		{&UpdateProductRequest{DiscountPrice: patch.Set(money("-0.01"))}, "discount_price"},
		{&UpdateProductRequest{Price: patch.Set(money("-5"))}, "price"},
		{&UpdateProductRequest{Name: patch.Set("  ")}, "name"},
	}
	for _, tc := range cases {
		_, err := f.catalog.UpdateProduct(f.ctx, store, p.ID, tc.req, "")
		var fieldErr *FieldError
		require.True(t, errors.As(err, &fieldErr), "got %v", err)
		assert.Equal(t, tc.field, fieldErr.Field)
	}

	v := f.view(t, store, p.ID)
	assert.Equal(t, "18.50", v.Price.StringFixed(2))
	override, err := f.productRepo.FindOverride(f.ctx, store.ID, p.ID)
	require.NoError(t, err)
	assert.Nil(t, override)

	// 0 and 100 are both valid percents
	v, err = f.catalog.UpdateProduct(f.ctx, store, p.ID, &UpdateProductRequest{DiscountPercent: patch.Set(money("100"))}, "")
	require.NoError(t, err)
	assert.True(t, v.Price.IsZero())
}

func TestOverridesAreIndependentPerStore(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	a := f.store(t, "store-a")
	b := f.store(t, "store-b")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	_, err := f.catalog.UpdateProduct(f.ctx, a, p.ID, &UpdateProductRequest{
		Price:    patch.Set(money("29.99")),
		ImageURL: patch.Set("https://cdn.example.com/rice.png"),
	}, "")
	require.NoError(t, err)

	va := f.view(t, a, p.ID)
	vb := f.view(t, b, p.ID)
	assert.Equal(t, "29.99", va.Price.StringFixed(2))
	assert.Equal(t, "https://cdn.example.com/rice.png", va.ImageURL)
	assert.Equal(t, "32.00", vb.Price.StringFixed(2))
	assert.Empty(t, vb.ImageURL)

	var catalog model.CatalogProduct
	require.NoError(t, f.db.First(&catalog, "id = ?", p.ID).Error)
	assert.Equal(t, "32.00", catalog.BasePrice.StringFixed(2))
}

func TestCategoryMustBelongToStore(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	a := f.store(t, "store-a")
	b := f.store(t, "store-b")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	own, err := f.categories.Create(f.ctx, a, &CreateCategoryRequest{Name: "Rice"}, "")
	require.NoError(t, err)
	foreign, err := f.categories.Create(f.ctx, b, &CreateCategoryRequest{Name: "Rice"}, "")
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(f.ctx, a, p.ID, &UpdateProductRequest{CategoryID: patch.Set(foreign.ID)}, "")
	assert.ErrorIs(t, err, ErrValidation)

	v, err := f.catalog.UpdateProduct(f.ctx, a, p.ID, &UpdateProductRequest{CategoryID: patch.Set(own.ID)}, "")
	require.NoError(t, err)
	require.NotNil(t, v.Category)
	assert.Equal(t, "Rice", v.Category.Name)

	list, err := f.catalog.ListProducts(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].CategoryID)
	assert.Equal(t, own.ID, *list[0].CategoryID)
}

func TestSetStockScopes(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	a := f.store(t, "store-a")
	b := f.store(t, "store-b")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	v, err := f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Set(12)}, "")
	require.NoError(t, err)
	assert.Equal(t, 12, v.Stock)
	assert.Equal(t, model.StockScopeStore, v.StockScope)
	assert.Equal(t, 5, f.stock(t, b, p.ID))

	_, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Set(40), Scope: "global"}, "")
	require.NoError(t, err)
	assert.Equal(t, 12, f.stock(t, a, p.ID))
	assert.Equal(t, 40, f.stock(t, b, p.ID))

	v, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Null[int](), Scope: "store"}, "")
	require.NoError(t, err)
	assert.Equal(t, 40, v.Stock)
	assert.Equal(t, model.StockScopeShared, v.StockScope)

	_, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Null[int](), Scope: "global"}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Set(-1)}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.SetStock(f.ctx, a, p.ID, &SetStockRequest{Stock: patch.Set(1), Scope: "planet"}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.SetStock(f.ctx, a, uuid.New(), &SetStockRequest{Stock: patch.Set(1)}, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkInventoryIsAtomic(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	store := f.store(t, "green-mart")
	rice := f.product(t, "Basmati Rice 5kg", "32.00", 5)
	dal := f.product(t, "Toor Dal 2kg", "18.50", 5)

	_, err := f.catalog.BulkSetInventory(f.ctx, store, &BulkInventoryRequest{Items: []InventoryItem{
		{ProductID: rice.ID, Stock: ptr(9)},
		{ProductID: uuid.New(), Stock: ptr(3)},
	}}, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 5, f.stock(t, store, rice.ID))

	_, err = f.catalog.BulkSetInventory(f.ctx, store, &BulkInventoryRequest{Items: []InventoryItem{
		{ProductID: rice.ID},
	}}, "")
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "items[0].stock", fieldErr.Field)

	n, err := f.catalog.BulkSetInventory(f.ctx, store, &BulkInventoryRequest{Items: []InventoryItem{
		{ProductID: rice.ID, Stock: ptr(9)},
		{ProductID: dal.ID, Stock: ptr(0)},
	}}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 9, f.stock(t, store, rice.ID))
	assert.Equal(t, 0, f.stock(t, store, dal.ID))
}

func TestStoreOwnedProducts(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	a := f.store(t, "store-a")
	b := f.store(t, "store-b")

	category, err := f.categories.Create(f.ctx, a, &CreateCategoryRequest{Name: "Pickles"}, "")
	require.NoError(t, err)

	created, err := f.catalog.CreateProduct(f.ctx, a, &CreateProductRequest{
		Name:       "Mango Pickle",
		Price:      ptr(money("4.999")),
		CategoryID: &category.ID,
		Stock:      ptr(6),
	}, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "5.00", created.Price.StringFixed(2))
	assert.Equal(t, 6, created.Stock)
	assert.Equal(t, model.StockScopeStore, created.StockScope)
	assert.False(t, created.IsGlobal)

	_, err = f.catalog.GetProduct(f.ctx, b, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.CreateProduct(f.ctx, a, &CreateProductRequest{Name: "No Price"}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.CreateProduct(f.ctx, a, &CreateProductRequest{Name: "Negative", Price: ptr(money("-1"))}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.CreateProduct(f.ctx, b, &CreateProductRequest{Name: "Wrong Cat", Price: ptr(money("1")), CategoryID: &category.ID}, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMakeGlobalInfersMasterCategory(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	master := &model.MasterCategory{Slug: "pickles", Name: "Pickles"}
	require.NoError(t, f.categoryRepo.CreateMaster(f.ctx, master))

	a := f.store(t, "store-a")
	b := f.store(t, "store-b")
	categories, err := f.categories.List(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	created, err := f.catalog.CreateProduct(f.ctx, a, &CreateProductRequest{
		Name:       "Mango Pickle",
		Price:      ptr(money("4.50")),
		CategoryID: &categories[0].ID,
	}, "")
	require.NoError(t, err)

	promoted, err := f.catalog.MakeGlobal(f.ctx, a, created.ID, "")
	require.NoError(t, err)
	assert.True(t, promoted.IsGlobal)
	assert.Nil(t, promoted.OwnerStoreID)
	require.NotNil(t, promoted.MasterCategoryID)
	assert.Equal(t, master.ID, *promoted.MasterCategoryID)

	visible := f.view(t, b, created.ID)
	assert.Equal(t, "Mango Pickle", visible.Name)

	_, err = f.catalog.MakeGlobal(f.ctx, b, uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetActivePerStore(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	a := f.store(t, "store-a")
	b := f.store(t, "store-b")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	v, err := f.catalog.SetActive(f.ctx, a, p.ID, false, "")
	require.NoError(t, err)
	assert.False(t, v.IsActive)

	listA, err := f.catalog.ListProducts(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, listA)
	_, err = f.catalog.GetProduct(f.ctx, a, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	listB, err := f.catalog.ListProducts(f.ctx, b)
	require.NoError(t, err)
	assert.Len(t, listB, 1)

	_, err = f.catalog.SetActive(f.ctx, a, p.ID, true, "")
	require.NoError(t, err)
	assert.True(t, f.view(t, a, p.ID).IsActive)
}

func TestEnrich(t *testing.T) {
	barcode := &fakeBarcode{product: &gs1.Product{
		GTIN:         "8901725121112",
		Name:         "India Gate Basmati Rice Classic",
		Brand:        "India Gate",
		ImageURL:     "https://img.example.com/ig.png",
		PackSize:     "5 kg",
		Manufacturer: "KRBL",
	}}
	f := newFixture(t, sharedFallback(), barcode)
	store := f.store(t, "green-mart")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	_, err := f.catalog.Enrich(f.ctx, store, p.ID, &EnrichRequest{}, "")
	assert.ErrorIs(t, err, ErrValidation, "no barcode on product or request")

	v, err := f.catalog.Enrich(f.ctx, store, p.ID, &EnrichRequest{GTIN: "8901725121112"}, "")
	require.NoError(t, err)
	assert.Equal(t, "India Gate", v.Brand)
	assert.Equal(t, "5 kg", v.PackSize)
	assert.Equal(t, "https://img.example.com/ig.png", v.ImageURL)
	assert.Equal(t, "32.00", v.Price.StringFixed(2))

	var stored model.CatalogProduct
	require.NoError(t, f.db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, "8901725121112", stored.GTIN)
	assert.Equal(t, "KRBL", stored.Attributes["manufacturer"])

	// Upstream outage is a 502-class error and changes nothing
	barcode.err = gs1.ErrUnavailable
	barcode.product = nil
	_, err = f.catalog.Enrich(f.ctx, store, p.ID, &EnrichRequest{}, "")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, f.recorder.enrichFails)
	assert.Equal(t, "India Gate", f.view(t, store, p.ID).Brand)

	barcode.err = gs1.ErrNotFound
	_, err = f.catalog.Enrich(f.ctx, store, p.ID, &EnrichRequest{}, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrichWithoutBarcodeService(t *testing.T) {
	f := newFixture(t, sharedFallback(), nil)
	store := f.store(t, "green-mart")
	p := f.product(t, "Basmati Rice 5kg", "32.00", 5)

	_, err := f.catalog.Enrich(f.ctx, store, p.ID, &EnrichRequest{GTIN: "8901725121112"}, "")
	assert.ErrorIs(t, err, ErrUpstream)
}
