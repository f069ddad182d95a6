package inventory

import (
	"testing"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestEffective(t *testing.T) {
	p := &model.CatalogProduct{BaseModel: model.BaseModel{ID: uuid.New()}, Stock: 20}
	shared := Policy{SharedFallback: true}
	isolated := Policy{SharedFallback: false}

	stock, scope := shared.Effective(p, nil)
	assert.Equal(t, 20, stock)
	assert.Equal(t, model.StockScopeShared, scope)

	stock, scope = shared.Effective(p, &model.StoreProductOverride{Stock: lo.ToPtr(5)})
	assert.Equal(t, 5, stock)
	assert.Equal(t, model.StockScopeStore, scope)

	stock, _ = shared.Effective(p, &model.StoreProductOverride{Stock: lo.ToPtr(0)})
	assert.Equal(t, 0, stock)

	stock, scope = isolated.Effective(p, &model.StoreProductOverride{})
	assert.Equal(t, 0, stock)
	assert.Equal(t, model.StockScopeStore, scope)
}

func TestOwner(t *testing.T) {
	store := uuid.New()
	p := &model.CatalogProduct{BaseModel: model.BaseModel{ID: uuid.New()}, Stock: 20}

	owner, ok := Policy{SharedFallback: true}.Owner(store, p, nil)
	assert.True(t, ok)
	assert.Equal(t, model.StockOwner{Scope: model.StockScopeShared, ProductID: p.ID}, owner)

	owner, ok = Policy{SharedFallback: true}.Owner(store, p, &model.StoreProductOverride{Stock: lo.ToPtr(3)})
	assert.True(t, ok)
	assert.Equal(t, model.StockOwner{Scope: model.StockScopeStore, StoreID: store, ProductID: p.ID}, owner)

	_, ok = Policy{SharedFallback: false}.Owner(store, p, nil)
	assert.False(t, ok)
}

func TestActive(t *testing.T) {
	p := &model.CatalogProduct{IsActive: true}
	assert.True(t, Active(p, nil))
	assert.False(t, Active(p, &model.StoreProductOverride{IsActiveOverride: lo.ToPtr(false)}))
	assert.True(t, Active(p, &model.StoreProductOverride{IsActiveOverride: lo.ToPtr(true)}))
	assert.False(t, Active(&model.CatalogProduct{}, &model.StoreProductOverride{IsActiveOverride: lo.ToPtr(true)}))
}
