// Package inventory decides which stock counter a store sells a product from.
package inventory

import (
	"grocery-storefront/internal/model"

	"github.com/google/uuid"
)

// Policy controls whether stores without an override stock fall back to the shared pool.
type Policy struct {
	SharedFallback bool
}

// Owner returns the counter a reservation by storeID for product p must touch.
// ok is false when the store has no pool to sell from (override stock unset and
// shared fallback disabled).
func (pol Policy) Owner(storeID uuid.UUID, p *model.CatalogProduct, o *model.StoreProductOverride) (owner model.StockOwner, ok bool) {
	if o != nil && o.Stock != nil {
		return model.StockOwner{Scope: model.StockScopeStore, StoreID: storeID, ProductID: p.ID}, true
	}
	if !pol.SharedFallback {
		return model.StockOwner{Scope: model.StockScopeStore, StoreID: storeID, ProductID: p.ID}, false
	}
	return model.StockOwner{Scope: model.StockScopeShared, ProductID: p.ID}, true
}

// Effective is the stock available to sell for (store, product).
func (pol Policy) Effective(p *model.CatalogProduct, o *model.StoreProductOverride) (int, model.StockScope) {
	if o != nil && o.Stock != nil {
		return *o.Stock, model.StockScopeStore
	}
	if !pol.SharedFallback {
		return 0, model.StockScopeStore
	}
	return p.Stock, model.StockScopeShared
}

// Active reports whether the store sells the product at all. A catalog-level
// deactivation cannot be re-enabled per store.
func Active(p *model.CatalogProduct, o *model.StoreProductOverride) bool {
	if !p.IsActive {
		return false
	}
	if o != nil && o.IsActiveOverride != nil {
		return *o.IsActiveOverride
	}
	return true
}
