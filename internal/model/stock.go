package model

import "github.com/google/uuid"

// StockScope names the pool a unit of stock is counted in.
type StockScope string

const (
	// StockScopeShared is CatalogProduct.Stock, shared by every store without a stock override.
	StockScopeShared StockScope = "SHARED_POOL"
	// StockScopeStore is StoreProductOverride.Stock, owned by a single store.
	StockScopeStore StockScope = "STORE"
)

// StockOwner identifies the exact counter that reservations for a (store, product) touch.
type StockOwner struct {
	Scope     StockScope
	StoreID   uuid.UUID
	ProductID uuid.UUID
}
