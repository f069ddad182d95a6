package repository

import (
	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository applies stock mutations as single conditional UPDATE statements,
// so concurrent reservations cannot oversell. All methods take the transaction to run in.
type StockRepository interface {
	Reserve(tx *gorm.DB, owner model.StockOwner, qty int) (bool, error)
	Release(tx *gorm.DB, owner model.StockOwner, qty int) (bool, error)
	Available(tx *gorm.DB, owner model.StockOwner) (int, error)
	SetShared(tx *gorm.DB, productID uuid.UUID, stock int, updatedBy string) error
	SetStore(tx *gorm.DB, storeID, productID uuid.UUID, stock *int, updatedBy string) error
}

type stockRepo struct{}

func NewStockRepo() StockRepository {
	return &stockRepo{}
}

func (r *stockRepo) scoped(tx *gorm.DB, owner model.StockOwner) *gorm.DB {
	if owner.Scope == model.StockScopeStore {
		return tx.Model(&model.StoreProductOverride{}).
			Where("store_id = ? AND product_id = ? AND stock IS NOT NULL", owner.StoreID, owner.ProductID)
	}
	return tx.Model(&model.CatalogProduct{}).Where("id = ?", owner.ProductID)
}

// Reserve decrements the owner's counter by qty only if at least qty units remain.
// It reports false, without error, when the stock is insufficient.
func (r *stockRepo) Reserve(tx *gorm.DB, owner model.StockOwner, qty int) (bool, error) {
	result := r.scoped(tx, owner).
		Where("stock >= ?", qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release increments the owner's counter by qty. It reports false when the counter
// no longer exists (a store pool that has been cleared back to null).
func (r *stockRepo) Release(tx *gorm.DB, owner model.StockOwner, qty int) (bool, error) {
	result := r.scoped(tx, owner).UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *stockRepo) Available(tx *gorm.DB, owner model.StockOwner) (int, error) {
	var row struct{ Stock *int }
	err := r.scoped(tx, owner).Select("stock").Limit(1).Scan(&row).Error
	if err != nil || row.Stock == nil {
		return 0, err
	}
	return *row.Stock, nil
}

func (r *stockRepo) SetShared(tx *gorm.DB, productID uuid.UUID, stock int, updatedBy string) error {
	return tx.Model(&model.CatalogProduct{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_by": updatedBy,
		}).Error
}

// SetStore upserts the store's override stock. nil clears the store pool so the
// store falls back to the shared figure.
func (r *stockRepo) SetStore(tx *gorm.DB, storeID, productID uuid.UUID, stock *int, updatedBy string) error {
	override := model.StoreProductOverride{
		StoreID:   storeID,
		ProductID: productID,
		Stock:     stock,
	}
	override.CreatedBy = updatedBy
	override.UpdatedBy = updatedBy
	return tx.Omit("Category").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stock", "updated_by", "updated_at"}),
	}).Create(&override).Error
}
