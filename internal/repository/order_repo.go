package repository

import (
	"context"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
}

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, storeID uuid.UUID, filter OrderFilter) ([]model.Order, error)
	ListForCustomer(ctx context.Context, storeID uuid.UUID, customerIDs []uuid.UUID, email string) ([]model.Order, error)
	TransitionStatus(ctx context.Context, storeID, id uuid.UUID, from, to model.OrderStatus, updatedBy string) (bool, error)
	SetFulfillment(ctx context.Context, storeID, id uuid.UUID, status model.FulfillmentStatus, updatedBy string) (bool, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepo{tx}
}

// Create inserts the order together with its items.
func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindByID(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, "id = ? AND store_id = ?", id, storeID).Error
	return &order, err
}

func (r *orderRepo) List(ctx context.Context, storeID uuid.UUID, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).Preload("Items").Where("store_id = ?", storeID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// ListForCustomer returns orders linked to any of the customer ids or placed with the email.
func (r *orderRepo) ListForCustomer(ctx context.Context, storeID uuid.UUID, customerIDs []uuid.UUID, email string) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).Preload("Items").Where("store_id = ?", storeID)
	if len(customerIDs) > 0 {
		q = q.Where("(customer_id IN ? OR LOWER(customer_email) = ?)", customerIDs, email)
	} else {
		q = q.Where("LOWER(customer_email) = ?", email)
	}
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// TransitionStatus flips the status only if it currently equals from (check-and-set).
// It reports whether the row changed.
func (r *orderRepo) TransitionStatus(ctx context.Context, storeID, id uuid.UUID, from, to model.OrderStatus, updatedBy string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND store_id = ? AND status = ?", id, storeID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_by": updatedBy,
		})
	return result.RowsAffected == 1, result.Error
}

// SetFulfillment annotates a CONFIRMED order. It reports false if the order is not confirmed.
func (r *orderRepo) SetFulfillment(ctx context.Context, storeID, id uuid.UUID, status model.FulfillmentStatus, updatedBy string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND store_id = ? AND status = ?", id, storeID, model.OrderConfirmed).
		Updates(map[string]interface{}{
			"fulfillment_status": status,
			"updated_by":         updatedBy,
		})
	return result.RowsAffected == 1, result.Error
}
