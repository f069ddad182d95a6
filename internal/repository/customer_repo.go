package repository

import (
	"context"
	"errors"
	"strings"

	"grocery-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	Create(ctx context.Context, customer *model.Customer) error
	List(ctx context.Context, storeID uuid.UUID) ([]model.Customer, error)
	FindByContact(ctx context.Context, storeID uuid.UUID, phone, email string) (*model.Customer, error)
	FindByEmail(ctx context.Context, storeID uuid.UUID, email string) ([]model.Customer, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepo{tx}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepo) List(ctx context.Context, storeID uuid.UUID) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Find(&customers).Error
	return customers, err
}

// FindByContact matches on phone first, then on email (case-insensitive).
// Returns nil, nil when neither matches.
func (r *customerRepo) FindByContact(ctx context.Context, storeID uuid.UUID, phone, email string) (*model.Customer, error) {
	var customer model.Customer
	if phone != "" {
		err := r.db.WithContext(ctx).Where("store_id = ? AND phone = ?", storeID, phone).
			Order("created_at ASC").First(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email != "" {
		err := r.db.WithContext(ctx).Where("store_id = ? AND LOWER(email) = ?", storeID, strings.ToLower(email)).
			Order("created_at ASC").First(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (r *customerRepo) FindByEmail(ctx context.Context, storeID uuid.UUID, email string) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND LOWER(email) = ?", storeID, strings.ToLower(email)).
		Find(&customers).Error
	return customers, err
}
