package service

import (
	"context"
	"strings"

	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"

	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

type CustomerService interface {
	List(ctx context.Context, store *model.Store) ([]model.Customer, error)
	Create(ctx context.Context, store *model.Store, req *CreateCustomerRequest, actor string) (*model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(cRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: cRepo}
}

func (s *customerService) List(ctx context.Context, store *model.Store) ([]model.Customer, error) {
	return s.customerRepo.List(ctx, store.ID)
}

func (s *customerService) Create(ctx context.Context, store *model.Store, req *CreateCustomerRequest, actor string) (*model.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Phone == "" && req.Email == "" {
		return nil, invalid("phone", "phone or email is required")
	}

	customer := &model.Customer{
		StoreID: store.ID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	customer.CreatedBy = actorOr(actor)
	customer.UpdatedBy = actorOr(actor)
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// findOrCreateCustomer links an order to a customer matched by phone, then email.
// Orders without any contact detail are not linked.
func findOrCreateCustomer(ctx context.Context, tx *gorm.DB, repo repository.CustomerRepository, store *model.Store, name, phone, email, actor string) (*model.Customer, error) {
	if phone == "" && email == "" {
		return nil, nil
	}
	customers := repo.WithTx(tx)
	existing, err := customers.FindByContact(ctx, store.ID, phone, email)
	if err != nil || existing != nil {
		return existing, err
	}
	customer := &model.Customer{StoreID: store.ID, Name: name, Phone: phone, Email: email}
	customer.CreatedBy = actorOr(actor)
	customer.UpdatedBy = actorOr(actor)
	if err := customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
