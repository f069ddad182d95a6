package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grocery-storefront/internal/inventory"
	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"
	"grocery-storefront/internal/ws"
	"grocery-storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type CreateOrderRequest struct {
	Intent        string             `json:"intent"`
	CustomerName  string             `json:"customer_name" validate:"required,max=255"`
	CustomerPhone string             `json:"customer_phone" validate:"omitempty,max=30"`
	CustomerEmail string             `json:"customer_email" validate:"omitempty,email,max=255"`
	AddressLine1  string             `json:"address_line1" validate:"max=255"`
	AddressLine2  string             `json:"address_line2" validate:"max=255"`
	City          string             `json:"city" validate:"max=100"`
	State         string             `json:"state" validate:"max=100"`
	PostalCode    string             `json:"postal_code" validate:"max=20"`
	Country       string             `json:"country" validate:"max=100"`
	DeliverySlot  string             `json:"delivery_slot" validate:"max=100"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type FulfillmentRequest struct {
	Status string `json:"status" validate:"required,oneof=PACKED OUT_FOR_DELIVERY DELIVERED"`
}

// CancelResult is the cancelled order plus the number of units returned to stock.
type CancelResult struct {
	model.OrderView
	Restored int `json:"restored"`
}

type OrderService interface {
	Create(ctx context.Context, store *model.Store, req *CreateOrderRequest, actor string) (*model.OrderView, error)
	Get(ctx context.Context, store *model.Store, id uuid.UUID) (*model.OrderView, error)
	List(ctx context.Context, store *model.Store, status string, limit int) ([]model.OrderView, error)
	ListMine(ctx context.Context, store *model.Store, email string) ([]model.OrderView, error)
	Confirm(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*model.OrderView, error)
	Cancel(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*CancelResult, error)
	SetFulfillment(ctx context.Context, store *model.Store, id uuid.UUID, req *FulfillmentRequest, actor string) (*model.OrderView, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	customerRepo repository.CustomerRepository
	policy       inventory.Policy
	recorder     Recorder
	eta          time.Duration
	now          func() time.Time
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewOrderService(
	oRepo repository.OrderRepository,
	pRepo repository.ProductRepository,
	stRepo repository.StockRepository,
	cRepo repository.CustomerRepository,
	policy inventory.Policy,
	recorder Recorder,
	eta time.Duration,
	db *gorm.DB,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    oRepo,
		productRepo:  pRepo,
		stockRepo:    stRepo,
		customerRepo: cRepo,
		policy:       policy,
		recorder:     recorderOrNoop(recorder),
		eta:          eta,
		now:          time.Now,
		db:           db,
		wsHub:        hub,
	}
}

func parseIntent(raw string) (model.OrderIntent, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(model.IntentReserve):
		return model.IntentReserve, nil
	case string(model.IntentConfirm), "commit":
		return model.IntentConfirm, nil
	}
	return "", invalid("intent", "must be one of: reserve confirm")
}

func (s *orderService) view(o *model.Order) model.OrderView {
	return model.NewOrderView(*o, s.now(), s.eta)
}

func (s *orderService) publish(store *model.Store, action string, o *model.Order, actor string) {
	s.wsHub.Publish(store.Slug, map[string]interface{}{
		"type":     "order_update",
		"action":   action,
		"order_id": o.ID,
		"status":   o.Status,
		"total":    o.Total,
		"user":     actor,
	})
}

// Create validates the items, reserves stock for every line with a conditional
// decrement, freezes unit prices and writes the order. Any failing line aborts the
// whole transaction, so no partial reservation survives. With the confirm intent the
// order is confirmed inside the same transaction.
func (s *orderService) Create(ctx context.Context, store *model.Store, req *CreateOrderRequest, actor string) (*model.OrderView, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))

	// 1. Validate request
	intent, err := parseIntent(req.Intent)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	actor = actorOr(actor)
	ids := lo.Uniq(lo.Map(req.Items, func(it OrderItemRequest, _ int) uuid.UUID { return it.ProductID }))
	order := &model.Order{
		StoreID:       store.ID,
		Status:        model.OrderPendingPayment,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		AddressLine1:  strings.TrimSpace(req.AddressLine1),
		AddressLine2:  strings.TrimSpace(req.AddressLine2),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Country:       strings.TrimSpace(req.Country),
		DeliverySlot:  strings.TrimSpace(req.DeliverySlot),
	}
	order.CreatedBy = actor
	order.UpdatedBy = actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)

		// 2. Resolve products and overrides in tenant scope
		found, err := products.FindVisibleByIDs(ctx, store.ID, ids)
		if err != nil {
			return err
		}
		overrides, err := products.ListOverrides(ctx, store.ID, ids...)
		if err != nil {
			return err
		}
		productByID := lo.KeyBy(found, func(p model.CatalogProduct) uuid.UUID { return p.ID })
		overrideByID := lo.KeyBy(overrides, func(o model.StoreProductOverride) uuid.UUID { return o.ProductID })

		// 3. Reserve each line and freeze its price
		for i, item := range req.Items {
			p, ok := productByID[item.ProductID]
			var o *model.StoreProductOverride
			if ov, has := overrideByID[item.ProductID]; has {
				o = &ov
			}
			if !ok || !inventory.Active(&p, o) {
				return fmt.Errorf("%w: items[%d]: product %s is not available in this store", ErrNotFound, i, item.ProductID)
			}

			owner, hasPool := s.policy.Owner(store.ID, &p, o)
			reserved := false
			if hasPool {
				if reserved, err = s.stockRepo.Reserve(tx, owner, item.Quantity); err != nil {
					return err
				}
			}
			if !reserved {
				available := 0
				if hasPool {
					if available, err = s.stockRepo.Available(tx, owner); err != nil {
						return err
					}
				}
				s.recorder.StockConflict(store.Slug, string(owner.Scope))
				return &InsufficientStockError{
					Index:     i,
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: available,
				}
			}

			view := BuildProductView(&p, o, s.policy)
			line := model.OrderItem{
				ProductID:   p.ID,
				ProductName: view.Name,
				Quantity:    item.Quantity,
				UnitPrice:   view.Price,
				StockScope:  owner.Scope,
			}
			line.CreatedBy = actor
			line.UpdatedBy = actor
			order.Items = append(order.Items, line)
		}
		order.Total = order.ComputeTotal()

		// 4. Link customer
		customer, err := findOrCreateCustomer(ctx, tx, s.customerRepo, store, req.CustomerName, req.CustomerPhone, req.CustomerEmail, actor)
		if err != nil {
			return err
		}
		if customer != nil {
			order.CustomerID = lo.ToPtr(customer.ID)
		}

		// 5. Write order and items
		orders := s.orderRepo.WithTx(tx)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		// 6. Confirm intent
		if intent == model.IntentConfirm {
			ok, err := orders.TransitionStatus(ctx, store.ID, order.ID, model.OrderPendingPayment, model.OrderConfirmed, actor)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order %s changed before it could be confirmed", ErrConflict, order.ID)
			}
			order.Status = model.OrderConfirmed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("order created",
		zap.String("store", store.Slug),
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)
	s.recorder.OrderTransition(store.Slug, string(model.OrderPendingPayment))
	if order.Status == model.OrderConfirmed {
		s.recorder.OrderTransition(store.Slug, string(model.OrderConfirmed))
	}
	s.publish(store, "created", order, actor)

	v := s.view(order)
	return &v, nil
}

func (s *orderService) Get(ctx context.Context, store *model.Store, id uuid.UUID) (*model.OrderView, error) {
	order, err := s.orderRepo.FindByID(ctx, store.ID, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order %s", id))
	}
	v := s.view(order)
	return &v, nil
}

func (s *orderService) views(orders []model.Order) []model.OrderView {
	return lo.Map(orders, func(o model.Order, _ int) model.OrderView { return s.view(&o) })
}

func (s *orderService) List(ctx context.Context, store *model.Store, status string, limit int) ([]model.OrderView, error) {
	filter := repository.OrderFilter{Status: model.OrderStatus(strings.ToUpper(status)), Limit: limit}
	switch filter.Status {
	case "", model.OrderPendingPayment, model.OrderConfirmed, model.OrderCancelled:
	default:
		return nil, invalid("status", "must be one of: PENDING_PAYMENT CONFIRMED CANCELLED")
	}
	orders, err := s.orderRepo.List(ctx, store.ID, filter)
	if err != nil {
		return nil, err
	}
	return s.views(orders), nil
}

// ListMine returns the orders placed with the caller's email or linked to a customer carrying it.
func (s *orderService) ListMine(ctx context.Context, store *model.Store, email string) ([]model.OrderView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "the token carries no email")
	}
	customers, err := s.customerRepo.FindByEmail(ctx, store.ID, email)
	if err != nil {
		return nil, err
	}
	ids := lo.Map(customers, func(c model.Customer, _ int) uuid.UUID { return c.ID })
	orders, err := s.orderRepo.ListForCustomer(ctx, store.ID, ids, email)
	if err != nil {
		return nil, err
	}
	return s.views(orders), nil
}

// Confirm flips PENDING_PAYMENT to CONFIRMED without touching stock. Confirming an
// already confirmed order succeeds without effect; a cancelled order is a Conflict.
func (s *orderService) Confirm(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*model.OrderView, error) {
	actor = actorOr(actor)
	var order *model.Order
	transitioned := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		ok, err := orders.TransitionStatus(ctx, store.ID, id, model.OrderPendingPayment, model.OrderConfirmed, actor)
		if err != nil {
			return err
		}
		transitioned = ok

		order, err = orders.FindByID(ctx, store.ID, id)
		if err != nil {
			return notFound(err, fmt.Sprintf("order %s", id))
		}
		if !ok && order.Status != model.OrderConfirmed {
			return fmt.Errorf("%w: order %s is %s and cannot be confirmed", ErrConflict, id, order.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		logger.FromContext(ctx).Info("order confirmed", zap.String("store", store.Slug), zap.String("order_id", id.String()))
		s.recorder.OrderTransition(store.Slug, string(model.OrderConfirmed))
		s.publish(store, "confirmed", order, actor)
	}
	v := s.view(order)
	return &v, nil
}

// Cancel flips PENDING_PAYMENT to CANCELLED and returns every line's quantity to the
// pool it was reserved from, in one transaction. Any other status is a Conflict.
func (s *orderService) Cancel(ctx context.Context, store *model.Store, id uuid.UUID, actor string) (*CancelResult, error) {
	actor = actorOr(actor)
	var order *model.Order
	restored := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		ok, err := orders.TransitionStatus(ctx, store.ID, id, model.OrderPendingPayment, model.OrderCancelled, actor)
		if err != nil {
			return err
		}
		order, err = orders.FindByID(ctx, store.ID, id)
		if err != nil {
			return notFound(err, fmt.Sprintf("order %s", id))
		}
		if !ok {
			return fmt.Errorf("%w: order %s is %s and cannot be cancelled", ErrConflict, id, order.Status)
		}

		for _, item := range order.Items {
			owner := model.StockOwner{Scope: item.StockScope, StoreID: store.ID, ProductID: item.ProductID}
			released, err := s.stockRepo.Release(tx, owner, item.Quantity)
			if err != nil {
				return err
			}
			if !released {
				logger.FromContext(ctx).Warn("stock pool gone, release skipped",
					zap.String("store", store.Slug),
					zap.String("product_id", item.ProductID.String()),
					zap.String("scope", string(item.StockScope)),
					zap.Int("quantity", item.Quantity),
				)
				continue
			}
			restored += item.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("order cancelled",
		zap.String("store", store.Slug),
		zap.String("order_id", id.String()),
		zap.Int("restored", restored),
	)
	s.recorder.OrderTransition(store.Slug, string(model.OrderCancelled))
	s.publish(store, "cancelled", order, actor)

	return &CancelResult{OrderView: s.view(order), Restored: restored}, nil
}

// SetFulfillment annotates a confirmed order. It never moves stock.
func (s *orderService) SetFulfillment(ctx context.Context, store *model.Store, id uuid.UUID, req *FulfillmentRequest, actor string) (*model.OrderView, error) {
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if err := validate(req); err != nil {
		return nil, err
	}
	actor = actorOr(actor)

	ok, err := s.orderRepo.SetFulfillment(ctx, store.ID, id, model.FulfillmentStatus(req.Status), actor)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, store.ID, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order %s", id))
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s is %s; only confirmed orders can be fulfilled", ErrConflict, id, order.Status)
	}

	s.publish(store, "fulfillment", order, actor)
	v := s.view(order)
	return &v, nil
}
