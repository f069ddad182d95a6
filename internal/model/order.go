package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderCancelled      OrderStatus = "CANCELLED"
)

// FulfillmentStatus is an administrative annotation on confirmed orders. It never moves stock.
type FulfillmentStatus string

const (
	FulfillmentPacked         FulfillmentStatus = "PACKED"
	FulfillmentOutForDelivery FulfillmentStatus = "OUT_FOR_DELIVERY"
	FulfillmentDelivered      FulfillmentStatus = "DELIVERED"
)

func (f FulfillmentStatus) Valid() bool {
	switch f {
	case FulfillmentPacked, FulfillmentOutForDelivery, FulfillmentDelivered:
		return true
	}
	return false
}

// OrderIntent selects what happens right after an order is created.
type OrderIntent string

const (
	IntentReserve OrderIntent = "reserve"
	IntentConfirm OrderIntent = "confirm"
)

type Order struct {
	BaseModel
	StoreID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"store_id"`
	Status            OrderStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	FulfillmentStatus *FulfillmentStatus `gorm:"type:varchar(20)" json:"fulfillment_status"`
	Total             decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"total"`

	// Customer snapshot, kept even if the Customer row changes later
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	CustomerName  string     `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone string     `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail string     `gorm:"type:varchar(255)" json:"customer_email"`

	AddressLine1 string `gorm:"type:varchar(255)" json:"address_line1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"address_line2"`
	City         string `gorm:"type:varchar(100)" json:"city"`
	State        string `gorm:"type:varchar(100)" json:"state"`
	PostalCode   string `gorm:"type:varchar(20)" json:"postal_code"`
	Country      string `gorm:"type:varchar(100)" json:"country"`
	DeliverySlot string `gorm:"type:varchar(100)" json:"delivery_slot"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem freezes the unit price at creation and records which stock pool it drew from.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	StockScope  StockScope      `gorm:"type:varchar(20);not null" json:"stock_scope"`
}

// LineTotal is UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the line totals of the order's items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// PaymentInfo describes whether the storefront still expects a payment.
type PaymentInfo struct {
	Required bool   `json:"required"`
	Status   string `json:"status"`
}

// OrderView is the order as returned to storefront and admin clients.
type OrderView struct {
	Order
	EstimatedDelivery string      `json:"estimated_delivery"`
	Payment           PaymentInfo `json:"payment"`
}

// NewOrderView decorates an order with delivery estimate and payment state.
// eta is used when the order carries no delivery slot.
func NewOrderView(o Order, now time.Time, eta time.Duration) OrderView {
	estimate := o.DeliverySlot
	if estimate == "" {
		estimate = o.CreatedAt.Add(eta).Format(time.RFC3339)
		if o.CreatedAt.IsZero() {
			estimate = now.Add(eta).Format(time.RFC3339)
		}
	}
	payment := PaymentInfo{Required: o.Status == OrderPendingPayment}
	switch o.Status {
	case OrderPendingPayment:
		payment.Status = "PENDING"
	case OrderConfirmed:
		payment.Status = "NOT_REQUIRED"
	default:
		payment.Status = "VOID"
	}
	return OrderView{Order: o, EstimatedDelivery: estimate, Payment: payment}
}
