package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("order: not found")
	ErrConflict             = errors.New("order: already exists")
	ErrNoItems              = errors.New("order: at least one item is required")
	ErrInvalidTotal         = errors.New("order: total must be zero or greater")
	ErrInvalidStatus        = errors.New("order: unknown status")
	ErrInvalidPaymentMethod = errors.New("order: unknown payment method")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusConfirmed  Status = "confirmed"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCard           PaymentMethod = "card"
	MethodPaypal         PaymentMethod = "paypal"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	MethodGateway        PaymentMethod = "gateway"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodPaypal, MethodCashOnDelivery, MethodGateway:
		return true
	}
	return false
}

// Item is an immutable snapshot of a cart line taken at checkout
// confirmation. Prices are minor currency units (cents).
type Item struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref"`
}

// Totals is the price breakdown computed once at checkout review. It is
// never recomputed after the order is persisted.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []Item          `json:"items"`
	Shipping  ShippingAddress `json:"shipping_address"`
	Method    PaymentMethod   `json:"payment_method"`
	Totals    Totals          `json:"totals"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func New(id, userID string, items []Item, shipping ShippingAddress, method PaymentMethod, totals Totals) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if totals.Total < 0 {
		return nil, ErrInvalidTotal
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if errs := shipping.Validate(); len(errs) > 0 {
		return nil, errs
	}

	now := time.Now().UTC()
	return &Order{
		ID:        id,
		UserID:    userID,
		Items:     append([]Item(nil), items...),
		Shipping:  shipping,
		Method:    method,
		Totals:    totals,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetStatus moves the order to the given status. Status is the only field
// mutated after creation. Setting the current status again is a no-op so
// repeated webhook deliveries stay idempotent.
func (o *Order) SetStatus(next Status) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if o.Status == next {
		return nil
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}
