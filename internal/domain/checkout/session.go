package checkout

import (
	"errors"
	"time"

	"github.com/shopflow-io/shopflow/internal/domain/cart"
	"github.com/shopflow-io/shopflow/internal/domain/order"
)

var (
	ErrNotFound               = errors.New("checkout: session not found")
	ErrShippingRequired       = errors.New("checkout: shipping information is required")
	ErrPaymentMethodRequired  = errors.New("checkout: payment method is required")
	ErrInvalidStateTransition = errors.New("checkout: invalid state transition")
)

// Session is the staged state of one checkout flow: shipping data, payment
// selection and the submission outcome. It lives only until the order is
// placed or the customer abandons the flow.
type Session struct {
	ID            string
	Stage         Stage
	Shipping      *order.ShippingAddress
	Method        order.PaymentMethod
	OrderID       string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Stage:     StageShipping,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SubmitShipping validates and stages the shipping address. Invalid input
// keeps the current stage and returns the per-field errors.
func (s *Session) SubmitShipping(addr order.ShippingAddress) error {
	if errs := addr.Validate(); len(errs) > 0 {
		return errs
	}
	next, err := s.current().SubmitShipping(s, addr)
	if err != nil {
		return err
	}
	s.advance(next)
	return nil
}

// SelectPayment stages exactly one payment method from the enumerated set.
func (s *Session) SelectPayment(method order.PaymentMethod) error {
	if !method.Valid() {
		return order.ErrInvalidPaymentMethod
	}
	next, err := s.current().SelectPayment(s, method)
	if err != nil {
		return err
	}
	s.advance(next)
	return nil
}

// BeginSubmit guards the place-order action. Missing shipping data drops
// the flow back to the shipping stage.
func (s *Session) BeginSubmit() error {
	next, err := s.current().BeginSubmit(s)
	if next != nil {
		s.advance(next)
	}
	return err
}

// Complete records the created order and finishes the flow.
func (s *Session) Complete(orderID string) error {
	next, err := s.current().Complete(s, orderID)
	if err != nil {
		return err
	}
	s.OrderID = orderID
	s.FailureReason = ""
	s.advance(next)
	return nil
}

// Fail records the submission error. The staged shipping and payment data
// survive so the customer can retry without re-entering anything.
func (s *Session) Fail(reason string) error {
	next, err := s.current().Fail(s, reason)
	if err != nil {
		return err
	}
	s.FailureReason = reason
	s.advance(next)
	return nil
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Shipping != nil {
		addr := *s.Shipping
		clone.Shipping = &addr
	}
	return &clone
}

func (s *Session) current() sessionState {
	return stateFor(s.Stage)
}

func (s *Session) advance(next sessionState) {
	s.Stage = next.Stage()
	s.UpdatedAt = time.Now().UTC()
}

// Totals are derived fresh at review time. Deriving them again at
// submission yields the identical value, which is what gets persisted to
// the order.
const (
	// FreeShippingThreshold is the subtotal above which shipping is free, in cents.
	FreeShippingThreshold int64 = 5000
	// FlatShippingFee applies under the threshold, in cents.
	FlatShippingFee int64 = 1000
	// TaxRatePercent is the fixed tax rate applied to the subtotal.
	TaxRatePercent int64 = 10
)

func QuoteFor(c *cart.Cart) order.Totals {
	subtotal := c.Total()
	var shipping int64
	if subtotal <= FreeShippingThreshold {
		shipping = FlatShippingFee
	}
	tax := subtotal * TaxRatePercent / 100
	return order.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}

// SnapshotItems converts cart lines into immutable order item snapshots.
func SnapshotItems(c *cart.Cart) []order.Item {
	items := make([]order.Item, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageRef:  it.ImageRef,
		})
	}
	return items
}
