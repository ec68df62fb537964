package checkout

import (
	"time"

	"github.com/shopflow-io/shopflow/internal/domain/order"
)

// Snapshot is what the confirmation view renders after a successful
// submission. The view must tolerate the order still being pending: the
// payment webhook may land before or after the customer sees this.
type Snapshot struct {
	OrderID  string                `json:"order_id"`
	Items    []order.Item          `json:"items"`
	Shipping order.ShippingAddress `json:"shipping_address"`
	Method   order.PaymentMethod   `json:"payment_method"`
	Totals   order.Totals          `json:"totals"`
	PlacedAt time.Time             `json:"placed_at"`
}

func NewSnapshot(o *order.Order) *Snapshot {
	return &Snapshot{
		OrderID:  o.ID,
		Items:    append([]order.Item(nil), o.Items...),
		Shipping: o.Shipping,
		Method:   o.Method,
		Totals:   o.Totals,
		PlacedAt: o.CreatedAt,
	}
}
