package order

import "time"

// OrderPlacedEvent is emitted when checkout submission commits a new order.
type OrderPlacedEvent struct {
	OrderID    string
	UserID     string
	Method     PaymentMethod
	Total      int64
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Method:     o.Method,
		Total:      o.Totals.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted when the order status is mutated after
// creation, by the webhook receiver or by an admin action.
type OrderStatusChangedEvent struct {
	OrderID    string
	From       Status
	To         Status
	Actor      string
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(orderID string, from, to Status, actor string) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    orderID,
		From:       from,
		To:         to,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}
