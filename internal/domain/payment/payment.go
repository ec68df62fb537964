package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopflow-io/shopflow/internal/domain/order"
)

var (
	ErrNotFound       = errors.New("payment: not found")
	ErrInvalidAmount  = errors.New("payment: amount must be greater than zero")
	ErrAmountMismatch = errors.New("payment: amount does not match order total")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Gateway states reported by the payment provider's webhook.
const (
	GatewayStatePaid      = "PAID"
	GatewayStateCancelled = "CANCELLED"
	GatewayStateFailed    = "FAILED"
)

// Record tracks one payment attempt against an order. Amounts are minor
// currency units. Status only ever changes through the webhook receiver.
type Record struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     Status    `json:"status"`
	Method     string    `json:"payment_method"`
	GatewayRef string    `json:"gateway_ref"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewRecord(id, orderID, userID string, amount int64, currency, gatewayRef string) (*Record, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Record{
		ID:         id,
		OrderID:    orderID,
		UserID:     userID,
		Amount:     amount,
		Currency:   currency,
		Status:     StatusPending,
		Method:     "safepay",
		GatewayRef: gatewayRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// MapGatewayState translates a gateway webhook state into the payment and
// order statuses it implies. Unknown states leave both pending.
func MapGatewayState(state string) (Status, order.Status) {
	switch state {
	case GatewayStatePaid:
		return StatusCompleted, order.StatusConfirmed
	case GatewayStateCancelled, GatewayStateFailed:
		return StatusFailed, order.StatusCancelled
	default:
		return StatusPending, order.StatusPending
	}
}

// GatewayError carries the gateway's own failure message back to the
// caller. No payment record exists when this is returned.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error (status %d): %s", e.StatusCode, e.Message)
}

// RateLimitedError reports that the caller exceeded the payment-initiation
// attempt ceiling and must wait until BlockedUntil.
type RateLimitedError struct {
	BlockedUntil time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("payment: too many attempts, blocked until %s", e.BlockedUntil.Format(time.RFC3339))
}

// SettledEvent is emitted when a webhook moves a payment out of pending.
type SettledEvent struct {
	OrderID    string
	Status     Status
	GatewayRef string
	OccurredAt time.Time
}

func (SettledEvent) EventName() string { return "payment.settled" }
