package payment

import "context"

type Repository interface {
	Insert(ctx context.Context, record *Record) error
	GetByOrderID(ctx context.Context, orderID string) (*Record, error)
	// UpdateStatusByOrderID applies a webhook outcome to the record keyed by
	// order id. Applying the same status twice is a no-op.
	UpdateStatusByOrderID(ctx context.Context, orderID string, status Status, gatewayRef string) error
}
