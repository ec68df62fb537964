package cart

import "context"

// Repository persists carts keyed by session id so a reload restores state.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}
