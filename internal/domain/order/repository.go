package order

import "context"

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	UserID string
	Status Status
}

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}
