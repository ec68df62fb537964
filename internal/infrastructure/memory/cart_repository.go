package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/shopflow-io/shopflow/internal/domain/cart"
)

// CartRepository is the fallback cart store used when no Redis address is
// configured. Carts survive only as long as the process.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	_ = ctx
	if cart == nil || cart.SessionID == "" {
		return fmt.Errorf("cart repository: session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.SessionID] = cart.Clone()
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}
