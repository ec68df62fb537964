package order

import (
	"context"
	"errors"

	"github.com/shopflow-io/shopflow/internal/domain/identity"
	domain "github.com/shopflow-io/shopflow/internal/domain/order"
)

// Service is the customer-facing order history: a thin read surface over
// the order store, scoped to the caller's identity.
type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) History(ctx context.Context, user *identity.User) ([]*domain.Order, error) {
	if user == nil {
		return nil, errors.New("order: user is required")
	}
	return s.repo.List(ctx, domain.ListFilter{UserID: user.ID})
}

// Get returns one order, hiding other customers' orders behind not-found.
func (s *Service) Get(ctx context.Context, user *identity.User, id string) (*domain.Order, error) {
	if user == nil {
		return nil, errors.New("order: user is required")
	}
	ord, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord.UserID != user.ID && !user.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return ord, nil
}
