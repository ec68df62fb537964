package cart

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/shopflow-io/shopflow/internal/domain/cart"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"
)

const componentCart = "cart_service"

// Service mutates session carts and writes the full item list back to the
// repository after every mutation, so a reload restores cart state.
type Service struct {
	repo domain.Repository
	log  observability.Logger
}

func NewService(repo domain.Repository, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo: repo,
		log:  logger.With(observability.F("component", componentCart)),
	}
}

// Get returns the session's cart, or an empty one if nothing is stored yet.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, errors.New("cart: session id is required")
	}
	c, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, sessionID string, item domain.Item) (*domain.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(item); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}

	logctx.FromOr(ctx, s.log).Info("cart_item_added",
		observability.F("session_id", sessionID),
		observability.F("product_id", item.ProductID),
		observability.F("quantity", item.Quantity),
	)
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.SetQuantity(productID, quantity)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties and persists the cart. The checkout flow calls this once,
// immediately after a successful order submission.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	c.Clear()
	return s.persist(ctx, c)
}

func (s *Service) persist(ctx context.Context, c *domain.Cart) error {
	if err := s.repo.Save(ctx, c); err != nil {
		logctx.FromOr(ctx, s.log).Error("cart_save_failed",
			observability.F("session_id", c.SessionID),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}
