package checkout

import (
	"context"
	"errors"
	"fmt"

	appcart "github.com/shopflow-io/shopflow/internal/application/cart"
	domain "github.com/shopflow-io/shopflow/internal/domain/checkout"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"
)

const componentCheckout = "checkout_service"

// Service drives the pre-submission checkout steps: staging shipping data,
// selecting a payment method and assembling the review view. Submission
// itself goes through PlaceOrderUseCase.
type Service struct {
	sessions  domain.Repository
	snapshots domain.SnapshotStore
	carts     *appcart.Service
	log       observability.Logger
}

func NewService(sessions domain.Repository, snapshots domain.SnapshotStore, carts *appcart.Service, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		sessions:  sessions,
		snapshots: snapshots,
		carts:     carts,
		log:       logger.With(observability.F("component", componentCheckout)),
	}
}

// session loads the in-flight checkout, starting a fresh one at the
// shipping stage when none exists.
func (s *Service) session(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, errors.New("checkout: session id is required")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewSession(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: load session: %w", err)
	}
	return sess, nil
}

// SubmitShipping stages the shipping address. Validation failures keep the
// session at its current stage and surface per-field errors.
func (s *Service) SubmitShipping(ctx context.Context, sessionID string, addr order.ShippingAddress) (*domain.Session, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.SubmitShipping(addr); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: save session: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("checkout_shipping_staged",
		observability.F("session_id", sessionID),
		observability.F("stage", string(sess.Stage)),
	)
	return sess, nil
}

// SelectPayment stages exactly one payment method.
func (s *Service) SelectPayment(ctx context.Context, sessionID string, method order.PaymentMethod) (*domain.Session, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectPayment(method); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: save session: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("checkout_payment_selected",
		observability.F("session_id", sessionID),
		observability.F("method", string(method)),
	)
	return sess, nil
}

// ReviewView is what the review step renders: the staged data plus totals
// derived fresh from the current cart.
type ReviewView struct {
	Stage    domain.Stage           `json:"stage"`
	Items    []order.Item           `json:"items"`
	Shipping *order.ShippingAddress `json:"shipping_address,omitempty"`
	Method   order.PaymentMethod    `json:"payment_method,omitempty"`
	Totals   order.Totals           `json:"totals"`
	Failure  string                 `json:"failure_reason,omitempty"`
}

func (s *Service) Review(ctx context.Context, sessionID string) (*ReviewView, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &ReviewView{
		Stage:    sess.Stage,
		Items:    domain.SnapshotItems(c),
		Shipping: sess.Shipping,
		Method:   sess.Method,
		Totals:   domain.QuoteFor(c),
		Failure:  sess.FailureReason,
	}, nil
}

// Abandon drops the in-flight checkout. Legal at any stage before
// submission commits; nothing persisted survives it.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// LastOrder returns the confirmation snapshot persisted by the last
// successful submission for this session.
func (s *Service) LastOrder(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return s.snapshots.Get(ctx, sessionID)
}
