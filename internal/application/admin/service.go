package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopflow-io/shopflow/internal/domain/audit"
	domevent "github.com/shopflow-io/shopflow/internal/domain/event"
	"github.com/shopflow-io/shopflow/internal/domain/identity"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"
)

const componentAdmin = "admin_service"

// ErrForbidden rejects callers without the admin role.
var ErrForbidden = errors.New("admin: forbidden")

// Service is the back-office surface: order listing, status management and
// audit log access. Every operation is gated on the caller's role.
type Service struct {
	orders    order.Repository
	audits    audit.Repository
	publisher domevent.Publisher
	log       observability.Logger
}

func NewService(orders order.Repository, audits audit.Repository, publisher domevent.Publisher, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		orders:    orders,
		audits:    audits,
		publisher: publisher,
		log:       logger.With(observability.F("component", componentAdmin)),
	}
}

func (s *Service) ListOrders(ctx context.Context, actor *identity.User, filter order.ListFilter) ([]*order.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.orders.List(ctx, filter)
}

// UpdateOrderStatus applies an admin status change and publishes the
// change for the audit trail.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor *identity.User, orderID string, next order.Status) (*order.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	prev := ord.Status
	if err := ord.SetStatus(next); err != nil {
		return nil, err
	}
	if prev == ord.Status {
		return ord, nil
	}
	if err := s.orders.Update(ctx, ord); err != nil {
		return nil, fmt.Errorf("admin: update order: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("admin_order_status_changed",
		observability.F("order_id", orderID),
		observability.F("from", string(prev)),
		observability.F("to", string(next)),
		observability.F("actor_id", actor.ID),
	)

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, order.NewOrderStatusChangedEvent(orderID, prev, next, actor.ID)); err != nil {
			logctx.FromOr(ctx, s.log).Warn("admin_event_publish_failed",
				observability.F("error", err.Error()),
			)
		}
	}
	return ord, nil
}

func (s *Service) ListAuditLog(ctx context.Context, actor *identity.User, limit int) ([]*audit.Entry, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.audits.List(ctx, limit)
}
