package workerpresentation

import (
	"context"
	"fmt"

	"github.com/shopflow-io/shopflow/internal/domain/audit"
	"github.com/shopflow-io/shopflow/internal/domain/event"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	"github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"
)

const componentAuditWorker = "audit_worker"

// IDGenerator mints ids for audit entries.
type IDGenerator interface {
	NewID() string
}

// AuditWorker turns bus events into append-only audit log entries. It runs
// off the request path; a failed append is logged and the event dropped.
type AuditWorker struct {
	audits      audit.Repository
	idGenerator IDGenerator
	log         observability.Logger
}

func NewAuditWorker(audits audit.Repository, idGen IDGenerator, logger observability.Logger) *AuditWorker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AuditWorker{
		audits:      audits,
		idGenerator: idGen,
		log:         logger.With(observability.F("component", componentAuditWorker)),
	}
}

// Register subscribes the worker to every audited event.
func (w *AuditWorker) Register(bus event.Subscriber) {
	bus.Subscribe(order.OrderPlacedEvent{}.EventName(), w.handle)
	bus.Subscribe(order.OrderStatusChangedEvent{}.EventName(), w.handle)
	bus.Subscribe(payment.SettledEvent{}.EventName(), w.handle)
}

func (w *AuditWorker) handle(ctx context.Context, e event.Event) error {
	entry := w.entryFor(e)
	if entry == nil {
		return nil
	}

	if err := w.audits.Append(ctx, entry); err != nil {
		logctx.FromOr(ctx, w.log).Error("audit_append_failed",
			observability.F("action", entry.Action),
			observability.F("order_id", entry.OrderID),
			observability.F("error", err.Error()),
		)
		return err
	}

	logctx.FromOr(ctx, w.log).Debug("audit_entry_written",
		observability.F("action", entry.Action),
		observability.F("order_id", entry.OrderID),
	)
	return nil
}

func (w *AuditWorker) entryFor(e event.Event) *audit.Entry {
	switch ev := e.(type) {
	case order.OrderPlacedEvent:
		return &audit.Entry{
			ID:        w.idGenerator.NewID(),
			Action:    ev.EventName(),
			ActorID:   ev.UserID,
			OrderID:   ev.OrderID,
			Detail:    fmt.Sprintf("method=%s total=%d", ev.Method, ev.Total),
			CreatedAt: ev.OccurredAt,
		}
	case order.OrderStatusChangedEvent:
		return &audit.Entry{
			ID:        w.idGenerator.NewID(),
			Action:    ev.EventName(),
			ActorID:   ev.Actor,
			OrderID:   ev.OrderID,
			Detail:    fmt.Sprintf("from=%s to=%s", ev.From, ev.To),
			CreatedAt: ev.OccurredAt,
		}
	case payment.SettledEvent:
		return &audit.Entry{
			ID:        w.idGenerator.NewID(),
			Action:    ev.EventName(),
			ActorID:   "payment-gateway",
			OrderID:   ev.OrderID,
			Detail:    fmt.Sprintf("status=%s tracker=%s", ev.Status, ev.GatewayRef),
			CreatedAt: ev.OccurredAt,
		}
	default:
		w.log.Warn("audit_event_unhandled", observability.F("event", e.EventName()))
		return nil
	}
}
