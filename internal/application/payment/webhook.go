package payment

import (
	"context"
	"errors"
	"time"

	domevent "github.com/shopflow-io/shopflow/internal/domain/event"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	domain "github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"
)

const useCaseWebhook = "payment.webhook"

// ErrMissingOrderID is the only error the webhook surfaces to the gateway;
// everything else is logged and acknowledged.
var ErrMissingOrderID = errors.New("payment: webhook missing order id")

// WebhookUseCase applies a gateway callback to the payment record and the
// order, independently: a failure on one side never blocks the other. The
// gateway delivers at least once, so reapplying the same state is a no-op.
type WebhookUseCase struct {
	records   domain.Repository
	orders    order.Repository
	publisher domevent.Publisher
	tel       observability.Observability

	log          observability.Logger
	eventCounter observability.Counter // webhook_events_total{state,outcome}
}

func NewWebhookUseCase(
	records domain.Repository,
	orders order.Repository,
	publisher domevent.Publisher,
	tel observability.Observability,
) *WebhookUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &WebhookUseCase{
		records:      records,
		orders:       orders,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		eventCounter: tel.Metrics().Counter(observability.MWebhookEvents),
	}
}

type WebhookInput struct {
	OrderID    string
	State      string
	TrackerRef string
}

// Execute processes one webhook delivery. It returns an error only for a
// missing order id; partial update failures are logged because the gateway
// expects an acknowledgment regardless.
func (uc *WebhookUseCase) Execute(ctx context.Context, cmd WebhookInput) error {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseWebhook),
		observability.F("order_id", cmd.OrderID),
		observability.F("gateway_state", cmd.State),
	)

	if cmd.OrderID == "" {
		uc.count(cmd.State, "bad_request")
		return ErrMissingOrderID
	}

	paymentStatus, orderStatus := domain.MapGatewayState(cmd.State)
	outcome := "success"

	if err := uc.records.UpdateStatusByOrderID(ctx, cmd.OrderID, paymentStatus, cmd.TrackerRef); err != nil {
		outcome = "partial"
		logger.Error("webhook_payment_update_failed",
			observability.F("payment_status", string(paymentStatus)),
			observability.F("error", err.Error()),
		)
	}

	if err := uc.applyOrderStatus(ctx, logger, cmd.OrderID, orderStatus, paymentStatus, cmd.TrackerRef); err != nil {
		outcome = "partial"
		logger.Error("webhook_order_update_failed",
			observability.F("order_status", string(orderStatus)),
			observability.F("error", err.Error()),
		)
	}

	uc.count(cmd.State, outcome)
	logger.Info("webhook_processed",
		observability.F("payment_status", string(paymentStatus)),
		observability.F("order_status", string(orderStatus)),
		observability.F("outcome", outcome),
	)
	return nil
}

func (uc *WebhookUseCase) applyOrderStatus(ctx context.Context, logger observability.Logger, orderID string, next order.Status, paymentStatus domain.Status, trackerRef string) error {
	ord, err := uc.orders.Get(ctx, orderID)
	if err != nil {
		// Unknown order ids are acknowledged without creating anything.
		return err
	}

	if ord.Status == next {
		logger.Debug("webhook_order_status_unchanged")
		return nil
	}

	prev := ord.Status
	if err := ord.SetStatus(next); err != nil {
		return err
	}
	if err := uc.orders.Update(ctx, ord); err != nil {
		return err
	}

	if uc.publisher != nil && paymentStatus != domain.StatusPending {
		pubCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if err := uc.publisher.Publish(pubCtx, domain.SettledEvent{
			OrderID:    orderID,
			Status:     paymentStatus,
			GatewayRef: trackerRef,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			logger.Warn("webhook_event_publish_failed", observability.F("error", err.Error()))
		}
		if err := uc.publisher.Publish(pubCtx, order.NewOrderStatusChangedEvent(orderID, prev, next, "payment-gateway")); err != nil {
			logger.Warn("webhook_event_publish_failed", observability.F("error", err.Error()))
		}
	}
	return nil
}

func (uc *WebhookUseCase) count(state, outcome string) {
	if uc.eventCounter != nil {
		uc.eventCounter.Add(1,
			observability.L("state", state),
			observability.L("outcome", outcome),
		)
	}
}
