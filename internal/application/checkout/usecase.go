package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopflow-io/shopflow/internal/application"
	appcart "github.com/shopflow-io/shopflow/internal/application/cart"
	domain "github.com/shopflow-io/shopflow/internal/domain/checkout"
	domevent "github.com/shopflow-io/shopflow/internal/domain/event"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService   = "checkout-service"
	useCasePlaceOrder = "checkout.place_order"
	spanPrefix        = "UC."
	publishPeer       = "bus"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond
)

var (
	// ErrUnauthenticated aborts the flow before any state transition; the
	// caller is redirected to the login entry point and the cart survives.
	ErrUnauthenticated = errors.New("checkout: authentication required")
	ErrEmptyCart       = errors.New("checkout: cart is empty")
	// ErrOrderStore wraps failures persisting the order; the flow returns
	// to review with all staged data intact.
	ErrOrderStore = errors.New("checkout: order store failure")
)

var _ application.UseCase[PlaceOrderInput, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

// PlaceOrderUseCase is the Submitting leg of the checkout state machine:
// it commits the order record, clears the cart, persists the confirmation
// snapshot and discards the in-flight checkout state.
type PlaceOrderUseCase struct {
	sessions    domain.Repository
	snapshots   domain.SnapshotStore
	carts       *appcart.Service
	orders      order.Repository
	idGenerator IDGenerator
	publisher   domevent.Publisher
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewPlaceOrderUseCase(
	sessions domain.Repository,
	snapshots domain.SnapshotStore,
	carts *appcart.Service,
	orders order.Repository,
	idGen IDGenerator,
	publisher domevent.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLog := tel.Logger().With(
		observability.F("service", checkoutService),
	)

	metrics := tel.Metrics()

	return &PlaceOrderUseCase{
		sessions:     sessions,
		snapshots:    snapshots,
		carts:        carts,
		orders:       orders,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderInput struct {
	SessionID string
	// UserID is empty when the caller holds no valid credential.
	UserID string
}

type PlaceOrderResult struct {
	OrderID string
	Status  order.Status
	Totals  order.Totals
}

// Execute performs the Review → Submitting → Confirmed/Failed flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCasePlaceOrder))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("checkout.session_id", cmd.SessionID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID string
	var publishErr error

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCasePlaceOrder),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCasePlaceOrder),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.SessionID == "" {
		outcome, statusText = "error", "SESSION_ID_REQUIRED"
		return nil, errors.New("checkout: session id is required")
	}

	// Authentication is checked before any state transition: an anonymous
	// submit abandons the flow, leaving session and cart untouched.
	if cmd.UserID == "" {
		outcome, statusText = "error", "UNAUTHENTICATED"
		return nil, ErrUnauthenticated
	}

	sess, err := uc.sessions.Get(ctx, cmd.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		outcome, statusText = "error", "SHIPPING_REQUIRED"
		return nil, domain.ErrShippingRequired
	}
	if err != nil {
		outcome, statusText = "error", "SESSION_LOAD_FAILED"
		return nil, fmt.Errorf("checkout: load session: %w", err)
	}

	c, err := uc.carts.Get(ctx, cmd.SessionID)
	if err != nil {
		outcome, statusText = "error", "CART_LOAD_FAILED"
		return nil, err
	}
	if c.IsEmpty() {
		outcome, statusText = "error", "CART_EMPTY"
		return nil, ErrEmptyCart
	}

	if err := sess.BeginSubmit(); err != nil {
		// The guard may have moved the flow back to the shipping stage.
		if saveErr := uc.sessions.Save(ctx, sess); saveErr != nil {
			logger.Warn("checkout_session_save_failed", observability.F("error", saveErr.Error()))
		}
		outcome, statusText = "error", "SUBMIT_GUARD_FAILED"
		return nil, err
	}
	if saveErr := uc.sessions.Save(ctx, sess); saveErr != nil {
		outcome, statusText = "error", "SESSION_SAVE_FAILED"
		return nil, fmt.Errorf("checkout: save session: %w", saveErr)
	}

	// Totals are re-derived here and must equal what review displayed;
	// the computation is deterministic over the same cart.
	totals := domain.QuoteFor(c)
	items := domain.SnapshotItems(c)

	orderID = uc.idGenerator.NewID()
	entity, derr := order.New(orderID, cmd.UserID, items, *sess.Shipping, sess.Method, totals)
	if derr != nil {
		uc.failSubmission(ctx, logger, sess, derr)
		outcome, statusText = "error", "ORDER_CONSTRUCTION_FAILED"
		return nil, derr
	}

	if err := uc.orders.Insert(ctx, entity); err != nil {
		uc.failSubmission(ctx, logger, sess, err)
		outcome, statusText = "error", "ORDER_INSERT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrOrderStore, err)
	}

	// Submitting → Confirmed. From here the order exists; cleanup failures
	// are logged, not surfaced.
	if err := sess.Complete(orderID); err != nil {
		logger.Warn("checkout_complete_transition_failed", observability.F("error", err.Error()))
	}
	if err := uc.snapshots.Put(ctx, cmd.SessionID, domain.NewSnapshot(entity)); err != nil {
		logger.Warn("checkout_snapshot_save_failed", observability.F("error", err.Error()))
	}
	if err := uc.carts.Clear(ctx, cmd.SessionID); err != nil {
		logger.Warn("checkout_cart_clear_failed", observability.F("error", err.Error()))
	}
	if err := uc.sessions.Delete(ctx, cmd.SessionID); err != nil {
		logger.Warn("checkout_session_discard_failed", observability.F("error", err.Error()))
	}

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		publishErr = uc.publisher.Publish(pubCtx, order.NewOrderPlacedEvent(entity))
		if publishErr != nil {
			pubOutcome = "error"
			statusText = "EVENT_PUBLISH_FAILED"
		}
		cancel()

		if uc.extCounter != nil {
			uc.extCounter.Add(1,
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishEndpoint),
				observability.L("outcome", pubOutcome),
			)
		}
		if uc.extHistogram != nil {
			uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishEndpoint),
			)
		}
	}

	span.SetAttributes(attribute.String("order.status", string(entity.Status)))
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)

	return &PlaceOrderResult{
		OrderID: entity.ID,
		Status:  entity.Status,
		Totals:  entity.Totals,
	}, nil
}

// failSubmission records the failure on the session so the flow lands back
// on review with staged data intact.
func (uc *PlaceOrderUseCase) failSubmission(ctx context.Context, logger observability.Logger, sess *domain.Session, cause error) {
	if err := sess.Fail(cause.Error()); err != nil {
		logger.Warn("checkout_fail_transition_failed", observability.F("error", err.Error()))
		return
	}
	if err := uc.sessions.Save(ctx, sess); err != nil {
		logger.Warn("checkout_session_save_failed", observability.F("error", err.Error()))
	}
}
