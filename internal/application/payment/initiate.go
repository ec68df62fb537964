package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopflow-io/shopflow/internal/application"
	"github.com/shopflow-io/shopflow/internal/domain/identity"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	domain "github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/observability"
	"github.com/shopflow-io/shopflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService    = "payment-service"
	useCaseInitiate   = "payment.initiate"
	spanPrefix        = "UC."
	gatewayPeer       = "safepay"
	gatewayEndpoint   = "payments.create_session"
	rateLimitEndpoint = "payments.initiate"
	rateLimitAttempts = 5
	rateLimitWindow   = 5 * time.Minute
	rateLimitCooldown = 15 * time.Minute
)

var (
	ErrUnauthorized = errors.New("payment: unauthorized")
	ErrOrderMissing = errors.New("payment: order id is required")
)

var _ application.UseCase[InitiateInput, *InitiateResult] = (*InitiateUseCase)(nil)

// InitiateUseCase is the payment initiation relay: it authenticates the
// caller, applies the rate-limit gate, opens a gateway session and records
// the pending payment. The record is written only after the gateway
// confirms session creation, never before.
type InitiateUseCase struct {
	identities  identity.Provider
	limiter     RateLimiter
	gateway     domain.Gateway
	records     domain.Repository
	orders      order.Repository
	idGenerator IDGenerator
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewInitiateUseCase(
	identities identity.Provider,
	limiter RateLimiter,
	gateway domain.Gateway,
	records domain.Repository,
	orders order.Repository,
	idGen IDGenerator,
	tel observability.Observability,
) *InitiateUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &InitiateUseCase{
		identities:   identities,
		limiter:      limiter,
		gateway:      gateway,
		records:      records,
		orders:       orders,
		idGenerator:  idGen,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type InitiateInput struct {
	BearerToken   string
	OrderID       string
	// Amount is in major currency units, as sent by the storefront client.
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

type InitiateResult struct {
	Token       string
	Environment string
}

func (uc *InitiateUseCase) Execute(ctx context.Context, cmd InitiateInput) (_ *InitiateResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseInitiate))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"InitiatePayment",
		attribute.String("use_case", useCaseInitiate),
		attribute.String("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseInitiate),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseInitiate),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("order_id", cmd.OrderID),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	user, rerr := uc.identities.Resolve(ctx, cmd.BearerToken)
	if rerr != nil || user == nil {
		outcome, statusText = "error", "UNAUTHORIZED"
		return nil, ErrUnauthorized
	}

	decision, lerr := uc.limiter.CheckAndIncrement(ctx, user.ID, rateLimitEndpoint,
		rateLimitAttempts, rateLimitWindow, rateLimitCooldown)
	if lerr != nil {
		outcome, statusText = "error", "RATE_LIMIT_CHECK_FAILED"
		return nil, fmt.Errorf("payment: rate limit check: %w", lerr)
	}
	if !decision.Allowed {
		outcome, statusText = "error", "RATE_LIMITED"
		logger.Warn("payment_rate_limited",
			observability.F("user_id", user.ID),
			observability.F("blocked_until", decision.BlockedUntil),
		)
		return nil, &domain.RateLimitedError{BlockedUntil: decision.BlockedUntil}
	}

	if cmd.OrderID == "" {
		outcome, statusText = "error", "ORDER_ID_REQUIRED"
		return nil, ErrOrderMissing
	}
	if cmd.Amount <= 0 {
		outcome, statusText = "error", "AMOUNT_INVALID"
		return nil, domain.ErrInvalidAmount
	}
	if cmd.Currency == "" {
		outcome, statusText = "error", "CURRENCY_REQUIRED"
		return nil, errors.New("payment: currency is required")
	}

	// Minor-unit conversion happens exactly once, here.
	amountMinor := int64(math.Round(cmd.Amount * 100))

	ord, oerr := uc.orders.Get(ctx, cmd.OrderID)
	if oerr != nil {
		outcome, statusText = "error", "ORDER_LOAD_FAILED"
		return nil, fmt.Errorf("payment: load order: %w", oerr)
	}
	if ord.Totals.Total != amountMinor {
		outcome, statusText = "error", "AMOUNT_MISMATCH"
		return nil, domain.ErrAmountMismatch
	}

	gwStart := time.Now()
	session, gerr := uc.gateway.CreateSession(ctx, amountMinor, cmd.Currency, cmd.OrderID)
	gwOutcome := "success"
	if gerr != nil {
		gwOutcome = "error"
	}
	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", gatewayPeer),
			observability.L("endpoint", gatewayEndpoint),
			observability.L("outcome", gwOutcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(gwStart).Seconds(),
			observability.L("peer", gatewayPeer),
			observability.L("endpoint", gatewayEndpoint),
		)
	}
	if gerr != nil {
		// No payment record exists for a failed gateway call.
		outcome, statusText = "error", "GATEWAY_FAILED"
		return nil, gerr
	}

	record, derr := domain.NewRecord(uc.idGenerator.NewID(), cmd.OrderID, user.ID,
		amountMinor, cmd.Currency, session.Token)
	if derr != nil {
		outcome, statusText = "error", "RECORD_CONSTRUCTION_FAILED"
		return nil, derr
	}
	if err := uc.records.Insert(ctx, record); err != nil {
		outcome, statusText = "error", "RECORD_INSERT_FAILED"
		return nil, fmt.Errorf("payment: store record: %w", err)
	}

	span.AddEvent("payment.session_created",
		trace.WithAttributes(attribute.String("order.id", cmd.OrderID)),
	)

	return &InitiateResult{
		Token:       session.Token,
		Environment: session.Environment,
	}, nil
}
