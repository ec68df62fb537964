package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-io/shopflow/internal/domain/identity"
	"github.com/shopflow-io/shopflow/internal/domain/order"
	domain "github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/observability"
)

type fakeIdentities struct {
	users map[string]*identity.User
}

func (f *fakeIdentities) SignIn(context.Context, string, string) (*identity.Session, error) {
	return nil, identity.ErrInvalidCredentials
}

func (f *fakeIdentities) SignOut(context.Context, string) error { return nil }

func (f *fakeIdentities) Resolve(_ context.Context, token string) (*identity.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return u, nil
}

func (f *fakeIdentities) Subscribe(func(identity.Event)) identity.Unsubscribe {
	return func() {}
}

type countingLimiter struct {
	attempts    int
	maxAttempts int
	cooldown    time.Duration
}

func (l *countingLimiter) CheckAndIncrement(_ context.Context, _, _ string, maxAttempts int, _ time.Duration, block time.Duration) (RateLimitDecision, error) {
	l.maxAttempts = maxAttempts
	l.cooldown = block
	l.attempts++
	if l.attempts > maxAttempts {
		return RateLimitDecision{Allowed: false, BlockedUntil: time.Now().Add(block)}, nil
	}
	return RateLimitDecision{Allowed: true}, nil
}

type fakeGateway struct {
	session *domain.GatewaySession
	err     error
	calls   int
}

func (g *fakeGateway) CreateSession(_ context.Context, _ int64, _, _ string) (*domain.GatewaySession, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type fakePaymentRepo struct {
	records map[string]*domain.Record
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: make(map[string]*domain.Record)}
}

func (r *fakePaymentRepo) Insert(_ context.Context, rec *domain.Record) error {
	r.records[rec.OrderID] = rec.Clone()
	return nil
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Record, error) {
	rec, ok := r.records[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *fakePaymentRepo) UpdateStatusByOrderID(_ context.Context, orderID string, status domain.Status, gatewayRef string) error {
	rec, ok := r.records[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = status
	if gatewayRef != "" {
		rec.GatewayRef = gatewayRef
	}
	return nil
}

type fakeOrderRepo struct {
	orders  map[string]*order.Order
	updates int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*order.Order)}
}

func (r *fakeOrderRepo) Insert(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.updates++
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ order.ListFilter) ([]*order.Order, error) {
	return nil, nil
}

type stubIDGen struct{ next string }

func (g stubIDGen) NewID() string { return g.next }

func seedOrder(t *testing.T, repo *fakeOrderRepo, id string, totalMinor int64) {
	t.Helper()
	o, err := order.New(id, "user-1",
		[]order.Item{{ProductID: 1, Name: "mug", UnitPrice: totalMinor, Quantity: 1}},
		order.ShippingAddress{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Phone: "03001234567", Address: "12 Analytical Engine Road",
			City: "Lahore", State: "Punjab", ZipCode: "54000", Country: "PK",
		},
		order.MethodGateway,
		order.Totals{Subtotal: totalMinor, Total: totalMinor})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), o))
}

type initiateFixture struct {
	identities *fakeIdentities
	limiter    *countingLimiter
	gateway    *fakeGateway
	records    *fakePaymentRepo
	orders     *fakeOrderRepo
	uc         *InitiateUseCase
}

func newInitiateFixture() *initiateFixture {
	f := &initiateFixture{
		identities: &fakeIdentities{users: map[string]*identity.User{
			"token-1": {ID: "user-1", Email: "ada@example.com", Role: identity.RoleCustomer},
		}},
		limiter: &countingLimiter{},
		gateway: &fakeGateway{session: &domain.GatewaySession{Token: "trk_abc", Environment: "sandbox"}},
		records: newFakePaymentRepo(),
		orders:  newFakeOrderRepo(),
	}
	f.uc = NewInitiateUseCase(f.identities, f.limiter, f.gateway, f.records, f.orders,
		stubIDGen{next: "pay-1"}, observability.Nop())
	return f
}

func TestInitiate_Success(t *testing.T) {
	f := newInitiateFixture()
	seedOrder(t, f.orders, "order-1", 6600)

	result, err := f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1",
		OrderID:     "order-1",
		Amount:      66.00,
		Currency:    "PKR",
	})
	require.NoError(t, err)

	assert.Equal(t, "trk_abc", result.Token)
	assert.Equal(t, "sandbox", result.Environment)

	// A pending record exists, keyed by order, carrying minor units.
	rec, err := f.records.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, int64(6600), rec.Amount)
	assert.Equal(t, "trk_abc", rec.GatewayRef)
	assert.Equal(t, "user-1", rec.UserID)
}

func TestInitiate_Unauthorized(t *testing.T) {
	f := newInitiateFixture()
	seedOrder(t, f.orders, "order-1", 6600)

	_, err := f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "bad-token",
		OrderID:     "order-1",
		Amount:      66.00,
		Currency:    "PKR",
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.gateway.calls)
}

func TestInitiate_RateLimited(t *testing.T) {
	f := newInitiateFixture()
	seedOrder(t, f.orders, "order-1", 6600)
	ctx := context.Background()

	input := InitiateInput{BearerToken: "token-1", OrderID: "order-1", Amount: 66.00, Currency: "PKR"}
	for i := 0; i < 5; i++ {
		_, err := f.uc.Execute(ctx, input)
		require.NoError(t, err, "attempt %d should pass", i+1)
	}

	_, err := f.uc.Execute(ctx, input)
	var limited *domain.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), limited.BlockedUntil, time.Minute)
	assert.Equal(t, 5, f.limiter.maxAttempts)
	assert.Equal(t, 15*time.Minute, f.limiter.cooldown)
}

func TestInitiate_AmountMismatch(t *testing.T) {
	f := newInitiateFixture()
	seedOrder(t, f.orders, "order-1", 6600)

	_, err := f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1",
		OrderID:     "order-1",
		Amount:      65.00,
		Currency:    "PKR",
	})
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)
	assert.Zero(t, f.gateway.calls)
}

func TestInitiate_GatewayFailureWritesNoRecord(t *testing.T) {
	f := newInitiateFixture()
	seedOrder(t, f.orders, "order-1", 6600)
	f.gateway.err = &domain.GatewayError{StatusCode: 503, Message: "upstream unavailable"}

	_, err := f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1",
		OrderID:     "order-1",
		Amount:      66.00,
		Currency:    "PKR",
	})

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 503, gwErr.StatusCode)

	_, err = f.records.GetByOrderID(context.Background(), "order-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitiate_InputValidation(t *testing.T) {
	f := newInitiateFixture()

	_, err := f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1", Amount: 10, Currency: "PKR",
	})
	assert.ErrorIs(t, err, ErrOrderMissing)

	_, err = f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1", OrderID: "order-1", Amount: 0, Currency: "PKR",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.uc.Execute(context.Background(), InitiateInput{
		BearerToken: "token-1", OrderID: "order-1", Amount: 10,
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}
