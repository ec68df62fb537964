package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appadmin "github.com/shopflow-io/shopflow/internal/application/admin"
	appcart "github.com/shopflow-io/shopflow/internal/application/cart"
	appcheckout "github.com/shopflow-io/shopflow/internal/application/checkout"
	apporder "github.com/shopflow-io/shopflow/internal/application/order"
	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
	domevent "github.com/shopflow-io/shopflow/internal/domain/event"
	domainidentity "github.com/shopflow-io/shopflow/internal/domain/identity"
	domainpayment "github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/infrastructure/id"
	identityprovider "github.com/shopflow-io/shopflow/internal/infrastructure/identity"
	"github.com/shopflow-io/shopflow/internal/infrastructure/memory"
	"github.com/shopflow-io/shopflow/internal/observability"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domevent.Event) error { return nil }

type stubGateway struct {
	session *domainpayment.GatewaySession
	err     error
}

func (g *stubGateway) CreateSession(context.Context, int64, string, string) (*domainpayment.GatewaySession, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type handlerFixture struct {
	router  http.Handler
	gateway *stubGateway
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	tel := observability.Nop()
	idGen := id.NewUUIDGenerator()

	carts := appcart.NewService(memory.NewCartRepository(), observability.NopLogger())
	sessions := memory.NewCheckoutRepository()
	snapshots := memory.NewSnapshotStore()
	checkoutSvc := appcheckout.NewService(sessions, snapshots, carts, observability.NopLogger())
	orders := memory.NewOrderRepository()
	placeOrder := appcheckout.NewPlaceOrderUseCase(sessions, snapshots, carts, orders, idGen, nopPublisher{}, tel)

	provider := identityprovider.NewProvider([]identityprovider.Credential{
		{Email: "customer@shopflow.local", Password: "customer", Role: domainidentity.RoleCustomer},
		{Email: "admin@shopflow.local", Password: "admin", Role: domainidentity.RoleAdmin},
	})

	gateway := &stubGateway{session: &domainpayment.GatewaySession{Token: "trk_abc", Environment: "sandbox"}}
	payments := memory.NewPaymentRepository()
	initiate := apppayment.NewInitiateUseCase(provider, memory.NewRateLimiter(), gateway, payments, orders, idGen, tel)
	webhook := apppayment.NewWebhookUseCase(payments, orders, nopPublisher{}, tel)

	admin := appadmin.NewService(orders, memory.NewAuditRepository(), nopPublisher{}, observability.NopLogger())

	h := NewHandler(carts, checkoutSvc, placeOrder, apporder.NewService(orders), initiate, webhook, admin, provider, tel)
	return &handlerFixture{router: h.Router(), gateway: gateway}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func sessionHeaders(sessionID string) map[string]string {
	return map[string]string{"X-Session-ID": sessionID}
}

func validAddressBody() map[string]string {
	return map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"phone":      "03001234567",
		"address":    "12 Analytical Engine Road",
		"city":       "Lahore",
		"state":      "Punjab",
		"zip_code":   "54000",
		"country":    "PK",
	}
}

func TestHandler_CartFlow(t *testing.T) {
	f := newHandlerFixture(t)
	headers := sessionHeaders("sess-1")

	rec := f.do(t, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 1, "name": "mug", "unit_price": 500, "quantity": 2,
	}, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPatch, "/cart/items/1", map[string]int{"quantity": 5}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/cart", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var cartBody struct {
		Items []struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartBody))
	require.Len(t, cartBody.Items, 1)
	assert.Equal(t, 5, cartBody.Items[0].Quantity)

	rec = f.do(t, http.MethodDelete, "/cart/items/1", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_CartRequiresSessionHeader(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-Session-ID")
}

func TestHandler_LoginRejectsBadCredentials(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "customer@shopflow.local", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_OrderHistoryRequiresToken(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := f.login(t, "customer@shopflow.local", "customer")
	rec = f.do(t, http.MethodGet, "/orders", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// runCheckout walks a session up to the review stage via the public routes.
func runCheckout(t *testing.T, f *handlerFixture, sessionID string) {
	t.Helper()
	headers := sessionHeaders(sessionID)

	rec := f.do(t, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 1, "name": "mug", "unit_price": 3000, "quantity": 2,
	}, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/checkout/shipping", validAddressBody(), headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/checkout/payment-method", map[string]string{
		"payment_method": "card",
	}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandler_PlaceOrder(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t, "customer@shopflow.local", "customer")
	runCheckout(t, f, "sess-1")

	headers := sessionHeaders("sess-1")
	headers["Authorization"] = "Bearer " + token

	rec := f.do(t, http.MethodPost, "/checkout/place-order", nil, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Totals  struct {
			Subtotal int64 `json:"subtotal"`
			Shipping int64 `json:"shipping"`
			Tax      int64 `json:"tax"`
			Total    int64 `json:"total"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.NotEmpty(t, placed.OrderID)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, int64(6000), placed.Totals.Subtotal)
	assert.Equal(t, int64(6600), placed.Totals.Total)

	// The confirmation survives for the last-order view.
	rec = f.do(t, http.MethodGet, "/checkout/last-order", nil, sessionHeaders("sess-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), placed.OrderID)

	// The order shows up in the buyer's history.
	rec = f.do(t, http.MethodGet, "/orders/"+placed.OrderID, nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_PlaceOrderUnauthenticated(t *testing.T) {
	f := newHandlerFixture(t)
	runCheckout(t, f, "sess-1")

	rec := f.do(t, http.MethodPost, "/checkout/place-order", nil, sessionHeaders("sess-1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The staged cart is untouched for the retry.
	rec = f.do(t, http.MethodGet, "/cart", nil, sessionHeaders("sess-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mug")
}

func TestHandler_InitiatePayment(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t, "customer@shopflow.local", "customer")
	runCheckout(t, f, "sess-1")

	headers := sessionHeaders("sess-1")
	headers["Authorization"] = "Bearer " + token
	rec := f.do(t, http.MethodPost, "/checkout/place-order", nil, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	rec = f.do(t, http.MethodPost, "/payments/initiate", map[string]any{
		"orderId":  placed.OrderID,
		"amount":   66.00,
		"currency": "PKR",
	}, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var initiated initiatePaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initiated))
	assert.True(t, initiated.Success)
	assert.Equal(t, "trk_abc", initiated.Token)
	assert.Equal(t, "sandbox", initiated.Environment)
}

func TestHandler_WebhookAcknowledgesUnknownOrder(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/webhooks/safepay", map[string]any{
		"data": map[string]string{"order_id": "order-unknown", "state": "PAID"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func TestHandler_WebhookRejectsMissingOrderID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/webhooks/safepay", map[string]any{
		"data": map[string]string{"state": "PAID"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AdminRoutesForbidCustomers(t *testing.T) {
	f := newHandlerFixture(t)
	customer := f.login(t, "customer@shopflow.local", "customer")

	rec := f.do(t, http.MethodGet, "/admin/orders", nil, map[string]string{
		"Authorization": "Bearer " + customer,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := f.login(t, "admin@shopflow.local", "admin")
	rec = f.do(t, http.MethodGet, "/admin/orders", nil, map[string]string{
		"Authorization": "Bearer " + admin,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
