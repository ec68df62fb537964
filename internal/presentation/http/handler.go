package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appadmin "github.com/shopflow-io/shopflow/internal/application/admin"
	appcart "github.com/shopflow-io/shopflow/internal/application/cart"
	appcheckout "github.com/shopflow-io/shopflow/internal/application/checkout"
	apporder "github.com/shopflow-io/shopflow/internal/application/order"
	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
	domaincart "github.com/shopflow-io/shopflow/internal/domain/cart"
	domainidentity "github.com/shopflow-io/shopflow/internal/domain/identity"
	domainorder "github.com/shopflow-io/shopflow/internal/domain/order"
	"github.com/shopflow-io/shopflow/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerSessionID      = "X-Session-ID"
)

// Handler wires the storefront, payment and back-office surfaces onto one
// chi router. Cart and checkout calls are keyed by the X-Session-ID header;
// order history and admin calls require a bearer token.
type Handler struct {
	carts      *appcart.Service
	checkout   *appcheckout.Service
	placeOrder *appcheckout.PlaceOrderUseCase
	orders     *apporder.Service
	initiate   *apppayment.InitiateUseCase
	webhook    *apppayment.WebhookUseCase
	admin      *appadmin.Service
	identities domainidentity.Provider

	log observability.Logger
	tel observability.Observability
}

func NewHandler(
	carts *appcart.Service,
	checkout *appcheckout.Service,
	placeOrder *appcheckout.PlaceOrderUseCase,
	orders *apporder.Service,
	initiate *apppayment.InitiateUseCase,
	webhook *apppayment.WebhookUseCase,
	admin *appadmin.Service,
	identities domainidentity.Provider,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		carts:      carts,
		checkout:   checkout,
		placeOrder: placeOrder,
		orders:     orders,
		initiate:   initiate,
		webhook:    webhook,
		admin:      admin,
		identities: identities,
		log:        tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:        tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(ObservabilityMiddleware(h.tel))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Post("/items", h.handleAddCartItem)
		r.Patch("/items/{productID}", h.handleSetCartQuantity)
		r.Delete("/items/{productID}", h.handleRemoveCartItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/shipping", h.handleSubmitShipping)
		r.Post("/payment-method", h.handleSelectPayment)
		r.Get("/review", h.handleReview)
		r.Post("/place-order", h.handlePlaceOrder)
		r.Get("/last-order", h.handleLastOrder)
		r.Delete("/", h.handleAbandon)
	})

	r.Post("/payments/initiate", h.handleInitiatePayment)
	r.Post("/webhooks/safepay", h.handleSafepayWebhook)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.handleOrderHistory)
		r.Get("/{orderID}", h.handleGetOrder)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", h.handleAdminListOrders)
		r.Patch("/orders/{orderID}/status", h.handleAdminUpdateStatus)
		r.Get("/audit", h.handleAdminAuditLog)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := h.identities.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeDomainError(w, domainidentity.ErrInvalidToken)
		return
	}
	if err := h.identities.SignOut(r.Context(), token); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- cart

type addItemRequest struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	c, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.AddItem(r.Context(), sessionID, domaincart.Item{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
		ImageRef:  req.ImageRef,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.SetQuantity(r.Context(), sessionID, productID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}
	c, err := h.carts.RemoveItem(r.Context(), sessionID, productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- checkout

type checkoutStateResponse struct {
	Stage         string                       `json:"stage"`
	Shipping      *domainorder.ShippingAddress `json:"shipping_address,omitempty"`
	PaymentMethod string                       `json:"payment_method,omitempty"`
	OrderID       string                       `json:"order_id,omitempty"`
	FailureReason string                       `json:"failure_reason,omitempty"`
}

type selectPaymentRequest struct {
	Method string `json:"payment_method"`
}

func (h *Handler) handleSubmitShipping(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var addr domainorder.ShippingAddress
	if err := decodeJSON(r, &addr); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := h.checkout.SubmitShipping(r.Context(), sessionID, addr)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutStateResponse{
		Stage:         string(sess.Stage),
		Shipping:      sess.Shipping,
		PaymentMethod: string(sess.Method),
	})
}

func (h *Handler) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req selectPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := h.checkout.SelectPayment(r.Context(), sessionID, domainorder.PaymentMethod(req.Method))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutStateResponse{
		Stage:         string(sess.Stage),
		Shipping:      sess.Shipping,
		PaymentMethod: string(sess.Method),
	})
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	view, err := h.checkout.Review(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type placeOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domainorder.Status `json:"status"`
	Totals  domainorder.Totals `json:"totals"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	// An absent or stale credential is passed through as an empty user id;
	// the use case aborts before any state transition.
	userID := ""
	if token := bearerToken(r); token != "" {
		if user, err := h.identities.Resolve(r.Context(), token); err == nil && user != nil {
			userID = user.ID
		}
	}

	result, err := h.placeOrder.Execute(r.Context(), appcheckout.PlaceOrderInput{
		SessionID: sessionID,
		UserID:    userID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID: result.OrderID,
		Status:  result.Status,
		Totals:  result.Totals,
	})
}

func (h *Handler) handleLastOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.checkout.LastOrder(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.checkout.Abandon(r.Context(), sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- payments

type initiatePaymentRequest struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerName  string  `json:"customerName"`
}

type initiatePaymentResponse struct {
	Success     bool   `json:"success"`
	Token       string `json:"token"`
	Environment string `json:"environment"`
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.initiate.Execute(r.Context(), apppayment.InitiateInput{
		BearerToken:   bearerToken(r),
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, initiatePaymentResponse{
		Success:     true,
		Token:       result.Token,
		Environment: result.Environment,
	})
}

// safepayWebhookBody matches the gateway's delivery envelope. Payload fields
// live under "data".
type safepayWebhookBody struct {
	Data struct {
		OrderID string `json:"order_id"`
		State   string `json:"state"`
		Tracker string `json:"tracker"`
	} `json:"data"`
}

func (h *Handler) handleSafepayWebhook(w http.ResponseWriter, r *http.Request) {
	var body safepayWebhookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid webhook payload"))
		return
	}

	err := h.webhook.Execute(r.Context(), apppayment.WebhookInput{
		OrderID:    body.Data.OrderID,
		State:      body.Data.State,
		TrackerRef: body.Data.Tracker,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// The gateway retries on anything but a 2xx acknowledgment.
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// --- order history

func (h *Handler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.History(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	ord, err := h.orders.Get(r.Context(), user, chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// --- admin

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	filter := domainorder.ListFilter{
		Status: domainorder.Status(r.URL.Query().Get("status")),
	}
	orders, err := h.admin.ListOrders(r.Context(), user, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleAdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ord, err := h.admin.UpdateOrderStatus(r.Context(), user, chi.URLParam(r, "orderID"), domainorder.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (h *Handler) handleAdminAuditLog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	entries, err := h.admin.ListAuditLog(r.Context(), user, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- helpers

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := strings.TrimSpace(r.Header.Get(headerSessionID))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New(headerSessionID+" header is required"))
		return "", false
	}
	return sessionID, true
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*domainidentity.User, bool) {
	token := bearerToken(r)
	if token == "" {
		writeDomainError(w, domainidentity.ErrInvalidToken)
		return nil, false
	}
	user, err := h.identities.Resolve(r.Context(), token)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return user, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
