package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appadmin "github.com/shopflow-io/shopflow/internal/application/admin"
	appcheckout "github.com/shopflow-io/shopflow/internal/application/checkout"
	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
	domaincart "github.com/shopflow-io/shopflow/internal/domain/cart"
	domaincheckout "github.com/shopflow-io/shopflow/internal/domain/checkout"
	domainidentity "github.com/shopflow-io/shopflow/internal/domain/identity"
	domainorder "github.com/shopflow-io/shopflow/internal/domain/order"
	domainpayment "github.com/shopflow-io/shopflow/internal/domain/payment"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps application and domain errors onto HTTP statuses.
// Validation failures carry their per-field breakdown; rate limiting carries
// the retry horizon.
func writeDomainError(w http.ResponseWriter, err error) {
	var fieldErrs domainorder.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"errors": fieldErrs,
		})
		return
	}

	var rateLimited *domainpayment.RateLimitedError
	if errors.As(err, &rateLimited) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":         "Too many payment attempts. Please try again later.",
			"blocked_until": rateLimited.BlockedUntil.Format(time.RFC3339),
		})
		return
	}

	var gatewayErr *domainpayment.GatewayError
	if errors.As(err, &gatewayErr) {
		writeError(w, http.StatusBadGateway, gatewayErr)
		return
	}

	switch {
	case errors.Is(err, appcheckout.ErrUnauthenticated),
		errors.Is(err, apppayment.ErrUnauthorized),
		errors.Is(err, domainidentity.ErrInvalidToken),
		errors.Is(err, domainidentity.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": err.Error(),
			"hint":  "sign in via POST /auth/login",
		})
	case errors.Is(err, appadmin.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainorder.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound),
		errors.Is(err, domaincheckout.ErrNotFound),
		errors.Is(err, domaincart.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domaincheckout.ErrInvalidStateTransition),
		errors.Is(err, domainorder.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domaincheckout.ErrShippingRequired),
		errors.Is(err, domaincheckout.ErrPaymentMethodRequired),
		errors.Is(err, appcheckout.ErrEmptyCart),
		errors.Is(err, domaincart.ErrInvalidQuantity),
		errors.Is(err, domaincart.ErrInvalidProduct),
		errors.Is(err, domainorder.ErrInvalidStatus),
		errors.Is(err, domainorder.ErrInvalidPaymentMethod),
		errors.Is(err, domainpayment.ErrInvalidAmount),
		errors.Is(err, domainpayment.ErrAmountMismatch),
		errors.Is(err, apppayment.ErrOrderMissing),
		errors.Is(err, apppayment.ErrMissingOrderID):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
