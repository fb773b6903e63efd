package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/catalog"
	"storefront-be/internal/coupon"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/shipping"
)

// Error is the JSON error envelope returned by every endpoint.
type Error struct {
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
	Status  int            `json:"-"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	WriteJSON(w, e.Status, e)
}

// FromErr maps domain sentinels onto the error taxonomy: 400
// validation, 401 verification, 403 eligibility, 404 missing, 409
// idempotency, 502/504 provider failures.
func FromErr(err error) Error {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidCustomer),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrPriceTampering),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrCODBelowMinimum),
		errors.Is(err, coupon.ErrInvalid),
		errors.Is(err, coupon.ErrNotStarted),
		errors.Is(err, coupon.ErrMinOrder),
		errors.Is(err, coupon.ErrExhausted):
		return Error{Message: err.Error(), Status: http.StatusBadRequest}

	case errors.Is(err, order.ErrPaymentVerification),
		errors.Is(err, auth.ErrInvalidCredentials):
		return Error{Message: err.Error(), Status: http.StatusUnauthorized}

	case errors.Is(err, order.ErrFraudBlocked):
		return Error{Message: err.Error(), Status: http.StatusForbidden}

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return Error{Message: err.Error(), Status: http.StatusNotFound}

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrTerminalState),
		errors.Is(err, order.ErrAlreadyShipped),
		errors.Is(err, order.ErrNotShippable):
		return Error{Message: err.Error(), Status: http.StatusConflict}

	case errors.Is(err, shipping.ErrProviderTimeout):
		return Error{Message: "logistics provider timed out, try again later", Status: http.StatusGatewayTimeout}

	case errors.Is(err, payment.ErrInitiationFailed),
		errors.Is(err, shipping.ErrAuthFailed),
		errors.Is(err, shipping.ErrAWBFailed),
		errors.Is(err, shipping.ErrProvider):
		// Provider internals stay in the logs; the user gets a retry hint.
		return Error{Message: "upstream provider error, try again", Status: http.StatusBadGateway}
	}

	return Error{Message: "internal error", Status: http.StatusInternalServerError}
}
