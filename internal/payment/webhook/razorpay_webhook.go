package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"

	"go.uber.org/zap"
)

// WebhookPayload is the flattened event the gateway posts on payment
// capture.
type WebhookPayload struct {
	Event      string `json:"event"`
	OrderRef   string `json:"razorpay_order_id"`
	PaymentRef string `json:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature"`
}

type Handler struct {
	OrderSvc order.Service
}

func NewWebhookHandler(orderSvc order.Service) *Handler {
	return &Handler{OrderSvc: orderSvc}
}

func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	// Only capture events flip status; everything else is acknowledged
	// and dropped.
	if payload.Event != "" && payload.Event != "payment.captured" {
		w.WriteHeader(http.StatusOK)
		return
	}

	err = h.OrderSvc.VerifyPayment(r.Context(), payload.OrderRef, payload.PaymentRef, payload.Signature)
	switch {
	case errors.Is(err, order.ErrPaymentVerification):
		log.Warn("webhook signature rejected", zap.String("gateway_order_id", payload.OrderRef))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	case errors.Is(err, order.ErrOrderNotFound):
		log.Warn("webhook for unknown order", zap.String("gateway_order_id", payload.OrderRef))
		http.Error(w, "unknown order", http.StatusNotFound)
		return
	case err != nil:
		log.Error("failed to update order from webhook", zap.Error(err))
		http.Error(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
