package httpapi

import (
	"encoding/json"
	"math"
	"net/http"

	"storefront-be/internal/money"
	"storefront-be/internal/order"
	"storefront-be/internal/pricing"

	"github.com/go-chi/chi/v5"
)

const maxOrderBodySize = 64 * 1024

// OrderHandlers exposes the storefront-facing checkout endpoints.
type OrderHandlers struct {
	orders order.Service
}

func NewOrderHandlers(orders order.Service) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Post("/payment/verify", h.verifyPayment)
}

type orderItemRequest struct {
	ProductID   *int64   `json:"productId"`
	Quantity    int      `json:"quantity"`
	CustomTitle string   `json:"customTitle,omitempty"`
	CustomPrice *float64 `json:"customPrice,omitempty"` // rupees
	CustomImage string   `json:"customImage,omitempty"`
}

type customerDetailsRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items"`
	CouponCode      string                 `json:"couponCode,omitempty"`
	CustomerDetails customerDetailsRequest `json:"customerDetails"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type createOrderResponse struct {
	Success        bool    `json:"success"`
	DBOrderID      int64   `json:"dbOrderId"`
	Amount         float64 `json:"amount,omitempty"`
	GatewayOrderID string  `json:"gatewayOrderId,omitempty"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	body := http.MaxBytesReader(w, r.Body, maxOrderBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		WriteError(w, Error{Message: "malformed request body", Status: http.StatusBadRequest})
		return
	}

	method, ok := pricing.ParseMethod(req.PaymentMethod)
	if !ok {
		WriteError(w, Error{
			Message: "invalid payment method",
			Details: map[string]any{"paymentMethod": req.PaymentMethod},
			Status:  http.StatusBadRequest,
		})
		return
	}

	items := make([]order.LineInput, 0, len(req.Items))
	for _, it := range req.Items {
		line := order.LineInput{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			CustomTitle:    it.CustomTitle,
			CustomImageURL: it.CustomImage,
		}
		if it.CustomPrice != nil {
			// Truncating a fractional price would round it onto the
			// allowed price list; reject it instead.
			if *it.CustomPrice != math.Trunc(*it.CustomPrice) {
				WriteError(w, FromErr(order.ErrPriceTampering))
				return
			}
			paise := money.FromRupees(int64(*it.CustomPrice))
			line.CustomPricePaise = &paise
		}
		items = append(items, line)
	}

	res, err := h.orders.Create(r.Context(), order.CreateInput{
		Items:      items,
		CouponCode: req.CouponCode,
		Customer: order.CustomerInput{
			Name:    req.CustomerDetails.Name,
			Email:   req.CustomerDetails.Email,
			Phone:   req.CustomerDetails.Phone,
			Street:  req.CustomerDetails.Address,
			City:    req.CustomerDetails.City,
			State:   req.CustomerDetails.State,
			Pincode: req.CustomerDetails.Pincode,
		},
		PaymentMethod: method,
	})
	if err != nil {
		WriteError(w, FromErr(err))
		return
	}

	WriteJSON(w, http.StatusCreated, createOrderResponse{
		Success:        true,
		DBOrderID:      res.OrderID,
		Amount:         money.ToRupees(res.AmountPaise),
		GatewayOrderID: res.GatewayOrderID,
	})
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	Signature         string `json:"signature"`
}

func (h *OrderHandlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, Error{Message: "malformed request body", Status: http.StatusBadRequest})
		return
	}

	err := h.orders.VerifyPayment(r.Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.Signature)
	if err != nil {
		WriteError(w, FromErr(err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
