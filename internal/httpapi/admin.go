package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storefront-be/internal/auth"
	"storefront-be/internal/money"
	"storefront-be/internal/order"
	"storefront-be/internal/shipping"

	"github.com/go-chi/chi/v5"
)

// AdminHandlers exposes the operator endpoints: listing, manual status
// transitions, COD confirmation and label generation.
type AdminHandlers struct {
	authSvc  *auth.Service
	orders   order.Service
	shipping shipping.Service
}

func NewAdminHandlers(authSvc *auth.Service, orders order.Service, shippingSvc shipping.Service) *AdminHandlers {
	return &AdminHandlers{
		authSvc:  authSvc,
		orders:   orders,
		shipping: shippingSvc,
	}
}

func (h *AdminHandlers) Routes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}/status", h.updateStatus)
	r.Post("/orders/{orderID}/confirm", h.confirmCOD)
	r.Post("/orders/{orderID}/ship", h.ship)
}

// Login sits outside Routes so the router can mount it without the
// auth middleware.
func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, Error{Message: "malformed request body", Status: http.StatusBadRequest})
		return
	}

	token, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		WriteError(w, FromErr(err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

type orderView struct {
	ID             int64      `json:"id"`
	CustomerName   string     `json:"customerName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"paymentMethod"`
	Subtotal       float64    `json:"subtotal"`
	Shipping       float64    `json:"shipping"`
	Discount       float64    `json:"discount"`
	CODFee         float64    `json:"codFee"`
	Amount         float64    `json:"amount"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	CourierName    *string    `json:"courierName,omitempty"`
	LabelURL       *string    `json:"labelUrl,omitempty"`
	Items          []itemView `json:"items,omitempty"`
}

type itemView struct {
	ProductID *int64  `json:"productId,omitempty"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func toOrderView(o *order.Order) orderView {
	v := orderView{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		Email:          o.Email,
		Phone:          o.Phone,
		Status:         string(o.Status),
		PaymentMethod:  string(o.PaymentMethod),
		Subtotal:       money.ToRupees(o.SubtotalPaise),
		Shipping:       money.ToRupees(o.ShippingPaise),
		Discount:       money.ToRupees(o.DiscountPaise),
		CODFee:         money.ToRupees(o.CODFeePaise),
		Amount:         money.ToRupees(o.AmountPaise),
		TrackingNumber: o.TrackingNumber,
		CourierName:    o.CourierName,
		LabelURL:       o.LabelURL,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, itemView{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     money.ToRupees(it.PricePaise),
			Quantity:  it.Quantity,
		})
	}
	return v
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 32)
	page, _ := strconv.ParseInt(q.Get("page"), 10, 32)

	orders, err := h.orders.List(r.Context(), q.Get("status"), int32(limit), int32(page))
	if err != nil {
		WriteError(w, FromErr(err))
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "orders": views})
}

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		WriteError(w, Error{Message: "invalid order id", Status: http.StatusBadRequest})
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		WriteError(w, FromErr(err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderView(o)})
}

func (h *AdminHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		WriteError(w, Error{Message: "invalid order id", Status: http.StatusBadRequest})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, Error{Message: "malformed request body", Status: http.StatusBadRequest})
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		WriteError(w, FromErr(err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandlers) confirmCOD(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		WriteError(w, Error{Message: "invalid order id", Status: http.StatusBadRequest})
		return
	}

	if err := h.orders.ConfirmCOD(r.Context(), id); err != nil {
		WriteError(w, FromErr(err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandlers) ship(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		WriteError(w, Error{Message: "invalid order id", Status: http.StatusBadRequest})
		return
	}

	res, err := h.shipping.GenerateLabel(r.Context(), id)
	if err != nil {
		e := FromErr(err)
		WriteJSON(w, e.Status, map[string]any{"success": false, "message": e.Message})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"awb":       res.AWB,
		"courier":   res.Courier,
		"label_url": res.LabelURL,
	})
}

func orderIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
}
