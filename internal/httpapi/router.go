package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-be/internal/auth"
	"storefront-be/internal/middleware"
	"storefront-be/internal/payment/webhook"
)

// NewRouter wires every public and admin surface onto one chi mux.
func NewRouter(
	authSvc *auth.Service,
	orders *OrderHandlers,
	admin *AdminHandlers,
	pincode *PincodeHandlers,
	hook *webhook.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)

	pincodeLimiter := middleware.NewPincodeLimiter()

	r.Route("/api", func(r chi.Router) {
		orders.Routes(r)

		r.With(pincodeLimiter.Middleware).Post("/pincode", pincode.Check)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", admin.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(authSvc))
				admin.Routes(r)
			})
		})
	})

	r.Post("/webhook/payment", hook.WebhookHandler)

	return r
}
