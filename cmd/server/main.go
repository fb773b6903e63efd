package main

import (
	"log"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/catalog"
	"storefront-be/internal/config"
	"storefront-be/internal/coupon"
	"storefront-be/internal/db"
	"storefront-be/internal/httpapi"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/settings"
	"storefront-be/internal/shipping"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	catalogRepo := catalog.NewRepository(database)
	settingsRepo := settings.NewRepository(database)

	couponRepo := coupon.NewRepository(database)
	couponSvc := coupon.NewService(couponRepo)

	gateway := payment.NewRazorpayGateway(
		cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayWebhookSecret,
	)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, catalogRepo, couponSvc, settingsRepo, gateway, order.Rules{
		CODMinOrderPaise:      cfg.CODMinOrderPaise,
		CODFeePaise:           cfg.CODFeePaise,
		FreeShippingMinPaise:  cfg.FreeShippingMinPaise,
		ShippingFlatRatePaise: cfg.ShippingFlatRatePaise,
	})

	courier := shipping.NewClient(
		cfg.CourierBaseURL, cfg.CourierEmail, cfg.CourierPassword,
		cfg.PickupPincode, cfg.PickupLocation,
	)
	shippingSvc := shipping.NewService(courier, orderRepo)

	authSvc := auth.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret)

	router := httpapi.NewRouter(
		authSvc,
		httpapi.NewOrderHandlers(orderSvc),
		httpapi.NewAdminHandlers(authSvc, orderSvc, shippingSvc),
		httpapi.NewPincodeHandlers(shippingSvc),
		webhook.NewWebhookHandler(orderSvc),
	)

	log.Printf("🚀 API server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
