package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Payment gateway
	GatewayKeyID         string
	GatewayKeySecret     string
	GatewayWebhookSecret string
	GatewayBaseURL       string

	// Logistics provider
	CourierBaseURL  string
	CourierEmail    string
	CourierPassword string
	PickupPincode   string
	PickupLocation  string

	// Checkout rules, in paise. A StoreSettings row overrides the shipping pair.
	CODMinOrderPaise      int64
	CODFeePaise           int64
	FreeShippingMinPaise  int64
	ShippingFlatRatePaise int64

	// Admin auth
	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		GatewayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		GatewayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		GatewayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		GatewayBaseURL:       envOr("RAZORPAY_BASE_URL", "https://api.razorpay.com"),

		CourierBaseURL:  envOr("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in"),
		CourierEmail:    os.Getenv("SHIPROCKET_EMAIL"),
		CourierPassword: os.Getenv("SHIPROCKET_PASSWORD"),
		PickupPincode:   os.Getenv("PICKUP_PINCODE"),
		PickupLocation:  envOr("PICKUP_LOCATION", "Primary"),

		CODMinOrderPaise:      envPaise("COD_MIN_ORDER_RUPEES", 299),
		CODFeePaise:           envPaise("COD_FEE_RUPEES", 50),
		FreeShippingMinPaise:  envPaise("FREE_SHIPPING_MIN_RUPEES", 499),
		ShippingFlatRatePaise: envPaise("SHIPPING_FLAT_RATE_RUPEES", 49),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("SECRET_KEY"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envPaise reads a whole-rupee env value and converts it to paise.
func envPaise(key string, fallbackRupees int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallbackRupees * 100
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n * 100
}
