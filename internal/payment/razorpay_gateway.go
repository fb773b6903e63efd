package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

var ErrInitiationFailed = errors.New("payment initiation failed")

type razorpayGateway struct {
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	httpClient    *http.Client
}

func NewRazorpayGateway(baseURL, keyID, keySecret, webhookSecret string) Gateway {
	if keyID == "" || keySecret == "" {
		logger.L().Warn("Razorpay credentials are empty")
	}

	return &razorpayGateway{
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (g *razorpayGateway) CreateIntent(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.Int64("amount_paise", amountPaise),
		zap.String("currency", currency),
		zap.String("receipt", receipt),
	)

	body := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/orders", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return "", err
	}

	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Add("Content-Type", "application/json")

	log.Info("Creating gateway order")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Gateway request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Gateway returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return "", fmt.Errorf("%w: %s", ErrInitiationFailed, string(bodyBytes))
	}

	var res razorpayOrderResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding gateway response", zap.Error(err))
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("%w: response missing order id", ErrInitiationFailed)
	}

	log.Info("Gateway order created",
		zap.String("gateway_order_id", res.ID),
		zap.String("status", res.Status),
	)

	return res.ID, nil
}

func (g *razorpayGateway) VerifyCallback(orderRef, paymentRef, signature string) bool {
	if orderRef == "" || paymentRef == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
