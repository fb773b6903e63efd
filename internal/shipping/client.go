package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Provider tokens last ~24h; cache for slightly less so we never hand
// out a token about to expire mid-call.
const tokenTTL = 23 * time.Hour

const serviceabilityTimeout = 2 * time.Second

type Client interface {
	PushOrder(ctx context.Context, req ShipmentRequest) (int64, error)
	AssignAWB(ctx context.Context, shipmentID int64) (*AWB, error)
	GenerateLabel(ctx context.Context, shipmentID int64) (string, error)
	CheckServiceability(ctx context.Context, deliveryPincode string, cod bool) (*Serviceability, error)
}

type client struct {
	baseURL        string
	email          string
	password       string
	pickupPincode  string
	pickupLocation string
	httpClient     *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	sf       singleflight.Group
}

func NewClient(baseURL, email, password, pickupPincode, pickupLocation string) Client {
	if email == "" || password == "" {
		logger.L().Warn("Courier credentials are empty")
	}

	return &client{
		baseURL:        baseURL,
		email:          email,
		password:       password,
		pickupPincode:  pickupPincode,
		pickupLocation: pickupLocation,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// getToken returns the cached token while it is fresh. Expired or
// absent, a single authentication call runs no matter how many requests
// arrive concurrently; the rest wait for its result.
func (c *client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("auth", func() (interface{}, error) {
		return c.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *client) authenticate(ctx context.Context) (string, error) {
	log := logger.FromCtx(ctx)

	body, _ := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/v1/external/auth/login", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Courier auth request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("Courier auth rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if res.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrAuthFailed)
	}

	c.mu.Lock()
	c.token = res.Token
	c.tokenExp = time.Now().Add(tokenTTL)
	c.mu.Unlock()

	log.Info("Courier token refreshed")
	return res.Token, nil
}

func (c *client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logger.FromCtx(ctx).Error("Courier call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return fmt.Errorf("%w: %s returned %d", ErrProvider, path, resp.StatusCode)
	}

	return json.Unmarshal(bodyBytes, out)
}

func (c *client) PushOrder(ctx context.Context, r ShipmentRequest) (int64, error) {
	items := make([]map[string]interface{}, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, map[string]interface{}{
			"name":          it.Name,
			"sku":           it.SKU,
			"units":         it.Units,
			"selling_price": it.UnitPrice,
		})
	}

	paymentMethod := "Prepaid"
	if r.CODAmount > 0 {
		paymentMethod = "COD"
	}

	payload := map[string]interface{}{
		"order_id":              r.OrderRef,
		"order_date":            time.Now().Format("2006-01-02 15:04"),
		"pickup_location":       c.pickupLocation,
		"billing_customer_name": r.CustomerName,
		"billing_last_name":     "",
		"billing_address":       r.Street,
		"billing_city":          r.City,
		"billing_pincode":       r.Pincode,
		"billing_state":         r.State,
		"billing_country":       "India",
		"billing_email":         r.Email,
		"billing_phone":         r.Phone,
		"shipping_is_billing":   true,
		"order_items":           items,
		"payment_method":        paymentMethod,
		"sub_total":             r.Subtotal,
		"length":                packageLengthCm,
		"breadth":               packageWidthCm,
		"height":                packageHeightCm,
		"weight":                packageWeightKg,
	}

	var res struct {
		OrderID    int64 `json:"order_id"`
		ShipmentID int64 `json:"shipment_id"`
	}
	if err := c.post(ctx, "/v1/external/orders/create/adhoc", payload, &res); err != nil {
		return 0, err
	}
	if res.ShipmentID == 0 {
		return 0, fmt.Errorf("%w: push returned no shipment id", ErrProvider)
	}

	logger.FromCtx(ctx).Info("Shipment pushed",
		zap.String("order_ref", r.OrderRef),
		zap.Int64("shipment_id", res.ShipmentID),
	)
	return res.ShipmentID, nil
}

func (c *client) AssignAWB(ctx context.Context, shipmentID int64) (*AWB, error) {
	payload := map[string]interface{}{"shipment_id": shipmentID}

	var res struct {
		AWBAssignStatus int `json:"awb_assign_status"`
		Response        struct {
			Data struct {
				AWBCode     string `json:"awb_code"`
				CourierName string `json:"courier_name"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := c.post(ctx, "/v1/external/courier/assign/awb", payload, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAWBFailed, err)
	}
	if res.AWBAssignStatus != 1 || res.Response.Data.AWBCode == "" {
		return nil, ErrAWBFailed
	}

	return &AWB{
		Code:        res.Response.Data.AWBCode,
		CourierName: res.Response.Data.CourierName,
	}, nil
}

func (c *client) GenerateLabel(ctx context.Context, shipmentID int64) (string, error) {
	payload := map[string]interface{}{"shipment_id": []int64{shipmentID}}

	var res struct {
		LabelCreated int    `json:"label_created"`
		LabelURL     string `json:"label_url"`
	}
	if err := c.post(ctx, "/v1/external/courier/generate/label", payload, &res); err != nil {
		return "", err
	}
	if res.LabelURL == "" {
		return "", fmt.Errorf("%w: label generation returned no url", ErrProvider)
	}
	return res.LabelURL, nil
}

// CheckServiceability is checkout-facing and time-bounded: a provider
// that hangs becomes ErrProviderTimeout, distinct from ErrProvider, so
// the UI can say "slow" instead of "broken".
func (c *client) CheckServiceability(ctx context.Context, deliveryPincode string, cod bool) (*Serviceability, error) {
	ctx, cancel := context.WithTimeout(ctx, serviceabilityTimeout)
	defer cancel()

	token, err := c.getToken(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrProviderTimeout
		}
		return nil, err
	}

	q := url.Values{}
	q.Set("pickup_postcode", c.pickupPincode)
	q.Set("delivery_postcode", deliveryPincode)
	q.Set("weight", strconv.FormatFloat(packageWeightKg, 'f', 2, 64))
	if cod {
		q.Set("cod", "1")
	} else {
		q.Set("cod", "0")
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+"/v1/external/courier/serviceability/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrProviderTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: serviceability returned %d", ErrProvider, resp.StatusCode)
	}

	var res struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierName           string `json:"courier_name"`
				EstimatedDeliveryDays string `json:"estimated_delivery_days"`
				ETD                   string `json:"etd"`
				COD                   int    `json:"cod"`
				City                  string `json:"city"`
				State                 string `json:"state"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(res.Data.AvailableCourierCompanies) == 0 {
		return nil, ErrNotServiceable
	}

	// Pick the courier with the shortest ETA.
	best := res.Data.AvailableCourierCompanies[0]
	bestDays := parseDays(best.EstimatedDeliveryDays)
	for _, cc := range res.Data.AvailableCourierCompanies[1:] {
		if d := parseDays(cc.EstimatedDeliveryDays); d < bestDays {
			best, bestDays = cc, d
		}
	}

	return &Serviceability{
		CourierName:   best.CourierName,
		City:          best.City,
		State:         best.State,
		EstimatedDays: bestDays,
		DeliveryDate:  best.ETD,
		CODAvailable:  best.COD == 1,
		IsExpress:     bestDays <= expressMaxDays,
	}, nil
}

func parseDays(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 99
	}
	return n
}
