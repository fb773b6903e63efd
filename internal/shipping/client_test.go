package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	authCalls   int64
	token       string
	awbStatus   int
	serviceable bool
	srv         *httptest.Server
}

func newFakeProvider(t *testing.T) *fakeProvider {
	f := &fakeProvider{token: "tok-1", awbStatus: 1, serviceable: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.authCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": f.token})
	})
	mux.HandleFunc("/v1/external/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]int64{"order_id": 100, "shipment_id": 555})
	})
	mux.HandleFunc("/v1/external/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"awb_assign_status": f.awbStatus,
			"response": map[string]interface{}{
				"data": map[string]string{"awb_code": "AWB777", "courier_name": "Delhivery"},
			},
		})
	})
	mux.HandleFunc("/v1/external/courier/generate/label", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"label_created": 1,
			"label_url":     "https://labels.example.com/555.pdf",
		})
	})
	mux.HandleFunc("/v1/external/courier/serviceability/", func(w http.ResponseWriter, r *http.Request) {
		if !f.serviceable {
			json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{
				"available_courier_companies": []interface{}{},
			}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{
			"available_courier_companies": []map[string]interface{}{
				{"courier_name": "Slowpost", "estimated_delivery_days": "6", "etd": "2026-09-08", "cod": 1, "city": "Mumbai", "state": "Maharashtra"},
				{"courier_name": "Delhivery", "estimated_delivery_days": "2", "etd": "2026-09-03", "cod": 1, "city": "Mumbai", "state": "Maharashtra"},
			},
		}})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeProvider) newClient() Client {
	return NewClient(f.srv.URL, "ops@example.com", "secret", "110001", "Primary")
}

func TestClient_TokenCachedAcrossCalls(t *testing.T) {
	f := newFakeProvider(t)
	c := f.newClient()
	ctx := context.Background()

	_, err := c.PushOrder(ctx, ShipmentRequest{OrderRef: "1"})
	require.NoError(t, err)
	_, err = c.AssignAWB(ctx, 555)
	require.NoError(t, err)

	// Two provider calls inside the cache window, one authentication.
	assert.Equal(t, int64(1), atomic.LoadInt64(&f.authCalls))
}

func TestClient_TokenRefreshedAfterExpiry(t *testing.T) {
	f := newFakeProvider(t)
	c := f.newClient().(*client)
	ctx := context.Background()

	_, err := c.PushOrder(ctx, ShipmentRequest{OrderRef: "1"})
	require.NoError(t, err)

	c.mu.Lock()
	c.tokenExp = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	_, err = c.AssignAWB(ctx, 555)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&f.authCalls))
}

func TestClient_AuthFailureIsHardError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ops@example.com", "wrong", "110001", "Primary")

	_, err := c.PushOrder(context.Background(), ShipmentRequest{OrderRef: "1"})
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestClient_AssignAWBFailure(t *testing.T) {
	f := newFakeProvider(t)
	f.awbStatus = 0
	c := f.newClient()

	_, err := c.AssignAWB(context.Background(), 555)
	assert.ErrorIs(t, err, ErrAWBFailed)
}

func TestClient_ServiceabilityPicksFastestCourier(t *testing.T) {
	f := newFakeProvider(t)
	c := f.newClient()

	res, err := c.CheckServiceability(context.Background(), "400001", true)
	require.NoError(t, err)

	assert.Equal(t, "Delhivery", res.CourierName)
	assert.Equal(t, 2, res.EstimatedDays)
	assert.True(t, res.IsExpress)
	assert.True(t, res.CODAvailable)
	assert.Equal(t, "Mumbai", res.City)
}

func TestClient_ServiceabilityEmptyMeansNotServiceable(t *testing.T) {
	f := newFakeProvider(t)
	f.serviceable = false
	c := f.newClient()

	_, err := c.CheckServiceability(context.Background(), "999999", true)
	assert.ErrorIs(t, err, ErrNotServiceable)
}

func TestClient_ServiceabilityTimeoutIsDistinct(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("/v1/external/courier/serviceability/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "ops@example.com", "secret", "110001", "Primary")

	_, err := c.CheckServiceability(context.Background(), "400001", true)
	assert.ErrorIs(t, err, ErrProviderTimeout)
}
