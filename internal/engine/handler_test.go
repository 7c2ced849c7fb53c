package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *fixture) {
	t.Helper()
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	router := NewRouter(NewOrderingHandler(f.core, zap.NewNop()), NewMetrics(reg), reg)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, f
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_Evaluate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/restaurants/r1/evaluate", evaluateRequest{Cart: twoBurgers()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Trace-ID") == "" {
		t.Error("X-Trace-ID header must be set")
	}

	var got Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Effects) != 2 || got.Summary.Total != 1800 {
		t.Errorf("unexpected evaluation: %+v", got)
	}
}

func TestHandler_ApplyReturnsEmptyEffect(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/restaurants/r1/policies/ten-off/apply", evaluateRequest{Cart: domain.Cart{}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["added_items"]) != "[]" || string(raw["modified_items"]) != "[]" {
		t.Errorf("empty effect lists must encode as []: %s %s", raw["added_items"], raw["modified_items"])
	}
	if _, ok := raw["whole_cart"]; ok {
		t.Error("whole_cart must be omitted")
	}
}

func TestHandler_ErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		url  string
		body any
		want int
	}{
		{"unknown restaurant", "/v1/restaurants/nope/evaluate", evaluateRequest{}, http.StatusNotFound},
		{"unknown policy", "/v1/restaurants/r1/policies/nope/apply", evaluateRequest{}, http.StatusNotFound},
		{"bad menu path", "/v1/restaurants/r1/evaluate", evaluateRequest{Cart: domain.Cart{Items: []domain.CartItem{
			{ID: 1, Item: domain.Item{Path: []string{"ghost"}}, Quantity: 1},
		}}}, http.StatusBadRequest},
		{"unknown cart", "/v1/carts/nope/items", addItemRequest{Item: burger}, http.StatusNotFound},
		{"unknown pass", "/v1/passes/missing/redeem", redeemRequest{UserID: "u1"}, http.StatusNotFound},
		{"zero quantity", "/v1/restaurants/r1/evaluate", evaluateRequest{Cart: domain.Cart{Items: []domain.CartItem{
			{ID: 1, Item: burger, Quantity: 0},
		}}}, http.StatusBadRequest},
		{"duplicate item id", "/v1/restaurants/r1/policies/ten-off/apply", evaluateRequest{Cart: domain.Cart{Items: []domain.CartItem{
			{ID: 1, Item: burger, Quantity: 1},
			{ID: 1, Item: soda, Quantity: 1},
		}}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+tt.url, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHandler_ApplyUsesRequestUser(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		userID    string
		wantItems int
	}{
		{"", 0},
		{"guest", 0},
		{"member", 1},
	}
	for _, tt := range tests {
		resp := postJSON(t, srv.URL+"/v1/restaurants/r1/policies/members/apply", evaluateRequest{UserID: tt.userID, Cart: twoBurgers()})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("user %q: status = %d", tt.userID, resp.StatusCode)
		}
		var effect domain.DealEffectPayload
		if err := json.NewDecoder(resp.Body).Decode(&effect); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(effect.ModifiedItems) != tt.wantItems {
			t.Errorf("user %q: modified items = %d, want %d", tt.userID, len(effect.ModifiedItems), tt.wantItems)
		}
	}
}

func TestHandler_VerifyBreakerOpen(t *testing.T) {
	srv, f := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/carts", createCartRequest{RestaurantID: "r1", UserID: "u1"})
	var c domain.Cart
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, err := range []error{gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests} {
		f.verifier.err = err
		resp = postJSON(t, srv.URL+"/v1/carts/"+c.ID+"/verify", verifyRequest{})
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("%v: status = %d, want 502", err, resp.StatusCode)
		}
	}
}

func TestHandler_CartFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/carts", createCartRequest{RestaurantID: "r1", UserID: "u1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var c domain.Cart
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = postJSON(t, srv.URL+"/v1/carts/"+c.ID+"/items", addItemRequest{Item: burger, Quantity: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/v1/carts/"+c.ID+"/items/abc", bytes.NewReader([]byte(`{"quantity":1}`)))
	patch, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH: %v", err)
	}
	patch.Body.Close()
	if patch.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric item id: status = %d, want 400", patch.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/v1/carts/"+c.ID+"/verify", verifyRequest{PolicyIDs: []string{"ten-off"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", resp.StatusCode)
	}

	get, err := http.Get(srv.URL + "/v1/carts/" + c.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer get.Body.Close()
	var stored domain.Cart
	if err := json.NewDecoder(get.Body).Decode(&stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stored.Items) != 1 || stored.Items[0].Quantity != 2 {
		t.Errorf("unexpected stored cart: %+v", stored)
	}
}

func TestHandler_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/v1/restaurants/r1/evaluate", evaluateRequest{Cart: twoBurgers()})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
