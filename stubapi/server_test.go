package stubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopfront/apiclient"
	"shopfront/auth"
	"shopfront/catalog"
	"shopfront/obs"
	"shopfront/state"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	obs.Discard()
	svc := auth.NewService(auth.NewMemoryRepository(), "test-secret")
	if err := svc.Seed(context.Background(), SeedAccounts()...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := NewServer(Options{Auth: svc})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, apiclient.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env apiclient.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func login(t *testing.T, ts *httptest.Server, email, password string) loginData {
	t.Helper()
	status, env := do(t, ts, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{Email: email, Password: password})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("login %s: status %d %+v", email, status, env)
	}
	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return data
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)

	data := login(t, ts, "student@shopfront.test", "student-pass")
	if data.Token == "" || data.UserType != auth.RoleStudent || data.Name != "Sam Student" {
		t.Fatalf("unexpected login data %+v", data)
	}

	status, env := do(t, ts, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{Email: "student@shopfront.test", Password: "nope-nope"})
	if status != http.StatusUnauthorized || env.Success || env.Message != "Invalid email or password" {
		t.Fatalf("expected 401 envelope, got %d %+v", status, env)
	}

	status, _ = do(t, ts, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty credentials, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, "student@shopfront.test", "student-pass").Token

	if status, _ := do(t, ts, http.MethodGet, "/api/student/profile", token, nil); status != http.StatusOK {
		t.Fatalf("profile before logout: %d", status)
	}
	status, env := do(t, ts, http.MethodGet, "/api/auth/validate", token, nil)
	if status != http.StatusOK || string(env.Data) != "true" {
		t.Fatalf("validate before logout: %d %s", status, env.Data)
	}

	if status, env := do(t, ts, http.MethodPost, "/api/auth/logout", token, nil); status != http.StatusOK || !env.Success {
		t.Fatalf("logout: %d %+v", status, env)
	}

	if status, _ := do(t, ts, http.MethodGet, "/api/student/profile", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("profile after logout: expected 401, got %d", status)
	}
	_, env = do(t, ts, http.MethodGet, "/api/auth/validate", token, nil)
	if string(env.Data) != "false" {
		t.Fatalf("validate after logout: %s", env.Data)
	}
	if status, _ := do(t, ts, http.MethodPost, "/api/auth/logout", "", nil); status != http.StatusBadRequest {
		t.Fatalf("logout without header: expected 400, got %d", status)
	}
}

func TestRoleGates(t *testing.T) {
	_, ts := newTestServer(t)
	admin := login(t, ts, "admin@shopfront.test", "admin-pass").Token
	student := login(t, ts, "student@shopfront.test", "student-pass").Token

	cases := []struct {
		path   string
		token  string
		status int
	}{
		{"/api/student/profile", "", http.StatusUnauthorized},
		{"/api/student/profile", "garbage", http.StatusUnauthorized},
		{"/api/student/profile", admin, http.StatusForbidden},
		{"/api/student/profile", student, http.StatusOK},
		{"/api/admin/orders", student, http.StatusForbidden},
		{"/api/admin/orders", admin, http.StatusOK},
	}
	for _, tc := range cases {
		if status, _ := do(t, ts, http.MethodGet, tc.path, tc.token, nil); status != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.path, tc.status, status)
		}
	}
}

func TestProductsAndCategories(t *testing.T) {
	_, ts := newTestServer(t)

	_, env := do(t, ts, http.MethodGet, "/api/public/products", "", nil)
	var all []catalog.Product
	if err := json.Unmarshal(env.Data, &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 active in-stock products, got %d", len(all))
	}

	_, env = do(t, ts, http.MethodGet, "/api/public/products?onSale=true", "", nil)
	var sale []catalog.Product
	_ = json.Unmarshal(env.Data, &sale)
	if len(sale) != 1 || sale[0].EffectivePrice() != 12 {
		t.Fatalf("unexpected sale listing %+v", sale)
	}

	_, env = do(t, ts, http.MethodGet, "/api/public/products?category=PRINT", "", nil)
	var prints []catalog.Product
	_ = json.Unmarshal(env.Data, &prints)
	if len(prints) != 1 || prints[0].Name != "Linocut Print" {
		t.Fatalf("unexpected category listing %+v", prints)
	}

	if status, env := do(t, ts, http.MethodGet, "/api/public/products/999", "", nil); status != http.StatusNotFound || env.Message != "Product not found: 999" {
		t.Fatalf("expected 404, got %d %+v", status, env)
	}

	_, env = do(t, ts, http.MethodGet, "/api/public/categories", "", nil)
	var cats []string
	_ = json.Unmarshal(env.Data, &cats)
	if len(cats) != 6 || cats[0] != "Art" {
		t.Fatalf("unexpected categories %v", cats)
	}
}

func TestPlaceAndTrackOrders(t *testing.T) {
	srv, ts := newTestServer(t)
	customer := catalog.Customer{Name: "Ann", Email: "ann@example.com", Phone: "555", Address: "1 Main St"}

	req := catalog.CheckoutRequest{Customer: customer, CartItems: []state.CartItem{{ProductID: "3", Quantity: 2}, {ProductID: "4", Quantity: 3}}}
	status, env := do(t, ts, http.MethodPost, "/api/public/orders", "", req)
	if status != http.StatusCreated || env.Message != "Order placed successfully" {
		t.Fatalf("place order: %d %+v", status, env)
	}
	var order catalog.Order
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.TotalAmount != 2*12+3*40 || order.Status != catalog.StatusPending || order.Reference == "" {
		t.Fatalf("unexpected order %+v", order)
	}

	scarf, _ := srv.Inventory().Get("4")
	if scarf.Quantity != 0 || scarf.Active {
		t.Fatalf("expected sold out scarf to be deactivated, got %+v", scarf)
	}

	_, env = do(t, ts, http.MethodGet, "/api/public/products?bestSeller=true", "", nil)
	var best []catalog.Product
	_ = json.Unmarshal(env.Data, &best)
	if len(best) != 1 || best[0].ID != 3 {
		t.Fatalf("unexpected best sellers %+v", best)
	}

	over := catalog.CheckoutRequest{Customer: customer, CartItems: []state.CartItem{{ProductID: "1", Quantity: 10}, {ProductID: "1", Quantity: 10}}}
	status, env = do(t, ts, http.MethodPost, "/api/public/orders", "", over)
	if status != http.StatusBadRequest || env.Message != "Insufficient stock for Hand-thrown Mug. Available: 12" {
		t.Fatalf("expected stock failure, got %d %+v", status, env)
	}
	mug, _ := srv.Inventory().Get("1")
	if mug.Quantity != 12 {
		t.Fatalf("failed order must not take stock, got %d", mug.Quantity)
	}

	if status, _ := do(t, ts, http.MethodPost, "/api/public/orders", "", catalog.CheckoutRequest{Customer: customer}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", status)
	}

	_, env = do(t, ts, http.MethodGet, "/api/public/orders/track?email=ANN@example.com", "", nil)
	var tracked []catalog.Order
	_ = json.Unmarshal(env.Data, &tracked)
	if len(tracked) != 1 || tracked[0].ID != order.ID {
		t.Fatalf("unexpected tracked orders %+v", tracked)
	}
}

func TestNewProductsFilter(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	inv := NewInventory(clock,
		catalog.Product{Name: "old", Active: true, Quantity: 1, CreatedAt: "2026-02-01T00:00:00"},
		catalog.Product{Name: "fresh", Active: true, Quantity: 1},
	)
	got := inv.List(catalog.Filter{NewProducts: true})
	if len(got) != 1 || got[0].Name != "fresh" {
		t.Fatalf("unexpected new products %+v", got)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	_, ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/public/categories", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected request id echo, got %q", got)
	}
}
