package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/paintcoffee/pos-backend/internal/app"
	"github.com/paintcoffee/pos-backend/internal/app/auth"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	application, err := app.New(app.Stores{}, app.Options{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Seed(context.Background(), "admin", "9999"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewHandler(application, auth.NewTokenManager("test-secret", time.Hour))
}

func marshal(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func adminRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, marshal(t, body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("x-user-role", "admin")
	return req
}

func decode(t *testing.T, body *bytes.Buffer, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal response: %v\n%s", err, body.String())
	}
}

func TestOrderFlow(t *testing.T) {
	handler := newTestHandler(t)

	// Seed a category and a menu item through the admin surface.
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodPost, "/api/admin/categories", map[string]any{"name": "Coffee"}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodPost, "/api/admin/menu", map[string]any{
		"name":          "Latte",
		"originalPrice": 2.5,
		"categories":    []string{"Coffee"},
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create menu item: %d %s", resp.Code, resp.Body.String())
	}

	// The public menu shows the item without any credentials.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("list menu: %d", resp.Code)
	}
	var items []map[string]any
	decode(t, resp.Body, &items)
	if len(items) != 1 || items[0]["name"] != "Latte" {
		t.Fatalf("unexpected menu: %v", items)
	}

	// Ring up an order.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/invoices", marshal(t, map[string]any{
		"table": "3",
		"items": []map[string]any{{"name": "Latte", "quantity": 2, "price": 2.5}},
	})))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", resp.Code, resp.Body.String())
	}
	var inv map[string]any
	decode(t, resp.Body, &inv)
	if inv["invoiceId"] != "INV-000001" {
		t.Fatalf("invoiceId = %v", inv["invoiceId"])
	}
	if inv["total"].(float64) != 5.0 {
		t.Fatalf("total = %v", inv["total"])
	}

	// Lookup works by the human-readable number too.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/invoices/INV-000001", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("get by number: %d", resp.Code)
	}
}

func TestTwoStageDeleteOverHTTP(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/invoices", marshal(t, map[string]any{
		"items": []map[string]any{{"name": "Latte", "quantity": 1, "price": 2.5}},
	})))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", resp.Code, resp.Body.String())
	}
	var inv map[string]any
	decode(t, resp.Body, &inv)
	ref := inv["invoiceId"].(string)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/invoices/"+ref, nil))
	var result map[string]string
	decode(t, resp.Body, &result)
	if result["result"] != "soft" {
		t.Fatalf("first delete result = %q, want soft", result["result"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/invoices/"+ref, nil))
	decode(t, resp.Body, &result)
	if result["result"] != "hard" {
		t.Fatalf("second delete result = %q, want hard", result["result"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/invoices/"+ref, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("purged invoice should 404, got %d", resp.Code)
	}
}

func TestAdminSurfaceGuard(t *testing.T) {
	handler := newTestHandler(t)

	// No identity at all.
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("anonymous admin access: %d, want 403", resp.Code)
	}

	// Header marker.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/users", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("header marker: %d, want 200", resp.Code)
	}

	// Query marker.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/users?user_role=admin", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("query marker: %d, want 200", resp.Code)
	}

	// Body marker.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/categories", marshal(t, map[string]any{
		"name": "Tea",
		"user": map[string]any{"role": "admin"},
	}))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("body marker: %d %s, want 201", resp.Code, resp.Body.String())
	}

	// A non-admin marker stays locked out.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("x-user-role", "cashier")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("cashier marker: %d, want 403", resp.Code)
	}
}

func TestHeaderMarkerBeatsQueryMarker(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?user_role=admin", nil)
	req.Header.Set("x-user-role", "staff")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("header must take precedence over query: %d, want 403", resp.Code)
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/login", marshal(t, map[string]any{
		"username": "admin",
		"pin":      "9999",
	})))
	if resp.Code != http.StatusOK {
		t.Fatalf("login: %d %s", resp.Code, resp.Body.String())
	}
	var login struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, resp.Body, &login)
	if login.Token == "" {
		t.Fatal("missing token")
	}
	if _, leaked := login.User["pinHash"]; leaked {
		t.Fatal("login response must not carry the pin hash")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("token-authenticated admin access: %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/login", marshal(t, map[string]any{
		"username": "admin",
		"pin":      "0000",
	})))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: %d, want 401", resp.Code)
	}
}

func TestSettingsRateDeferredOverHTTP(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodPut, "/api/admin/settings", map[string]any{
		"storeName":    "Paint Coffee",
		"exchangeRate": 4100,
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("update settings: %d %s", resp.Code, resp.Body.String())
	}
	var got map[string]any
	decode(t, resp.Body, &got)
	if got["exchangeRate"].(float64) != 4000 {
		t.Fatalf("active rate changed immediately: %v", got["exchangeRate"])
	}
	if got["pendingExchangeRate"].(float64) != 4100 {
		t.Fatalf("pending rate = %v, want 4100", got["pendingExchangeRate"])
	}
}

func TestPublicSettingsHidePendingRate(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodPut, "/api/admin/settings", map[string]any{
		"storeName":    "Paint Coffee",
		"exchangeRate": 4100,
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("update settings: %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("public settings: %d", resp.Code)
	}
	var got map[string]any
	decode(t, resp.Body, &got)
	if _, present := got["pendingExchangeRate"]; present {
		t.Fatal("public settings must not expose the pending rate")
	}
	if _, present := got["rateEffectiveAt"]; present {
		t.Fatal("public settings must not expose the activation time")
	}
}

func TestPublicCatalogSurface(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodPost, "/api/admin/categories", map[string]any{"name": "Coffee"}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", resp.Code, resp.Body.String())
	}

	for _, item := range []map[string]any{
		{"name": "Latte", "originalPrice": 2.5, "categories": []string{"Coffee"}},
		{"name": "Retired", "originalPrice": 3.0, "isActive": false},
	} {
		resp = httptest.NewRecorder()
		handler.ServeHTTP(resp, adminRequest(t, http.MethodPost, "/api/admin/menu", item))
		if resp.Code != http.StatusCreated {
			t.Fatalf("create menu item: %d %s", resp.Code, resp.Body.String())
		}
	}

	// The public category listing is names only.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	var names []string
	decode(t, resp.Body, &names)
	if len(names) != 1 || names[0] != "Coffee" {
		t.Fatalf("category names = %v", names)
	}

	// Category filter matches case-insensitively.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/menu/category/coffee", nil))
	var items []map[string]any
	decode(t, resp.Body, &items)
	if len(items) != 1 || items[0]["name"] != "Latte" {
		t.Fatalf("category filter: %v", items)
	}

	// Inactive items resolve for admins but not on the public surface.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/menu", nil))
	var all []map[string]any
	decode(t, resp.Body, &all)
	var retiredID string
	for _, item := range all {
		if item["name"] == "Retired" {
			retiredID = item["id"].(string)
		}
	}
	if retiredID == "" {
		t.Fatalf("retired item missing from admin listing: %v", all)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/menu/"+retiredID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("inactive item on public surface: %d, want 404", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/menu/"+retiredID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("inactive item on admin surface: %d, want 200", resp.Code)
	}
}

func TestUsersSurface(t *testing.T) {
	handler := newTestHandler(t)

	// The login alias works without credentials.
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/users/login", marshal(t, map[string]any{
		"username": "admin",
		"pin":      "9999",
	})))
	if resp.Code != http.StatusOK {
		t.Fatalf("users login: %d %s", resp.Code, resp.Body.String())
	}

	// Listing operators requires an admin.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("anonymous user listing: %d, want 403", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/users", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("admin user listing: %d", resp.Code)
	}
}

func TestAdminReports(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/invoices", marshal(t, map[string]any{
		"status": "paid",
		"items":  []map[string]any{{"name": "Latte", "quantity": 2, "price": 2.5}},
	})))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("anonymous stats: %d, want 403", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/stats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("stats: %d", resp.Code)
	}
	var stats map[string]any
	decode(t, resp.Body, &stats)
	if stats["totalRevenue"].(float64) != 5.0 {
		t.Fatalf("total revenue = %v, want 5", stats["totalRevenue"])
	}
	if stats["users"].(float64) != 1 {
		t.Fatalf("users = %v, want 1", stats["users"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/dashboard", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", resp.Code)
	}
	var dash map[string]any
	decode(t, resp.Body, &dash)
	if recent := dash["recentOrders"].([]any); len(recent) != 1 {
		t.Fatalf("recent orders = %d, want 1", len(recent))
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, adminRequest(t, http.MethodGet, "/api/admin/orders/recent?limit=1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("recent orders: %d", resp.Code)
	}
}

func TestDebugReportsStoreCounts(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/debug", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("debug: %d", resp.Code)
	}
	var info struct {
		Counts struct {
			Users int `json:"users"`
		} `json:"counts"`
	}
	decode(t, resp.Body, &info)
	if info.Counts.Users != 1 {
		t.Fatalf("user count = %d, want 1 (seed admin)", info.Counts.Users)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health: %d", resp.Code)
	}
}
