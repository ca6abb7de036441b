//go:build integration && postgres

package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	app "github.com/paintcoffee/pos-backend/internal/app"
	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/storage/postgres"
)

// Integration test against Postgres to ensure migrations + core flows work
// with persistence.
func TestIntegrationPostgres(t *testing.T) {
	_ = godotenv.Load() // allow .env for local runs
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration")
	}

	ctx := context.Background()
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.DB().Close()

	application, err := app.New(app.Stores{
		Menu:       store,
		Categories: store,
		Invoices:   store,
		Users:      store,
		Settings:   store,
		Counters:   store,
	}, app.Options{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Seed(ctx, "admin", "9999"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	handler := NewHandler(application, auth.NewTokenManager("integration-secret", time.Hour))
	server := httptest.NewServer(handler)
	defer server.Close()
	client := server.Client()

	if resp, err := client.Get(server.URL + "/api/health"); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("health failed: %v", err)
	}

	// Invoice numbers must come from the persisted counter.
	resp, err := client.Post(server.URL+"/api/invoices", "application/json",
		marshal(t, map[string]any{"items": []map[string]any{{"name": "Latte", "quantity": 1, "price": 2.5}}}))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice status: %d", resp.StatusCode)
	}
}
