package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	"github.com/paintcoffee/pos-backend/internal/app/storage/memory"
)

var seedSeq int

func seedInvoice(t *testing.T, store *memory.Store, status invoice.Status, total float64, date time.Time) {
	t.Helper()
	seedSeq++
	_, err := store.CreateInvoice(context.Background(), invoice.Invoice{
		InvoiceID: fmt.Sprintf("INV-%06d", seedSeq),
		Date:      date,
		Status:    status,
		Items:     []invoice.LineItem{{Name: "Latte", Quantity: 2, Price: total / 2, Total: total}},
		Subtotal:  total,
		Total:     total,
	})
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func seedMenuItem(t *testing.T, store *memory.Store, name string, active bool) {
	t.Helper()
	_, err := store.CreateMenuItem(context.Background(), menu.Item{Name: name, OriginalPrice: 2.5, IsActive: active})
	if err != nil {
		t.Fatalf("seed menu item: %v", err)
	}
}

func seedUser(t *testing.T, store *memory.Store, username string) {
	t.Helper()
	_, err := store.CreateUser(context.Background(), user.User{Username: username, PINHash: "x", Role: user.RoleStaff})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestStats(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedInvoice(t, store, invoice.StatusPaid, 10, now.Add(-2*time.Hour))
	seedInvoice(t, store, invoice.StatusPaid, 20, now.Add(-1*time.Hour))
	seedInvoice(t, store, invoice.StatusPending, 5, now.Add(-30*time.Minute))
	seedInvoice(t, store, invoice.StatusCancelled, 50, now.Add(-10*time.Minute))
	seedInvoice(t, store, invoice.StatusPaid, 100, now.Add(-30*time.Hour)) // yesterday

	seedMenuItem(t, store, "Latte", true)
	seedMenuItem(t, store, "Mocha", true)
	seedMenuItem(t, store, "Retired", false)
	seedUser(t, store, "alice")
	seedUser(t, store, "bob")

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalInvoices != 5 || stats.TodayInvoices != 4 {
		t.Fatalf("unexpected invoice counts %+v", stats)
	}
	if stats.TotalRevenue != 130 {
		t.Fatalf("total revenue = %v, want 130 (paid only)", stats.TotalRevenue)
	}
	if stats.TodayRevenue != 30 {
		t.Fatalf("today revenue = %v, want 30", stats.TodayRevenue)
	}
	if stats.ActiveMenuItems != 2 {
		t.Fatalf("active items = %d, want 2", stats.ActiveMenuItems)
	}
	if stats.Users != 2 {
		t.Fatalf("users = %d, want 2", stats.Users)
	}
}

func TestDashboard(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedInvoice(t, store, invoice.StatusPaid, 12, now.Add(-2*time.Hour))
	seedInvoice(t, store, invoice.StatusPending, 8, now.Add(-1*time.Hour))
	seedInvoice(t, store, invoice.StatusPaid, 100, now.Add(-30*time.Hour))      // yesterday
	seedInvoice(t, store, invoice.StatusCancelled, 40, now.Add(-31*time.Hour))  // yesterday, cancelled
	seedInvoice(t, store, invoice.StatusPaid, 7, now.Add(-72*time.Hour))        // older

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.YesterdayInvoices != 2 || dash.YesterdayRevenue != 100 {
		t.Fatalf("unexpected yesterday figures %+v", dash)
	}
	if dash.PendingCount != 1 {
		t.Fatalf("pending = %d, want 1", dash.PendingCount)
	}
	if len(dash.RecentOrders) != 5 {
		t.Fatalf("recent orders = %d, want 5", len(dash.RecentOrders))
	}
	if !dash.RecentOrders[0].Date.After(dash.RecentOrders[1].Date) {
		t.Fatal("recent orders must come newest first")
	}
}

func TestDashboardCapsRecentOrders(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		seedInvoice(t, store, invoice.StatusPaid, float64(i+1), base.Add(time.Duration(i)*time.Hour))
	}

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(dash.RecentOrders) != 5 {
		t.Fatalf("recent orders = %d, want 5", len(dash.RecentOrders))
	}
}

func TestRecentOrdersLimit(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedInvoice(t, store, invoice.StatusPaid, float64(i+1), base.Add(time.Duration(i)*time.Hour))
	}

	recent, err := svc.RecentOrders(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len = %d, want 3", len(recent))
	}
	if !recent[0].Date.After(recent[1].Date) {
		t.Fatal("recent orders must come newest first")
	}
}
