// Package reports derives sales figures from the invoice history. Cancelled
// invoices never count toward revenue.
package reports

import (
	"context"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Service computes reporting figures.
type Service struct {
	invoices storage.InvoiceStore
	menus    storage.MenuStore
	users    storage.UserStore
	log      *logger.Logger
	now      func() time.Time
}

// New creates a reports service.
func New(invoices storage.InvoiceStore, menus storage.MenuStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{invoices: invoices, menus: menus, users: users, log: log, now: time.Now}
}

// Stats summarizes the catalog and the invoice history. Revenue counts paid
// invoices only.
type Stats struct {
	TotalInvoices   int     `json:"totalInvoices"`
	TodayInvoices   int     `json:"todayInvoices"`
	ActiveMenuItems int     `json:"activeMenuItems"`
	Users           int     `json:"users"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TodayRevenue    float64 `json:"todayRevenue"`
}

// Dashboard is the admin landing view: the stats plus yesterday's figures,
// the open order count, and the latest orders.
type Dashboard struct {
	Stats             Stats             `json:"stats"`
	YesterdayInvoices int               `json:"yesterdayInvoices"`
	YesterdayRevenue  float64           `json:"yesterdayRevenue"`
	PendingCount      int               `json:"pendingCount"`
	RecentOrders      []invoice.Invoice `json:"recentOrders"`
}

func dayStart(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Stats computes the summary figures.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.invoices.ListInvoices(ctx)
	if err != nil {
		return Stats{}, err
	}
	activeItems, err := s.menus.ListMenuItems(ctx, true)
	if err != nil {
		return Stats{}, err
	}
	operators, err := s.users.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}

	today := dayStart(s.now())
	stats := Stats{
		TotalInvoices:   len(all),
		ActiveMenuItems: len(activeItems),
		Users:           len(operators),
	}
	for _, inv := range all {
		isToday := !inv.Date.Before(today)
		if isToday {
			stats.TodayInvoices++
		}
		if inv.Status == invoice.StatusPaid {
			stats.TotalRevenue += inv.Total
			if isToday {
				stats.TodayRevenue += inv.Total
			}
		}
	}
	return stats, nil
}

// Dashboard computes the admin landing view.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	all, err := s.invoices.ListInvoices(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	today := dayStart(s.now())
	yesterday := today.AddDate(0, 0, -1)

	dash := Dashboard{Stats: stats}
	for _, inv := range all {
		if inv.Status == invoice.StatusPending {
			dash.PendingCount++
		}
		if !inv.Date.Before(yesterday) && inv.Date.Before(today) {
			dash.YesterdayInvoices++
			if inv.Status == invoice.StatusPaid {
				dash.YesterdayRevenue += inv.Total
			}
		}
	}

	dash.RecentOrders = all
	if len(dash.RecentOrders) > 5 {
		dash.RecentOrders = dash.RecentOrders[:5]
	}
	return dash, nil
}

// RecentOrders returns the newest invoices, at most limit of them.
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]invoice.Invoice, error) {
	if limit <= 0 {
		limit = 10
	}

	all, err := s.invoices.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
