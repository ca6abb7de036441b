package storage

import (
	"context"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/domain/category"
	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
)

// MenuStore persists menu items.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, item menu.Item) (menu.Item, error)
	UpdateMenuItem(ctx context.Context, item menu.Item) (menu.Item, error)
	GetMenuItem(ctx context.Context, id string) (menu.Item, error)
	ListMenuItems(ctx context.Context, activeOnly bool) ([]menu.Item, error)
	DeleteMenuItem(ctx context.Context, id string) error
	CountMenuItemsInCategory(ctx context.Context, categoryName string) (int, error)
}

// CategoryStore persists menu categories. Name lookups are case-insensitive.
type CategoryStore interface {
	CreateCategory(ctx context.Context, cat category.Category) (category.Category, error)
	GetCategory(ctx context.Context, id string) (category.Category, error)
	GetCategoryByName(ctx context.Context, name string) (category.Category, error)
	ListCategories(ctx context.Context) ([]category.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// InvoiceStore persists invoices. Records resolve both by their record
// identifier and by the human-readable invoice number.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	GetInvoice(ctx context.Context, id string) (invoice.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, invoiceID string) (invoice.Invoice, error)
	ListInvoices(ctx context.Context) ([]invoice.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
}

// UserStore persists operator accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SettingsStore persists the settings singleton. The exchange-rate fields are
// only reachable through the two transition operations so a concurrent admin
// edit and a scheduler sweep cannot lose each other's writes.
type SettingsStore interface {
	// GetSettings returns the singleton, or defaults when none was saved yet.
	GetSettings(ctx context.Context) (settings.Settings, error)
	// UpdateSettings upserts the profile fields. The exchange-rate fields
	// (active, pending, effective-at) are left untouched on an existing
	// record; a fresh record is created with the default rate.
	UpdateSettings(ctx context.Context, s settings.Settings) (settings.Settings, error)
	// ScheduleRate atomically sets the pending pair without touching the
	// active rate.
	ScheduleRate(ctx context.Context, rate float64, effectiveAt time.Time) (settings.Settings, error)
	// PromoteDueRate atomically applies a pending rate whose effective time
	// has passed and clears the pending pair. The bool reports whether a
	// promotion happened; reapplying an already-cleared promotion is a no-op.
	PromoteDueRate(ctx context.Context, now time.Time) (settings.Settings, bool, error)
}

// CounterStore provides named monotonic counters. NextCounterValue must be an
// atomic increment-and-read; two concurrent callers never observe the same
// value.
type CounterStore interface {
	NextCounterValue(ctx context.Context, name string) (int64, error)
}
