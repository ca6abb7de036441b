package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/domain/category"
	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu               sync.RWMutex
	nextID           int64
	menuItems        map[string]menu.Item
	categories       map[string]category.Category
	invoices         map[string]invoice.Invoice
	invoicesByNumber map[string]string
	users            map[string]user.User
	usersByName      map[string]string
	settings         *settings.Settings
	counters         map[string]int64
}

var _ storage.MenuStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.InvoiceStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)
var _ storage.CounterStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:           1,
		menuItems:        make(map[string]menu.Item),
		categories:       make(map[string]category.Category),
		invoices:         make(map[string]invoice.Invoice),
		invoicesByNumber: make(map[string]string),
		users:            make(map[string]user.User),
		usersByName:      make(map[string]string),
		counters:         make(map[string]int64),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// MenuStore implementation ----------------------------------------------------

func (s *Store) CreateMenuItem(_ context.Context, item menu.Item) (menu.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = s.nextIDLocked()
	} else if _, exists := s.menuItems[item.ID]; exists {
		return menu.Item{}, apperr.Conflict("menu item %s already exists", item.ID)
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Categories = append([]string(nil), item.Categories...)

	s.menuItems[item.ID] = item
	return cloneMenuItem(item), nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item menu.Item) (menu.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.menuItems[item.ID]
	if !ok {
		return menu.Item{}, apperr.NotFound("menu item %s not found", item.ID)
	}

	item.CreatedAt = original.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	item.Categories = append([]string(nil), item.Categories...)

	s.menuItems[item.ID] = item
	return cloneMenuItem(item), nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.menuItems[id]
	if !ok {
		return menu.Item{}, apperr.NotFound("menu item %s not found", id)
	}
	return cloneMenuItem(item), nil
}

func (s *Store) ListMenuItems(_ context.Context, activeOnly bool) ([]menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]menu.Item, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		if activeOnly && !item.IsActive {
			continue
		}
		result = append(result, cloneMenuItem(item))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menuItems[id]; !ok {
		return apperr.NotFound("menu item %s not found", id)
	}
	delete(s.menuItems, id)
	return nil
}

func (s *Store) CountMenuItemsInCategory(_ context.Context, categoryName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.menuItems {
		if item.InCategory(categoryName) {
			count++
		}
	}
	return count, nil
}

// CategoryStore implementation ------------------------------------------------

func (s *Store) CreateCategory(_ context.Context, cat category.Category) (category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, cat.Name) {
			return category.Category{}, apperr.Conflict("category %q already exists", existing.Name)
		}
	}

	if cat.ID == "" {
		cat.ID = s.nextIDLocked()
	} else if _, exists := s.categories[cat.ID]; exists {
		return category.Category{}, apperr.Conflict("category %s already exists", cat.ID)
	}

	cat.CreatedAt = time.Now().UTC()
	s.categories[cat.ID] = cat
	return cat, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.categories[id]
	if !ok {
		return category.Category{}, apperr.NotFound("category %s not found", id)
	}
	return cat, nil
}

func (s *Store) GetCategoryByName(_ context.Context, name string) (category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cat := range s.categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, nil
		}
	}
	return category.Category{}, apperr.NotFound("category %q not found", name)
}

func (s *Store) ListCategories(_ context.Context) ([]category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]category.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		result = append(result, cat)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return apperr.NotFound("category %s not found", id)
	}
	delete(s.categories, id)
	return nil
}

// InvoiceStore implementation -------------------------------------------------

func (s *Store) CreateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = s.nextIDLocked()
	} else if _, exists := s.invoices[inv.ID]; exists {
		return invoice.Invoice{}, apperr.Conflict("invoice %s already exists", inv.ID)
	}
	if inv.InvoiceID != "" {
		if _, exists := s.invoicesByNumber[inv.InvoiceID]; exists {
			return invoice.Invoice{}, apperr.Conflict("invoice number %s already exists", inv.InvoiceID)
		}
	}

	inv.Items = append([]invoice.LineItem(nil), inv.Items...)
	s.invoices[inv.ID] = inv
	if inv.InvoiceID != "" {
		s.invoicesByNumber[inv.InvoiceID] = inv.ID
	}
	return cloneInvoice(inv), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.invoices[inv.ID]
	if !ok {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", inv.ID)
	}

	inv.InvoiceID = original.InvoiceID
	inv.Date = original.Date
	inv.Items = append([]invoice.LineItem(nil), inv.Items...)

	s.invoices[inv.ID] = inv
	return cloneInvoice(inv), nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", id)
	}
	return cloneInvoice(inv), nil
}

func (s *Store) GetInvoiceByNumber(_ context.Context, invoiceID string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.invoicesByNumber[invoiceID]
	if !ok {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", invoiceID)
	}
	return cloneInvoice(s.invoices[id]), nil
}

func (s *Store) ListInvoices(_ context.Context) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]invoice.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		result = append(result, cloneInvoice(inv))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return apperr.NotFound("invoice %s not found", id)
	}
	delete(s.invoices, id)
	delete(s.invoicesByNumber, inv.InvoiceID)
	return nil
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(strings.TrimSpace(u.Username))
	if nameKey == "" {
		return user.User{}, apperr.Validation("username is required")
	}
	if _, exists := s.usersByName[nameKey]; exists {
		return user.User{}, apperr.Conflict("username %q already exists", u.Username)
	}

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, apperr.Conflict("user %s already exists", u.ID)
	}

	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	s.usersByName[nameKey] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, apperr.NotFound("user %s not found", u.ID)
	}

	oldKey := strings.ToLower(original.Username)
	newKey := strings.ToLower(strings.TrimSpace(u.Username))
	if newKey != oldKey {
		if _, exists := s.usersByName[newKey]; exists {
			return user.User{}, apperr.Conflict("username %q already exists", u.Username)
		}
		delete(s.usersByName, oldKey)
		s.usersByName[newKey] = u.ID
	}

	u.CreatedAt = original.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, apperr.NotFound("user %s not found", id)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return user.User{}, apperr.NotFound("user %q not found", username)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user %s not found", id)
	}
	delete(s.users, id)
	delete(s.usersByName, strings.ToLower(u.Username))
	return nil
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return settings.Default(), nil
	}
	return cloneSettings(*s.settings), nil
}

func (s *Store) UpdateSettings(_ context.Context, in settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := settings.Default()
	if s.settings != nil {
		current = *s.settings
	}

	// Profile fields only; the rate fields stay under transition control.
	current.StoreName = in.StoreName
	current.Address = in.Address
	current.Phone = in.Phone
	current.WifiPassword = in.WifiPassword
	current.ReceiptHeader = in.ReceiptHeader
	current.ReceiptFooter = in.ReceiptFooter
	current.ReceiptLogo = in.ReceiptLogo
	current.Currency = in.Currency
	current.TaxRate = in.TaxRate
	current.UpdatedAt = time.Now().UTC()

	s.settings = &current
	return cloneSettings(current), nil
}

func (s *Store) ScheduleRate(_ context.Context, rate float64, effectiveAt time.Time) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := settings.Default()
	if s.settings != nil {
		current = *s.settings
	}

	current.PendingExchangeRate = &rate
	current.RateEffectiveAt = &effectiveAt
	current.UpdatedAt = time.Now().UTC()

	s.settings = &current
	return cloneSettings(current), nil
}

func (s *Store) PromoteDueRate(_ context.Context, now time.Time) (settings.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil || !s.settings.PendingDue(now) {
		if s.settings == nil {
			return settings.Default(), false, nil
		}
		return cloneSettings(*s.settings), false, nil
	}

	current := *s.settings
	current.ExchangeRate = *current.PendingExchangeRate
	current.PendingExchangeRate = nil
	current.RateEffectiveAt = nil
	current.UpdatedAt = time.Now().UTC()

	s.settings = &current
	return cloneSettings(current), true, nil
}

// CounterStore implementation -------------------------------------------------

func (s *Store) NextCounterValue(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name]++
	return s.counters[name], nil
}

// Helpers ---------------------------------------------------------------------

func cloneMenuItem(item menu.Item) menu.Item {
	item.Categories = append([]string(nil), item.Categories...)
	if item.PromoPrice != nil {
		price := *item.PromoPrice
		item.PromoPrice = &price
	}
	return item
}

func cloneInvoice(inv invoice.Invoice) invoice.Invoice {
	inv.Items = append([]invoice.LineItem(nil), inv.Items...)
	if inv.LastModifiedAt != nil {
		at := *inv.LastModifiedAt
		inv.LastModifiedAt = &at
	}
	return inv
}

func cloneSettings(s settings.Settings) settings.Settings {
	if s.PendingExchangeRate != nil {
		rate := *s.PendingExchangeRate
		s.PendingExchangeRate = &rate
	}
	if s.RateEffectiveAt != nil {
		at := *s.RateEffectiveAt
		s.RateEffectiveAt = &at
	}
	return s
}
