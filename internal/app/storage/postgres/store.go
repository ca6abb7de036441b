// Package postgres implements the storage interfaces on PostgreSQL. Counter
// increments and the settings rate transitions are single statements so their
// atomicity is delegated to the database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/paintcoffee/pos-backend/internal/app/domain/category"
	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.MenuStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.InvoiceStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)
var _ storage.CounterStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL, verifies the connection and applies pending
// migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, apperr.Dependency(err, "open database")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperr.Dependency(err, "ping database")
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, apperr.Dependency(err, "migrate database")
	}
	return New(db), nil
}

// DB exposes the underlying handle for lifecycle management.
func (s *Store) DB() *sqlx.DB { return s.db }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// --- MenuStore ---------------------------------------------------------------

type menuItemRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	OriginalPrice float64         `db:"original_price"`
	Categories    []byte          `db:"categories"`
	ItemType      string          `db:"item_type"`
	IsPromo       bool            `db:"is_promo"`
	PromoPrice    sql.NullFloat64 `db:"promo_price"`
	Badge         string          `db:"badge"`
	Image         string          `db:"image"`
	Description   string          `db:"description"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r menuItemRow) toDomain() menu.Item {
	item := menu.Item{
		ID:            r.ID,
		Name:          r.Name,
		OriginalPrice: r.OriginalPrice,
		Type:          r.ItemType,
		IsPromo:       r.IsPromo,
		Badge:         r.Badge,
		Image:         r.Image,
		Description:   r.Description,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if len(r.Categories) > 0 {
		_ = json.Unmarshal(r.Categories, &item.Categories)
	}
	if r.PromoPrice.Valid {
		price := r.PromoPrice.Float64
		item.PromoPrice = &price
	}
	return item
}

func (s *Store) CreateMenuItem(ctx context.Context, item menu.Item) (menu.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	categoriesJSON, err := json.Marshal(item.Categories)
	if err != nil {
		return menu.Item{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pos_menu_items
			(id, name, original_price, categories, item_type, is_promo, promo_price,
			 badge, image, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, item.ID, item.Name, item.OriginalPrice, categoriesJSON, item.Type, item.IsPromo,
		nullFloat(item.PromoPrice), item.Badge, item.Image, item.Description, item.IsActive,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return menu.Item{}, apperr.Conflict("menu item %s already exists", item.ID)
		}
		return menu.Item{}, apperr.Dependency(err, "create menu item")
	}
	return item, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item menu.Item) (menu.Item, error) {
	existing, err := s.GetMenuItem(ctx, item.ID)
	if err != nil {
		return menu.Item{}, err
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()

	categoriesJSON, err := json.Marshal(item.Categories)
	if err != nil {
		return menu.Item{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE pos_menu_items
		SET name = $2, original_price = $3, categories = $4, item_type = $5,
		    is_promo = $6, promo_price = $7, badge = $8, image = $9,
		    description = $10, is_active = $11, updated_at = $12
		WHERE id = $1
	`, item.ID, item.Name, item.OriginalPrice, categoriesJSON, item.Type, item.IsPromo,
		nullFloat(item.PromoPrice), item.Badge, item.Image, item.Description, item.IsActive,
		item.UpdatedAt)
	if err != nil {
		return menu.Item{}, apperr.Dependency(err, "update menu item")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return menu.Item{}, apperr.NotFound("menu item %s not found", item.ID)
	}
	return item, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (menu.Item, error) {
	var row menuItemRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, original_price, categories, item_type, is_promo, promo_price,
		       badge, image, description, is_active, created_at, updated_at
		FROM pos_menu_items
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return menu.Item{}, apperr.NotFound("menu item %s not found", id)
	}
	if err != nil {
		return menu.Item{}, apperr.Dependency(err, "get menu item")
	}
	return row.toDomain(), nil
}

func (s *Store) ListMenuItems(ctx context.Context, activeOnly bool) ([]menu.Item, error) {
	query := `
		SELECT id, name, original_price, categories, item_type, is_promo, promo_price,
		       badge, image, description, is_active, created_at, updated_at
		FROM pos_menu_items`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	var rows []menuItemRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperr.Dependency(err, "list menu items")
	}

	result := make([]menu.Item, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pos_menu_items WHERE id = $1`, id)
	if err != nil {
		return apperr.Dependency(err, "delete menu item")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("menu item %s not found", id)
	}
	return nil
}

func (s *Store) CountMenuItemsInCategory(ctx context.Context, categoryName string) (int, error) {
	nameJSON, err := json.Marshal([]string{categoryName})
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM pos_menu_items WHERE categories @> $1
	`, nameJSON)
	if err != nil {
		return 0, apperr.Dependency(err, "count menu items in category")
	}
	return count, nil
}

// --- CategoryStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	cat.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, cat.ID, cat.Name, cat.Description, cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.Category{}, apperr.Conflict("category %q already exists", cat.Name)
		}
		return category.Category{}, apperr.Dependency(err, "create category")
	}
	return cat, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (category.Category, error) {
	var cat category.Category
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, name, description, created_at FROM pos_categories WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return category.Category{}, apperr.NotFound("category %s not found", id)
	}
	if err != nil {
		return category.Category{}, apperr.Dependency(err, "get category")
	}
	return cat, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (category.Category, error) {
	var cat category.Category
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, name, description, created_at
		FROM pos_categories
		WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return category.Category{}, apperr.NotFound("category %q not found", name)
	}
	if err != nil {
		return category.Category{}, apperr.Dependency(err, "get category by name")
	}
	return cat, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]category.Category, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, name, description, created_at FROM pos_categories ORDER BY name
	`)
	if err != nil {
		return nil, apperr.Dependency(err, "list categories")
	}
	defer rows.Close()

	var result []category.Category
	for rows.Next() {
		var cat category.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt); err != nil {
			return nil, apperr.Dependency(err, "scan category")
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pos_categories WHERE id = $1`, id)
	if err != nil {
		return apperr.Dependency(err, "delete category")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("category %s not found", id)
	}
	return nil
}

// --- InvoiceStore ------------------------------------------------------------

type invoiceRow struct {
	ID             string          `db:"id"`
	InvoiceID      string          `db:"invoice_id"`
	Date           time.Time       `db:"invoice_date"`
	Table          string          `db:"table_id"`
	Status         string          `db:"status"`
	PaymentMethod  string          `db:"payment_method"`
	Items          []byte          `db:"items"`
	Subtotal       float64         `db:"subtotal"`
	Discount       float64         `db:"discount"`
	Total          float64         `db:"total"`
	ExchangeRate   float64         `db:"exchange_rate"`
	CreatedBy      string          `db:"created_by"`
	LastModifiedBy sql.NullString  `db:"last_modified_by"`
	LastModifiedAt sql.NullTime    `db:"last_modified_at"`
}

func (r invoiceRow) toDomain() invoice.Invoice {
	inv := invoice.Invoice{
		ID:            r.ID,
		InvoiceID:     r.InvoiceID,
		Date:          r.Date,
		Table:         r.Table,
		Status:        invoice.Status(r.Status),
		PaymentMethod: invoice.PaymentMethod(r.PaymentMethod),
		Subtotal:      r.Subtotal,
		Discount:      r.Discount,
		Total:         r.Total,
		ExchangeRate:  r.ExchangeRate,
		CreatedBy:     r.CreatedBy,
	}
	if len(r.Items) > 0 {
		_ = json.Unmarshal(r.Items, &inv.Items)
	}
	if r.LastModifiedBy.Valid {
		inv.LastModifiedBy = r.LastModifiedBy.String
	}
	if r.LastModifiedAt.Valid {
		at := r.LastModifiedAt.Time
		inv.LastModifiedAt = &at
	}
	return inv
}

const invoiceColumns = `id, invoice_id, invoice_date, table_id, status, payment_method,
	items, subtotal, discount, total, exchange_rate, created_by,
	last_modified_by, last_modified_at`

func (s *Store) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return invoice.Invoice{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pos_invoices
			(id, invoice_id, invoice_date, table_id, status, payment_method, items,
			 subtotal, discount, total, exchange_rate, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, inv.ID, inv.InvoiceID, inv.Date, inv.Table, string(inv.Status), string(inv.PaymentMethod),
		itemsJSON, inv.Subtotal, inv.Discount, inv.Total, inv.ExchangeRate, inv.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return invoice.Invoice{}, apperr.Conflict("invoice number %s already exists", inv.InvoiceID)
		}
		return invoice.Invoice{}, apperr.Dependency(err, "create invoice")
	}
	return inv, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return invoice.Invoice{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE pos_invoices
		SET table_id = $2, status = $3, payment_method = $4, items = $5,
		    subtotal = $6, discount = $7, total = $8, exchange_rate = $9,
		    last_modified_by = $10, last_modified_at = $11
		WHERE id = $1
	`, inv.ID, inv.Table, string(inv.Status), string(inv.PaymentMethod), itemsJSON,
		inv.Subtotal, inv.Discount, inv.Total, inv.ExchangeRate,
		nullString(inv.LastModifiedBy), nullTime(inv.LastModifiedAt))
	if err != nil {
		return invoice.Invoice{}, apperr.Dependency(err, "update invoice")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", inv.ID)
	}
	return inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	var row invoiceRow
	err := s.db.GetContext(ctx, &row, `SELECT `+invoiceColumns+` FROM pos_invoices WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", id)
	}
	if err != nil {
		return invoice.Invoice{}, apperr.Dependency(err, "get invoice")
	}
	return row.toDomain(), nil
}

func (s *Store) GetInvoiceByNumber(ctx context.Context, invoiceID string) (invoice.Invoice, error) {
	var row invoiceRow
	err := s.db.GetContext(ctx, &row, `SELECT `+invoiceColumns+` FROM pos_invoices WHERE invoice_id = $1`, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return invoice.Invoice{}, apperr.NotFound("invoice %s not found", invoiceID)
	}
	if err != nil {
		return invoice.Invoice{}, apperr.Dependency(err, "get invoice by number")
	}
	return row.toDomain(), nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]invoice.Invoice, error) {
	var rows []invoiceRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+invoiceColumns+` FROM pos_invoices ORDER BY invoice_date DESC`)
	if err != nil {
		return nil, apperr.Dependency(err, "list invoices")
	}

	result := make([]invoice.Invoice, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pos_invoices WHERE id = $1`, id)
	if err != nil {
		return apperr.Dependency(err, "delete invoice")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("invoice %s not found", id)
	}
	return nil
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_users (id, username, pin_hash, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Username, u.PINHash, u.FullName, string(u.Role), u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, apperr.Conflict("username %q already exists", u.Username)
		}
		return user.User{}, apperr.Dependency(err, "create user")
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pos_users
		SET username = $2, pin_hash = $3, full_name = $4, role = $5
		WHERE id = $1
	`, u.ID, u.Username, u.PINHash, u.FullName, string(u.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, apperr.Conflict("username %q already exists", u.Username)
		}
		return user.User{}, apperr.Dependency(err, "update user")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, apperr.NotFound("user %s not found", u.ID)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var role string
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, username, pin_hash, full_name, role, created_at FROM pos_users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PINHash, &u.FullName, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return user.User{}, apperr.Dependency(err, "get user")
	}
	u.Role = user.Role(role)
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var role string
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, username, pin_hash, full_name, role, created_at
		FROM pos_users
		WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&u.ID, &u.Username, &u.PINHash, &u.FullName, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, apperr.NotFound("user %q not found", username)
	}
	if err != nil {
		return user.User{}, apperr.Dependency(err, "get user by username")
	}
	u.Role = user.Role(role)
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, username, pin_hash, full_name, role, created_at
		FROM pos_users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperr.Dependency(err, "list users")
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var u user.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.PINHash, &u.FullName, &role, &u.CreatedAt); err != nil {
			return nil, apperr.Dependency(err, "scan user")
		}
		u.Role = user.Role(role)
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pos_users WHERE id = $1`, id)
	if err != nil {
		return apperr.Dependency(err, "delete user")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

// --- SettingsStore -----------------------------------------------------------

type settingsRow struct {
	StoreName           string          `db:"store_name"`
	Address             string          `db:"address"`
	Phone               string          `db:"phone"`
	WifiPassword        string          `db:"wifi_password"`
	ReceiptHeader       string          `db:"receipt_header"`
	ReceiptFooter       string          `db:"receipt_footer"`
	ReceiptLogo         string          `db:"receipt_logo"`
	Currency            string          `db:"currency"`
	TaxRate             float64         `db:"tax_rate"`
	ExchangeRate        float64         `db:"exchange_rate"`
	PendingExchangeRate sql.NullFloat64 `db:"pending_exchange_rate"`
	RateEffectiveAt     sql.NullTime    `db:"rate_effective_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

func (r settingsRow) toDomain() settings.Settings {
	s := settings.Settings{
		StoreName:     r.StoreName,
		Address:       r.Address,
		Phone:         r.Phone,
		WifiPassword:  r.WifiPassword,
		ReceiptHeader: r.ReceiptHeader,
		ReceiptFooter: r.ReceiptFooter,
		ReceiptLogo:   r.ReceiptLogo,
		Currency:      r.Currency,
		TaxRate:       r.TaxRate,
		ExchangeRate:  r.ExchangeRate,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.PendingExchangeRate.Valid {
		rate := r.PendingExchangeRate.Float64
		s.PendingExchangeRate = &rate
	}
	if r.RateEffectiveAt.Valid {
		at := r.RateEffectiveAt.Time
		s.RateEffectiveAt = &at
	}
	return s
}

const settingsColumns = `store_name, address, phone, wifi_password, receipt_header,
	receipt_footer, receipt_logo, currency, tax_rate, exchange_rate,
	pending_exchange_rate, rate_effective_at, updated_at`

func (s *Store) GetSettings(ctx context.Context) (settings.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `SELECT `+settingsColumns+` FROM pos_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Settings{}, apperr.Dependency(err, "get settings")
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateSettings(ctx context.Context, in settings.Settings) (settings.Settings, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_settings
			(id, store_name, address, phone, wifi_password, receipt_header,
			 receipt_footer, receipt_logo, currency, tax_rate, exchange_rate, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET store_name = EXCLUDED.store_name,
		    address = EXCLUDED.address,
		    phone = EXCLUDED.phone,
		    wifi_password = EXCLUDED.wifi_password,
		    receipt_header = EXCLUDED.receipt_header,
		    receipt_footer = EXCLUDED.receipt_footer,
		    receipt_logo = EXCLUDED.receipt_logo,
		    currency = EXCLUDED.currency,
		    tax_rate = EXCLUDED.tax_rate,
		    updated_at = EXCLUDED.updated_at
	`, in.StoreName, in.Address, in.Phone, in.WifiPassword, in.ReceiptHeader,
		in.ReceiptFooter, in.ReceiptLogo, in.Currency, in.TaxRate,
		settings.DefaultExchangeRate, now)
	if err != nil {
		return settings.Settings{}, apperr.Dependency(err, "update settings")
	}
	return s.GetSettings(ctx)
}

func (s *Store) ScheduleRate(ctx context.Context, rate float64, effectiveAt time.Time) (settings.Settings, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_settings (id, pending_exchange_rate, rate_effective_at, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET pending_exchange_rate = EXCLUDED.pending_exchange_rate,
		    rate_effective_at = EXCLUDED.rate_effective_at,
		    updated_at = EXCLUDED.updated_at
	`, rate, effectiveAt, now)
	if err != nil {
		return settings.Settings{}, apperr.Dependency(err, "schedule rate")
	}
	return s.GetSettings(ctx)
}

func (s *Store) PromoteDueRate(ctx context.Context, now time.Time) (settings.Settings, bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pos_settings
		SET exchange_rate = pending_exchange_rate,
		    pending_exchange_rate = NULL,
		    rate_effective_at = NULL,
		    updated_at = $1
		WHERE id = 1
		  AND pending_exchange_rate IS NOT NULL
		  AND rate_effective_at IS NOT NULL
		  AND rate_effective_at <= $2
	`, time.Now().UTC(), now)
	if err != nil {
		return settings.Settings{}, false, apperr.Dependency(err, "promote pending rate")
	}

	promoted := false
	if rows, _ := result.RowsAffected(); rows > 0 {
		promoted = true
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return settings.Settings{}, promoted, err
	}
	return current, promoted, nil
}

// --- CounterStore ------------------------------------------------------------

func (s *Store) NextCounterValue(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.GetContext(ctx, &value, `
		INSERT INTO pos_counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = pos_counters.value + 1
		RETURNING value
	`, name)
	if err != nil {
		return 0, apperr.Dependency(err, "increment counter %s", name)
	}
	return value, nil
}

// --- helpers -----------------------------------------------------------------

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
