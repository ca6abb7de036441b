// Package settings manages the store configuration singleton. Exchange-rate
// changes are never applied immediately: a differing rate is parked as a
// pending value that the scheduler promotes at the next midnight.
package settings

import (
	"context"
	"strings"
	"time"

	domain "github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/metrics"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Service exposes settings operations.
type Service struct {
	store storage.SettingsStore
	log   *logger.Logger
	now   func() time.Time
}

// New creates a settings service.
func New(store storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settings")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	return s.store.GetSettings(ctx)
}

// UpdateInput carries the writable settings fields. A nil ExchangeRate leaves
// the rate untouched.
type UpdateInput struct {
	StoreName     string   `json:"storeName"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	WifiPassword  string   `json:"wifiPassword"`
	ReceiptHeader string   `json:"receiptHeader"`
	ReceiptFooter string   `json:"receiptFooter"`
	ReceiptLogo   string   `json:"receiptLogo"`
	Currency      string   `json:"currency"`
	TaxRate       *float64 `json:"taxRate"`
	ExchangeRate  *float64 `json:"exchangeRate"`
}

// Update saves the profile fields, then handles the exchange rate separately:
// a rate equal to the active one is a no-op, a differing rate is scheduled
// for the next midnight. The active rate never changes here.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Settings, error) {
	if strings.TrimSpace(in.StoreName) == "" {
		return domain.Settings{}, apperr.Validation("storeName is required")
	}
	if in.ExchangeRate != nil && *in.ExchangeRate <= 0 {
		return domain.Settings{}, apperr.Validation("exchangeRate must be positive")
	}
	if in.TaxRate != nil && (*in.TaxRate < 0 || *in.TaxRate > 100) {
		return domain.Settings{}, apperr.Validation("taxRate must be between 0 and 100")
	}

	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	next := current
	next.StoreName = strings.TrimSpace(in.StoreName)
	next.Address = in.Address
	next.Phone = in.Phone
	next.WifiPassword = in.WifiPassword
	next.ReceiptHeader = in.ReceiptHeader
	next.ReceiptFooter = in.ReceiptFooter
	next.ReceiptLogo = in.ReceiptLogo
	if in.Currency != "" {
		next.Currency = in.Currency
	}
	if in.TaxRate != nil {
		next.TaxRate = *in.TaxRate
	}

	saved, err := s.store.UpdateSettings(ctx, next)
	if err != nil {
		return domain.Settings{}, err
	}

	if in.ExchangeRate == nil || *in.ExchangeRate == saved.ExchangeRate {
		return saved, nil
	}

	effectiveAt := domain.NextMidnight(s.now())
	scheduled, err := s.store.ScheduleRate(ctx, *in.ExchangeRate, effectiveAt)
	if err != nil {
		return domain.Settings{}, err
	}
	s.log.WithFields(map[string]interface{}{
		"pending_rate": *in.ExchangeRate,
		"effective_at": effectiveAt.Format(time.RFC3339),
	}).Info("scheduled exchange rate change")
	return scheduled, nil
}

// PromoteDueRate applies a pending rate whose effective time has passed. It
// is safe to call at any time; when nothing is due it reports false.
func (s *Service) PromoteDueRate(ctx context.Context) (domain.Settings, bool, error) {
	current, promoted, err := s.store.PromoteDueRate(ctx, s.now())
	if err != nil {
		return domain.Settings{}, false, err
	}
	if promoted {
		metrics.RecordRatePromotion()
		s.log.WithField("exchange_rate", current.ExchangeRate).Info("promoted pending exchange rate")
	}
	return current, promoted, nil
}
