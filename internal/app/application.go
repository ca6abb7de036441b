// Package app wires the POS services to their stores and manages the
// lifecycle of background components.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/services/catalog"
	"github.com/paintcoffee/pos-backend/internal/app/services/invoices"
	"github.com/paintcoffee/pos-backend/internal/app/services/reports"
	settingssvc "github.com/paintcoffee/pos-backend/internal/app/services/settings"
	"github.com/paintcoffee/pos-backend/internal/app/services/users"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	"github.com/paintcoffee/pos-backend/internal/app/storage/memory"
	"github.com/paintcoffee/pos-backend/internal/app/system"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Menu       storage.MenuStore
	Categories storage.CategoryStore
	Invoices   storage.InvoiceStore
	Users      storage.UserStore
	Settings   storage.SettingsStore
	Counters   storage.CounterStore
}

// Options carries optional application dependencies.
type Options struct {
	// Redis enables the menu cache when set.
	Redis *redis.Client
	// RateSweepInterval overrides how often the pending exchange rate is
	// checked. Zero keeps the one-minute default.
	RateSweepInterval time.Duration
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Catalog  *catalog.Service
	Invoices *invoices.Service
	Users    *users.Service
	Settings *settingssvc.Service
	Reports  *reports.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Menu == nil {
		stores.Menu = mem
	}
	if stores.Categories == nil {
		stores.Categories = mem
	}
	if stores.Invoices == nil {
		stores.Invoices = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}
	if stores.Counters == nil {
		stores.Counters = mem
	}

	manager := system.NewManager()

	var cache *catalog.Cache
	if opts.Redis != nil {
		cache = catalog.NewCache(opts.Redis, log)
	}

	catalogService := catalog.New(stores.Menu, stores.Categories, cache, log)
	sequence := invoices.NewSequence(stores.Counters, log)
	invoiceService := invoices.New(stores.Invoices, stores.Settings, sequence, log)
	userService := users.New(stores.Users, log)
	settingsService := settingssvc.New(stores.Settings, log)
	reportService := reports.New(stores.Invoices, stores.Menu, stores.Users, log)

	for _, name := range []string{"catalog", "invoices", "users", "reports"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	scheduler := settingssvc.NewScheduler(settingsService, log).WithInterval(opts.RateSweepInterval)
	if err := manager.Register(scheduler); err != nil {
		return nil, fmt.Errorf("register %s: %w", scheduler.Name(), err)
	}

	return &Application{
		manager:  manager,
		log:      log,
		Catalog:  catalogService,
		Invoices: invoiceService,
		Users:    userService,
		Settings: settingsService,
		Reports:  reportService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

// Seed ensures the records a fresh installation needs: the default store
// settings and an admin account. Existing records are left alone.
func (a *Application) Seed(ctx context.Context, adminUsername, adminPIN string) error {
	if _, err := a.Settings.Get(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	if adminUsername == "" || adminPIN == "" {
		return nil
	}
	_, err := a.Users.Create(ctx, users.CreateInput{
		Username: adminUsername,
		PIN:      adminPIN,
		FullName: settings.Default().StoreName + " Admin",
		Role:     "admin",
	})
	if err != nil && !apperr.IsKind(err, apperr.KindConflict) {
		return fmt.Errorf("seed admin account: %w", err)
	}
	if err == nil {
		a.log.WithField("username", adminUsername).Info("seeded admin account")
	}
	return nil
}
