package settings

import (
	"context"
	"testing"
	"time"

	domain "github.com/paintcoffee/pos-backend/internal/app/domain/settings"
	"github.com/paintcoffee/pos-backend/internal/app/storage/memory"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(memory.New(), nil)
}

func TestGetReturnsDefaults(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StoreName != "Paint Coffee" || got.Currency != "USD" || got.ExchangeRate != domain.DefaultExchangeRate {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Update(ctx, UpdateInput{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("empty storeName: expected validation error, got %v", err)
	}
	bad := -1.0
	if _, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &bad}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("negative rate: expected validation error, got %v", err)
	}
}

func TestUpdateSameRateIsNoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rate := float64(domain.DefaultExchangeRate)
	got, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &rate})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.HasPendingRate() {
		t.Fatalf("unchanged rate must not schedule anything: %+v", got)
	}
}

func TestUpdateSchedulesDifferingRate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rate := 4100.0
	got, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &rate})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.ExchangeRate != domain.DefaultExchangeRate {
		t.Fatalf("active rate must not change immediately, got %v", got.ExchangeRate)
	}
	if !got.HasPendingRate() || *got.PendingExchangeRate != 4100 {
		t.Fatalf("expected pending rate 4100, got %+v", got)
	}
	wantAt := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !got.RateEffectiveAt.Equal(wantAt) {
		t.Fatalf("effective at = %v, want next midnight %v", got.RateEffectiveAt, wantAt)
	}
}

func TestPromoteDueRate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rate := 4100.0
	if _, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &rate}); err != nil {
		t.Fatal(err)
	}

	// Before midnight the sweep must not touch the rate.
	if _, promoted, err := svc.PromoteDueRate(ctx); err != nil || promoted {
		t.Fatalf("promoted=%v err=%v, want no-op before the effective time", promoted, err)
	}

	svc.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 30, 0, time.UTC) }
	got, promoted, err := svc.PromoteDueRate(ctx)
	if err != nil {
		t.Fatalf("PromoteDueRate: %v", err)
	}
	if !promoted || got.ExchangeRate != 4100 {
		t.Fatalf("expected promotion to 4100, got promoted=%v settings=%+v", promoted, got)
	}
	if got.HasPendingRate() {
		t.Fatalf("pending pair must clear after promotion: %+v", got)
	}

	// Re-running is idempotent.
	if _, promoted, err := svc.PromoteDueRate(ctx); err != nil || promoted {
		t.Fatalf("promoted=%v err=%v, want idempotent second sweep", promoted, err)
	}
}

func TestLatestScheduleWins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	first := 4100.0
	if _, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &first}); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC) }
	second := 4200.0
	got, err := svc.Update(ctx, UpdateInput{StoreName: "Paint Coffee", ExchangeRate: &second})
	if err != nil {
		t.Fatal(err)
	}
	if *got.PendingExchangeRate != 4200 {
		t.Fatalf("pending rate = %v, want the later submission 4200", *got.PendingExchangeRate)
	}

	svc.now = func() time.Time { return time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC) }
	promotedSettings, promoted, err := svc.PromoteDueRate(ctx)
	if err != nil || !promoted {
		t.Fatalf("promoted=%v err=%v", promoted, err)
	}
	if promotedSettings.ExchangeRate != 4200 {
		t.Fatalf("active rate = %v, want 4200", promotedSettings.ExchangeRate)
	}
}
