package invoices

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	"github.com/paintcoffee/pos-backend/internal/app/storage/memory"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	seq := NewSequence(store, nil)
	return New(store, store, seq, nil), store
}

func adminCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{Username: "admin", Role: user.RoleAdmin})
}

func cashierCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{Username: "cashier1", Role: user.RoleCashier})
}

func createInvoice(t *testing.T, svc *Service, ctx context.Context) invoice.Invoice {
	t.Helper()
	inv, err := svc.Create(ctx, CreateInput{
		Table: "5",
		Items: []LineItemInput{
			{Name: "Latte", Quantity: 2, Price: 2.5},
			{Name: "Croissant", Quantity: 1, Price: 1.75},
		},
		Discount: 0.75,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return inv
}

func TestCreateComputesTotalsAndSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	if inv.Subtotal != 6.75 {
		t.Fatalf("subtotal = %v, want 6.75", inv.Subtotal)
	}
	if inv.Total != 6.0 {
		t.Fatalf("total = %v, want 6.0", inv.Total)
	}
	if inv.ExchangeRate != 4000 {
		t.Fatalf("exchange rate snapshot = %v, want the default 4000", inv.ExchangeRate)
	}
	if inv.Status != invoice.StatusPending {
		t.Fatalf("status = %v, want pending", inv.Status)
	}
	if inv.CreatedBy != "cashier1" {
		t.Fatalf("createdBy = %q, want cashier1", inv.CreatedBy)
	}
	if inv.InvoiceID != "INV-000001" {
		t.Fatalf("invoiceId = %q, want INV-000001", inv.InvoiceID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"no items", CreateInput{}},
		{"zero quantity", CreateInput{Items: []LineItemInput{{Name: "Latte", Quantity: 0, Price: 2}}}},
		{"unnamed item", CreateInput{Items: []LineItemInput{{Quantity: 1, Price: 2}}}},
		{"discount above subtotal", CreateInput{Items: []LineItemInput{{Name: "Latte", Quantity: 1, Price: 2}}, Discount: 3}},
		{"unknown status", CreateInput{Items: []LineItemInput{{Name: "Latte", Quantity: 1, Price: 2}}, Status: "archived"}},
		{"unknown payment method", CreateInput{Items: []LineItemInput{{Name: "Latte", Quantity: 1, Price: 2}}, PaymentMethod: "crypto"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSequentialNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	for i := 1; i <= 3; i++ {
		inv := createInvoice(t, svc, ctx)
		want := fmt.Sprintf("INV-%06d", i)
		if inv.InvoiceID != want {
			t.Fatalf("invoiceId = %q, want %q", inv.InvoiceID, want)
		}
	}
}

type failingCounter struct{}

func (failingCounter) NextCounterValue(context.Context, string) (int64, error) {
	return 0, errors.New("counter down")
}

func TestSequenceTimestampFallback(t *testing.T) {
	seq := NewSequence(failingCounter{}, nil)
	seq.now = func() time.Time { return time.UnixMilli(1748563412345) }

	got := seq.Next(context.Background())
	if got != "INV-412345" {
		t.Fatalf("fallback number = %q, want INV-412345", got)
	}
}

func TestGetByRecordIDAndByNumber(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	byID, err := svc.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	byNumber, err := svc.Get(context.Background(), inv.InvoiceID)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if byID.ID != byNumber.ID {
		t.Fatal("both lookups should resolve the same record")
	}

	if _, err := svc.Get(context.Background(), "INV-999999"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestUpdatePermissions(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	paid := string(invoice.StatusPaid)
	updated, err := svc.Update(cashierCtx(), inv.ID, UpdateInput{Status: &paid})
	if err != nil {
		t.Fatalf("cashier should be able to settle a pending invoice: %v", err)
	}
	if updated.LastModifiedBy != "cashier1" || updated.LastModifiedAt == nil {
		t.Fatalf("modification not stamped: %+v", updated)
	}

	table := "7"
	if _, err := svc.Update(cashierCtx(), inv.ID, UpdateInput{Table: &table}); !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Fatalf("cashier must not modify a paid invoice, got %v", err)
	}
	if _, err := svc.Update(adminCtx(), inv.ID, UpdateInput{Table: &table}); err != nil {
		t.Fatalf("admin should be able to modify a paid invoice: %v", err)
	}
}

func TestUpdateRejectsIllegalTransition(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	if _, err := svc.Delete(cashierCtx(), inv.ID); err != nil {
		t.Fatal(err)
	}

	pending := string(invoice.StatusPending)
	if _, err := svc.Update(adminCtx(), inv.ID, UpdateInput{Status: &pending}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("nothing leaves cancelled, got %v", err)
	}
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	updated, err := svc.Update(cashierCtx(), inv.ID, UpdateInput{
		Items: []LineItemInput{{Name: "Latte", Quantity: 4, Price: 2.5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Subtotal != 10 || updated.Total != 10-inv.Discount {
		t.Fatalf("totals not recomputed: %+v", updated)
	}
}

func TestTwoStageDelete(t *testing.T) {
	svc, store := newTestService(t)
	inv := createInvoice(t, svc, cashierCtx())

	effect, err := svc.Delete(cashierCtx(), inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if effect != invoice.DeleteSoft {
		t.Fatalf("first delete effect = %v, want soft", effect)
	}

	kept, err := store.GetInvoice(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("soft-deleted invoice must remain readable: %v", err)
	}
	if kept.Status != invoice.StatusCancelled {
		t.Fatalf("status = %v, want cancelled", kept.Status)
	}

	effect, err = svc.Delete(cashierCtx(), inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if effect != invoice.DeleteHard {
		t.Fatalf("second delete effect = %v, want hard", effect)
	}

	if _, err := store.GetInvoice(context.Background(), inv.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("purged invoice must be gone, got %v", err)
	}
}
