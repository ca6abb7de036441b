// Package invoices implements the order lifecycle: creation with a generated
// invoice number and an exchange-rate snapshot, guarded status transitions,
// and the two-stage cancel-then-purge delete.
package invoices

import (
	"context"
	"strings"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/domain/invoice"
	"github.com/paintcoffee/pos-backend/internal/app/metrics"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Service exposes invoice operations.
type Service struct {
	invoices storage.InvoiceStore
	settings storage.SettingsStore
	sequence *Sequence
	log      *logger.Logger
	now      func() time.Time
}

// New creates an invoice service.
func New(invoices storage.InvoiceStore, settingsStore storage.SettingsStore, sequence *Sequence, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("invoices")
	}
	return &Service{
		invoices: invoices,
		settings: settingsStore,
		sequence: sequence,
		log:      log,
		now:      time.Now,
	}
}

// LineItemInput is one ordered position in a create or update request.
type LineItemInput struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateInput carries the writable fields of a new invoice.
type CreateInput struct {
	Table         string          `json:"table"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Items         []LineItemInput `json:"items"`
	Discount      float64         `json:"discount"`
}

// UpdateInput carries the writable fields of an invoice update.
type UpdateInput struct {
	Table         *string         `json:"table"`
	Status        *string         `json:"status"`
	PaymentMethod *string         `json:"paymentMethod"`
	Items         []LineItemInput `json:"items"`
	Discount      *float64        `json:"discount"`
}

func buildLineItems(inputs []LineItemInput) ([]invoice.LineItem, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, apperr.Validation("invoice needs at least one item")
	}

	items := make([]invoice.LineItem, 0, len(inputs))
	var subtotal float64
	for i, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return nil, 0, apperr.Validation("item %d: name is required", i+1)
		}
		if in.Quantity <= 0 {
			return nil, 0, apperr.Validation("item %d: quantity must be positive", i+1)
		}
		if in.Price < 0 {
			return nil, 0, apperr.Validation("item %d: price cannot be negative", i+1)
		}
		total := float64(in.Quantity) * in.Price
		items = append(items, invoice.LineItem{
			Name:     in.Name,
			Quantity: in.Quantity,
			Price:    in.Price,
			Total:    total,
		})
		subtotal += total
	}
	return items, subtotal, nil
}

// Create builds and stores a new invoice. The invoice number and the current
// exchange rate are fixed at creation; later settings changes never rewrite
// past orders.
func (s *Service) Create(ctx context.Context, in CreateInput) (invoice.Invoice, error) {
	items, subtotal, err := buildLineItems(in.Items)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if in.Discount < 0 || in.Discount > subtotal {
		return invoice.Invoice{}, apperr.Validation("discount must be between 0 and the subtotal")
	}

	status := invoice.StatusPending
	if in.Status != "" {
		status = invoice.Status(in.Status)
		if !status.Valid() {
			return invoice.Invoice{}, apperr.Validation("unknown status %q", in.Status)
		}
	}
	method := invoice.PaymentCash
	if in.PaymentMethod != "" {
		method = invoice.PaymentMethod(in.PaymentMethod)
		if !method.Valid() {
			return invoice.Invoice{}, apperr.Validation("unknown payment method %q", in.PaymentMethod)
		}
	}

	current, err := s.settings.GetSettings(ctx)
	if err != nil {
		return invoice.Invoice{}, err
	}

	inv := invoice.Invoice{
		InvoiceID:     s.sequence.Next(ctx),
		Date:          s.now().UTC(),
		Table:         in.Table,
		Status:        status,
		PaymentMethod: method,
		Items:         items,
		Subtotal:      subtotal,
		Discount:      in.Discount,
		Total:         subtotal - in.Discount,
		ExchangeRate:  current.ExchangeRate,
		CreatedBy:     auth.ActorFrom(ctx).Username,
	}

	created, err := s.invoices.CreateInvoice(ctx, inv)
	if err != nil {
		return invoice.Invoice{}, err
	}
	metrics.RecordInvoiceCreated(string(created.PaymentMethod), created.Total)
	s.log.WithField("invoice_id", created.InvoiceID).Infof("created invoice, total %.2f", created.Total)
	return created, nil
}

// Get resolves an invoice by record id or by its invoice number.
func (s *Service) Get(ctx context.Context, ref string) (invoice.Invoice, error) {
	inv, err := s.invoices.GetInvoice(ctx, ref)
	if err == nil {
		return inv, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return invoice.Invoice{}, err
	}
	return s.invoices.GetInvoiceByNumber(ctx, ref)
}

// List returns all invoices, newest first.
func (s *Service) List(ctx context.Context) ([]invoice.Invoice, error) {
	return s.invoices.ListInvoices(ctx)
}

// Update applies changes to an existing invoice. Only admins may touch an
// invoice that has left the pending state; everyone may edit pending orders.
// Status changes follow the lifecycle: nothing leaves cancelled.
func (s *Service) Update(ctx context.Context, ref string, in UpdateInput) (invoice.Invoice, error) {
	existing, err := s.Get(ctx, ref)
	if err != nil {
		return invoice.Invoice{}, err
	}

	actor := auth.ActorFrom(ctx)
	if existing.Status != invoice.StatusPending && !actor.IsAdmin() {
		return invoice.Invoice{}, apperr.PermissionDenied("only an admin can modify a %s invoice", existing.Status)
	}

	if in.Status != nil {
		next := invoice.Status(*in.Status)
		if !next.Valid() {
			return invoice.Invoice{}, apperr.Validation("unknown status %q", *in.Status)
		}
		if !invoice.CanTransition(existing.Status, next) {
			return invoice.Invoice{}, apperr.Validation("cannot move invoice from %s to %s", existing.Status, next)
		}
		existing.Status = next
	}
	if in.PaymentMethod != nil {
		method := invoice.PaymentMethod(*in.PaymentMethod)
		if !method.Valid() {
			return invoice.Invoice{}, apperr.Validation("unknown payment method %q", *in.PaymentMethod)
		}
		existing.PaymentMethod = method
	}
	if in.Table != nil {
		existing.Table = *in.Table
	}
	if in.Items != nil {
		items, subtotal, err := buildLineItems(in.Items)
		if err != nil {
			return invoice.Invoice{}, err
		}
		existing.Items = items
		existing.Subtotal = subtotal
	}
	if in.Discount != nil {
		existing.Discount = *in.Discount
	}
	if existing.Discount < 0 || existing.Discount > existing.Subtotal {
		return invoice.Invoice{}, apperr.Validation("discount must be between 0 and the subtotal")
	}
	existing.Total = existing.Subtotal - existing.Discount

	modifiedAt := s.now().UTC()
	existing.LastModifiedBy = actor.Username
	existing.LastModifiedAt = &modifiedAt

	return s.invoices.UpdateInvoice(ctx, existing)
}

// Delete implements the two-stage removal. The first delete of a live invoice
// marks it cancelled and keeps the record; deleting an already-cancelled
// invoice purges it permanently.
func (s *Service) Delete(ctx context.Context, ref string) (invoice.DeleteEffect, error) {
	existing, err := s.Get(ctx, ref)
	if err != nil {
		return "", err
	}

	if existing.Status == invoice.StatusCancelled {
		if err := s.invoices.DeleteInvoice(ctx, existing.ID); err != nil {
			return "", err
		}
		s.log.WithField("invoice_id", existing.InvoiceID).Info("purged cancelled invoice")
		return invoice.DeleteHard, nil
	}

	modifiedAt := s.now().UTC()
	existing.Status = invoice.StatusCancelled
	existing.LastModifiedBy = auth.ActorFrom(ctx).Username
	existing.LastModifiedAt = &modifiedAt
	if _, err := s.invoices.UpdateInvoice(ctx, existing); err != nil {
		return "", err
	}
	s.log.WithField("invoice_id", existing.InvoiceID).Info("cancelled invoice")
	return invoice.DeleteSoft, nil
}
