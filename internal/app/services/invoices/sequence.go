package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/paintcoffee/pos-backend/internal/app/storage"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

const (
	invoiceCounterName = "invoice"
	invoicePrefix      = "INV-"
)

// Sequence issues the human-readable invoice numbers. Numbers come from an
// atomic named counter so concurrent terminals never share one; when the
// counter is unreachable the generator degrades to a timestamp-derived number
// rather than refusing the sale.
type Sequence struct {
	counters storage.CounterStore
	log      *logger.Logger
	now      func() time.Time
}

// NewSequence creates an invoice number generator.
func NewSequence(counters storage.CounterStore, log *logger.Logger) *Sequence {
	if log == nil {
		log = logger.NewDefault("invoice-sequence")
	}
	return &Sequence{counters: counters, log: log, now: time.Now}
}

// Next returns the next invoice number, formatted INV- followed by the
// zero-padded counter value. On counter failure it falls back to the last six
// digits of the current epoch milliseconds; collisions then surface as a
// store conflict on insert.
func (s *Sequence) Next(ctx context.Context) string {
	value, err := s.counters.NextCounterValue(ctx, invoiceCounterName)
	if err != nil {
		s.log.WithError(err).Warn("invoice counter unavailable, using timestamp fallback")
		value = s.now().UnixMilli() % 1000000
	}
	return fmt.Sprintf("%s%06d", invoicePrefix, value)
}
