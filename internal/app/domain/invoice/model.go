package invoice

import "time"

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod identifies how an invoice was settled.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentDelivery PaymentMethod = "delivery"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDelivery:
		return true
	}
	return false
}

// LineItem is a single ordered position on an invoice.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

// Invoice is a customer order with its line items and payment state. The
// record identifier (ID) and the human-readable InvoiceID both resolve to the
// same record.
type Invoice struct {
	ID             string        `json:"id"`
	InvoiceID      string        `json:"invoiceId"`
	Date           time.Time     `json:"date"`
	Table          string        `json:"table"`
	Status         Status        `json:"status"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	Items          []LineItem    `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Discount       float64       `json:"discount"`
	Total          float64       `json:"total"`
	ExchangeRate   float64       `json:"exchangeRate,omitempty"`
	CreatedBy      string        `json:"createdBy"`
	LastModifiedBy string        `json:"lastModifiedBy,omitempty"`
	LastModifiedAt *time.Time    `json:"lastModifiedAt,omitempty"`
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. No transition leaves cancelled; the only exit from cancelled is
// the purge performed by a second delete.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusPaid || to == StatusCancelled
	case StatusPaid:
		return to == StatusCancelled
	default:
		return false
	}
}

// DeleteEffect describes what a delete call did to an invoice.
type DeleteEffect string

const (
	// DeleteSoft means the invoice was marked cancelled and retained.
	DeleteSoft DeleteEffect = "soft"
	// DeleteHard means the invoice was permanently purged.
	DeleteHard DeleteEffect = "hard"
)
