package settings

import "time"

// DefaultExchangeRate is assumed when no settings record exists yet.
const DefaultExchangeRate = 4000

// Settings is the store-wide configuration singleton. PendingExchangeRate and
// RateEffectiveAt are set together and cleared together; the active
// ExchangeRate only changes when the rate scheduler promotes a due pending
// rate.
type Settings struct {
	StoreName           string     `json:"storeName"`
	Address             string     `json:"address,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	WifiPassword        string     `json:"wifiPassword,omitempty"`
	ReceiptHeader       string     `json:"receiptHeader,omitempty"`
	ReceiptFooter       string     `json:"receiptFooter,omitempty"`
	ReceiptLogo         string     `json:"receiptLogo,omitempty"`
	Currency            string     `json:"currency"`
	TaxRate             float64    `json:"taxRate"`
	ExchangeRate        float64    `json:"exchangeRate"`
	PendingExchangeRate *float64   `json:"pendingExchangeRate,omitempty"`
	RateEffectiveAt     *time.Time `json:"rateEffectiveAt,omitempty"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Default returns the settings applied to a fresh installation.
func Default() Settings {
	return Settings{
		StoreName:    "Paint Coffee",
		Currency:     "USD",
		ExchangeRate: DefaultExchangeRate,
	}
}

// HasPendingRate reports whether a scheduled rate change is waiting.
func (s Settings) HasPendingRate() bool {
	return s.PendingExchangeRate != nil && s.RateEffectiveAt != nil
}

// PendingDue reports whether the scheduled rate change should be applied at
// the given time.
func (s Settings) PendingDue(now time.Time) bool {
	return s.HasPendingRate() && !now.Before(*s.RateEffectiveAt)
}

// NextMidnight returns 00:00:00 of the day following t, in t's location. A
// rate submitted during business hours becomes active at the next midnight.
func NextMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}
