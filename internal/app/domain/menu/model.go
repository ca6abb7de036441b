package menu

import "time"

// Item represents a menu entry sold at the counter.
type Item struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OriginalPrice float64   `json:"originalPrice"`
	Categories    []string  `json:"categories"`
	Type          string    `json:"type,omitempty"`
	IsPromo       bool      `json:"isPromo"`
	PromoPrice    *float64  `json:"promoPrice,omitempty"`
	Badge         string    `json:"badge,omitempty"`
	Image         string    `json:"image,omitempty"`
	Description   string    `json:"description,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PrimaryCategory returns the first category for display purposes.
func (i Item) PrimaryCategory() string {
	if len(i.Categories) > 0 {
		return i.Categories[0]
	}
	return "Uncategorized"
}

// InCategory reports whether the item carries the given category name.
func (i Item) InCategory(name string) bool {
	for _, c := range i.Categories {
		if c == name {
			return true
		}
	}
	return false
}
