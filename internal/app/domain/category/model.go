package category

import "time"

// Category groups menu items. Names are unique case-insensitively; menu items
// reference categories by name.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
