package model

import "time"

// Product represents a catalog entry customers can order from the menu.
type Product struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category"`
	BasePrice      float64    `json:"base_price"`
	PricePerPerson float64    `json:"price_per_person"`
	PriceType      string     `json:"price_type"`
	ImageURL       string     `json:"image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Product categories.
const (
	CategoryCakes        = "cakes"
	CategoryWeddingCakes = "wedding-cakes"
	CategorySweets       = "sweets"
	CategorySpecial      = "special"
)

// Price types.
const (
	PricePerPerson = "per-person"
	PricePerKg     = "per-kg"
	PriceFlat      = "flat"
)

// ValidCategory reports whether category is one of the catalog categories.
func ValidCategory(category string) bool {
	switch category {
	case CategoryCakes, CategoryWeddingCakes, CategorySweets, CategorySpecial:
		return true
	}
	return false
}

// ValidPriceType reports whether priceType is a known pricing tag.
func ValidPriceType(priceType string) bool {
	switch priceType {
	case PricePerPerson, PricePerKg, PriceFlat:
		return true
	}
	return false
}
