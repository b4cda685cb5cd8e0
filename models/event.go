package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the normalized availability category of an event.
type Status string

const (
	StatusSoldOut    Status = "sold-out"
	StatusLowStock   Status = "low-stock"
	StatusComingSoon Status = "coming-soon"
)

// Valid reports whether s is one of the closed set of categories.
func (s Status) Valid() bool {
	switch s {
	case StatusSoldOut, StatusLowStock, StatusComingSoon:
		return true
	}
	return false
}

// Purchasable reports whether the purchase action may be offered.
func (s Status) Purchasable() bool {
	return s != StatusSoldOut
}

type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	StartsAt    time.Time       `json:"starts_at"`
	Venue       string          `json:"venue"`
	VenueMapURL string          `json:"venue_map_url"`
	Category    string          `json:"category"`
	Status      Status          `json:"status"`
	StatusLabel string          `json:"status_label"` // backend text as received
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// HasPrice reports whether the backend supplied a positive price.
func (e Event) HasPrice() bool {
	return e.Price.IsPositive()
}
