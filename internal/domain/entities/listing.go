package entities

import (
	"time"
)

// ListingType distinguishes bookable services from purchasable products
type ListingType string

const (
	ListingTypeService ListingType = "service"
	ListingTypeProduct ListingType = "product"
)

// ListingProvider is the vendor that owns a listing. IsVerified is nil
// until the provider has gone through verification.
type ListingProvider struct {
	ID         string `json:"id" db:"provider_id"`
	Name       string `json:"name" db:"provider_name"`
	IsVerified *bool  `json:"is_verified,omitempty" db:"provider_verified"`
}

// Listing represents a marketplace listing as stored in the catalog.
// Optional columns stay nil here; presentation defaults are applied when
// results are formatted for clients, not at the storage boundary.
type Listing struct {
	ID          string          `json:"id" db:"id"`
	Type        ListingType     `json:"type" db:"type"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Images      []string        `json:"images,omitempty" db:"images"`
	Rating      *float64        `json:"rating,omitempty" db:"rating"`
	ReviewCount *int            `json:"review_count,omitempty" db:"review_count"`
	BasePrice   *float64        `json:"base_price,omitempty" db:"base_price"`
	Location    *string         `json:"location,omitempty" db:"location"`
	Category    string          `json:"category" db:"category"`
	Tags        []string        `json:"tags,omitempty" db:"tags"`
	Provider    ListingProvider `json:"provider"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
