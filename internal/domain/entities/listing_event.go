package entities

import (
	"time"

	"github.com/google/uuid"
)

// ListingEventType represents the type of listing event
type ListingEventType string

const (
	ListingEventTypeUpdated   ListingEventType = "listing_updated"
	ListingEventTypeDeleted   ListingEventType = "listing_deleted"
	ListingEventTypeReindexed ListingEventType = "catalog_reindexed"
)

// ListingEvent represents a catalog change published on the event bus.
// ListingID is empty for catalog-wide events.
type ListingEvent struct {
	ID         string           `json:"id"`
	ListingID  string           `json:"listing_id,omitempty"`
	EventType  ListingEventType `json:"event_type"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewListingEvent creates a new listing event
func NewListingEvent(listingID string, eventType ListingEventType) *ListingEvent {
	return &ListingEvent{
		ID:         uuid.New().String(),
		ListingID:  listingID,
		EventType:  eventType,
		OccurredAt: time.Now(),
	}
}
