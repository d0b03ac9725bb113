package providers

import (
	"context"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ListingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ListingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelListingUpdates is the channel for all catalog changes
	EventChannelListingUpdates = "listings:updates"

	// EventChannelListingPrefix is the prefix for listing-specific channels
	EventChannelListingPrefix = "listings:"
)

// GetListingChannel returns the channel name for a specific listing
func GetListingChannel(listingID string) string {
	return EventChannelListingPrefix + listingID
}
