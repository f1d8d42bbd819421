package events

import "github.com/miciek335/vinted-listing-tracker/internal/entities"

var ToastActivatedTopic = "ToastActivatedEvent"

type ToastActivated struct {
	Action entities.ListingAction
}
