package notify

import (
	"context"
	"fmt"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/internal/logger"
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrDeliveryFailed is returned by a channel that exhausted its attempt budget.
var ErrDeliveryFailed = errors.New("delivery failed")

type Channel interface {
	Name() string
	Notify(ctx context.Context, listing entities.Listing, searchName string) error
}

// Fanout delivers a listing to every channel independently.
type Fanout struct {
	channels []Channel
}

func NewFanout(channels ...Channel) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Len() int {
	return len(f.channels)
}

func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.channels))
	for _, ch := range f.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify returns the number of channels that accepted the listing.
// A failing or panicking channel never prevents the others from running.
func (f *Fanout) Notify(ctx context.Context, listing entities.Listing, searchName string) int {
	succeeded := 0
	for _, ch := range f.channels {
		if err := f.deliver(ctx, ch, listing, searchName); err != nil {
			metrics.NotificationsCounter.WithLabelValues(ch.Name(), "failure").Inc()
			log.WithFields(log.Fields{
				logger.ErrorTypeField: logger.ErrorTypeNotify,
				"channel":             ch.Name(),
				"listing_id":          listing.ID,
			}).Errorf("%s notification failed: %v", ch.Name(), err)
			continue
		}
		metrics.NotificationsCounter.WithLabelValues(ch.Name(), "success").Inc()
		succeeded++
	}

	log.Infof("Notifications sent for: %s... (Success: %d)", listing.TitlePreview(), succeeded)
	return succeeded
}

func (f *Fanout) deliver(ctx context.Context, ch Channel, listing entities.Listing, searchName string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Notify(ctx, listing, searchName)
}
