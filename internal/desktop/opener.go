package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/internal/events"
	"github.com/pkg/browser"
	log "github.com/sirupsen/logrus"
)

const confirmationDuration = 4 * time.Second

type shower interface {
	Show(ctx context.Context, toast Toast) error
}

// Opener reacts to activated toasts by opening the listing in the default browser.
type Opener struct {
	toaster shower
	open    func(url string) error
}

func NewOpener(bus EventBus.Bus, toaster shower) (*Opener, error) {
	o := &Opener{toaster: toaster, open: browser.OpenURL}
	if err := bus.SubscribeAsync(events.ToastActivatedTopic, o.onToastActivated, false); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Opener) onToastActivated(event events.ToastActivated) {
	action := event.Action
	if action.Kind != entities.ActionOpenListing {
		return
	}

	if err := o.open(action.URL); err != nil {
		log.Errorf("Failed to open listing URL: %v", err)
		return
	}
	log.Infof("Opened Vinted listing URL: %s", action.URL)

	err := o.toaster.Show(context.Background(), Toast{
		Title: "✅ Opening Vinted Listing",
		Message: fmt.Sprintf("Opening: %s...\n\nItem: %s...",
			entities.Truncate(action.URL, 60), entities.Truncate(action.Title, 40)),
		Duration: confirmationDuration,
	})
	if err != nil {
		log.Warnf("Failed to show confirmation toast: %v", err)
	}
}
