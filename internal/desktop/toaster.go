package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/internal/events"
	log "github.com/sirupsen/logrus"
)

const (
	notifySendBinary = "notify-send"
	openActionKey    = "open"
)

var ErrUnavailable = errors.New("desktop notifications are not available")

type Toast struct {
	Title    string
	Message  string
	IconPath string
	Duration time.Duration
	Action   *entities.ListingAction
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Toaster shows freedesktop notifications through notify-send.
// Toasts carrying an action publish ToastActivated when the user clicks them.
type Toaster struct {
	appName string
	bus     EventBus.Bus
	run     commandRunner
}

func NewToaster(appName string, bus EventBus.Bus) (*Toaster, error) {
	if _, err := exec.LookPath(notifySendBinary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Toaster{appName: appName, bus: bus, run: runCommand}, nil
}

// Show returns once the toast is displayed; waiting for a click happens in the background.
func (t *Toaster) Show(ctx context.Context, toast Toast) error {
	args := []string{
		"--app-name=" + t.appName,
		"--expire-time=" + strconv.FormatInt(toast.Duration.Milliseconds(), 10),
	}
	if toast.IconPath != "" {
		args = append(args, "--icon="+toast.IconPath)
	}

	if toast.Action == nil {
		args = append(args, toast.Title, toast.Message)
		_, err := t.run(ctx, notifySendBinary, args...)
		return err
	}

	args = append(args, "--action="+openActionKey+"=Open listing", "--wait", toast.Title, toast.Message)
	action := *toast.Action

	// the toast outlives the caller's context; it is bounded by its own duration instead
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), toast.Duration+5*time.Second)
	go func() {
		defer cancel()
		out, err := t.run(waitCtx, notifySendBinary, args...)
		if err != nil {
			log.Debugf("toast for %s closed without action: %v", action.URL, err)
			return
		}
		if strings.TrimSpace(string(out)) == openActionKey {
			t.bus.Publish(events.ToastActivatedTopic, events.ToastActivated{Action: action})
		}
	}()
	return nil
}
