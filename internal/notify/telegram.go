package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const telegramRequestTimeout = 10 * time.Second

type apiInterface interface {
	Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends one message per listing with a single attempt.
type Telegram struct {
	api         apiInterface
	chatID      int64
	channel     string
	rateLimiter *rate.Limiter
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: telegramRequestTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	if err := tgbotapi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}
	log.Infof("Telegram authorized on account %s", api.Self.UserName)

	return newTelegram(api, cfg), nil
}

func newTelegram(api apiInterface, cfg config.TelegramConfig) *Telegram {
	t := &Telegram{api: api}

	// numeric ids address users and groups, "@name" addresses public channels
	if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		t.chatID = id
	} else {
		t.channel = cfg.ChatID
	}

	if cfg.MaxRequestsPerSecond > 0 {
		t.rateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1)
	}
	return t
}

func (t *Telegram) Name() string {
	return "Telegram"
}

func (t *Telegram) Notify(ctx context.Context, listing entities.Listing, searchName string) error {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	if _, err := t.api.Send(t.buildMessage(listing, searchName)); err != nil {
		return fmt.Errorf("error occurred while sending message: %w", err)
	}

	log.Info("Telegram notification sent successfully")
	return nil
}

func (t *Telegram) buildMessage(listing entities.Listing, searchName string) tgbotapi.Chattable {
	text := fmt.Sprintf("🔍 *New Vinted Listing Found!*\n\n*Search:* %s\n\n%s\n\n[View Listing](%s)",
		searchName, listing.Title, listing.URL)

	if listing.HasImage() {
		var photo tgbotapi.PhotoConfig
		if t.channel != "" {
			photo = tgbotapi.NewPhotoToChannel(t.channel, tgbotapi.FileURL(listing.ImageURL))
		} else {
			photo = tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(listing.ImageURL))
		}
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeMarkdown
		return photo
	}

	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}
