package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/pkg/ctxsleep"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	discordAttempts       = 3
	discordFieldLimit     = 1024
	discordEmbedColor     = 0x00ff00
	discordUserAgent      = "Vinted-Monitor/1.0"
	discordRequestTimeout = 15 * time.Second
	webhookPlaceholder    = "YOUR_DISCORD_WEBHOOK_URL_HERE"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
	Footer      discordFooter  `json:"footer"`
	Image       *discordImage  `json:"image,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordImage struct {
	URL string `json:"url"`
}

type Discord struct {
	webhookURL  string
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	sleep       ctxsleep.Func
	now         func() time.Time
}

func NewDiscord(cfg config.DiscordConfig) *Discord {
	d := &Discord{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: discordRequestTimeout},
		sleep:      ctxsleep.Sleep,
		now:        time.Now,
	}
	if cfg.MaxRequestsPerSecond > 0 {
		d.rateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1)
	}
	return d
}

func (d *Discord) SetHTTPClient(client HTTPClient) {
	d.httpClient = client
}

func (d *Discord) Name() string {
	return "Discord"
}

// Notify posts the listing embed, retrying with 1s and 2s backoff.
func (d *Discord) Notify(ctx context.Context, listing entities.Listing, searchName string) error {
	if d.webhookURL == "" || d.webhookURL == webhookPlaceholder {
		log.Warn("Discord enabled but webhook URL not configured - skipping Discord notification")
		return nil
	}

	body, err := json.Marshal(d.buildPayload(listing, searchName))
	if err != nil {
		return fmt.Errorf("error encoding discord payload: %w", err)
	}

	attempts, err := lo.AttemptWhile(discordAttempts, func(i int) (error, bool) {
		if i > 0 {
			backoff := time.Duration(math.Pow(2, float64(i-1))) * time.Second
			if err := d.sleep(ctx, backoff); err != nil {
				return err, false
			}
		}
		err := d.send(ctx, body)
		if err != nil {
			log.Warnf("Discord request error on attempt %d/%d: %v", i+1, discordAttempts, err)
		}
		return err, ctx.Err() == nil
	})
	if err != nil {
		return fmt.Errorf("%w: discord gave up after %d attempts: %w", ErrDeliveryFailed, attempts, err)
	}

	log.Info("Discord notification sent successfully")
	return nil
}

func (d *Discord) buildPayload(listing entities.Listing, searchName string) discordPayload {
	details := fmt.Sprintf("%s\n\n[🔗 View Listing](%s)", listing.Title, listing.URL)

	embed := discordEmbed{
		Title:       fmt.Sprintf("🔍 New %s Listing Found!", listing.Platform),
		Description: fmt.Sprintf("**Search:** %s", searchName),
		Color:       discordEmbedColor,
		Fields: []discordField{
			{Name: "Item Details", Value: entities.Truncate(details, discordFieldLimit)},
		},
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Footer:    discordFooter{Text: fmt.Sprintf("%s Monitor • ID: %s", listing.Platform, listing.ID)},
	}
	if listing.HasImage() {
		embed.Image = &discordImage{URL: listing.ImageURL}
	}
	return discordPayload{Embeds: []discordEmbed{embed}}
}

func (d *Discord) send(ctx context.Context, body []byte) error {
	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", discordUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook responded with status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
