package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type listingMessage struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	ImageURL string    `json:"image_url,omitempty"`
	Platform string    `json:"platform"`
	Search   string    `json:"search"`
	FoundAt  time.Time `json:"found_at"`
}

// AMQP publishes every new listing as a JSON message for downstream consumers.
type AMQP struct {
	conn       *amqp.Connection
	channel    publisher
	exchange   string
	routingKey string
	now        func() time.Time
}

func NewAMQP(cfg config.AMQPConfig) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
		}
	}

	return &AMQP{conn: conn, channel: ch, exchange: cfg.Exchange, routingKey: cfg.RoutingKey, now: time.Now}, nil
}

func (a *AMQP) Name() string {
	return "AMQP"
}

func (a *AMQP) Notify(ctx context.Context, listing entities.Listing, searchName string) error {
	body, err := json.Marshal(listingMessage{
		ID:       listing.ID,
		Title:    listing.Title,
		URL:      listing.URL,
		ImageURL: listing.ImageURL,
		Platform: string(listing.Platform),
		Search:   searchName,
		FoundAt:  a.now().UTC(),
	})
	if err != nil {
		return err
	}

	err = a.channel.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    listing.ID,
		Timestamp:    a.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish listing %s: %w", listing.ID, err)
	}
	return nil
}

func (a *AMQP) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
