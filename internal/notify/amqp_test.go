package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	published []publishedMessage
	err       error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func Test_AMQP_ShouldPublishListingAsJSON(t *testing.T) {
	pub := &fakePublisher{}
	foundAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	channel := &AMQP{channel: pub, exchange: "vinted", routingKey: "listings.new", now: func() time.Time { return foundAt }}

	require.NoError(t, channel.Notify(context.Background(), testListing, "Sneakers"))

	require.Len(t, pub.published, 1)
	got := pub.published[0]
	assert.Equal(t, "vinted", got.exchange)
	assert.Equal(t, "listings.new", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, testListing.ID, got.msg.MessageId)

	var body listingMessage
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, listingMessage{
		ID:       testListing.ID,
		Title:    testListing.Title,
		URL:      testListing.URL,
		ImageURL: testListing.ImageURL,
		Platform: "Vinted",
		Search:   "Sneakers",
		FoundAt:  foundAt,
	}, body)
}

func Test_AMQP_WhenPublishFails_ShouldReturnError(t *testing.T) {
	channel := &AMQP{channel: &fakePublisher{err: errors.New("channel closed")}, routingKey: "listings.new", now: time.Now}

	assert.ErrorContains(t, channel.Notify(context.Background(), testListing, "Sneakers"), "channel closed")
}
