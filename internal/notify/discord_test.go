package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWebhook = "https://discord.com/api/webhooks/123/token"

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func statusResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func newTestDiscord(webhook string) (*Discord, *[]time.Duration) {
	var sleeps []time.Duration
	d := NewDiscord(config.DiscordConfig{Enabled: true, WebhookURL: webhook})
	d.sleep = func(_ context.Context, dur time.Duration) error {
		sleeps = append(sleeps, dur)
		return nil
	}
	d.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return d, &sleeps
}

func Test_Discord_WhenWebhookKeepsFailing_ShouldTryExactlyThreeTimes(t *testing.T) {
	client := &mockHTTPClient{}
	client.On("Do", mock.Anything).Return(statusResponse(http.StatusInternalServerError), nil)

	discord, sleeps := newTestDiscord(testWebhook)
	discord.SetHTTPClient(client)

	err := discord.Notify(context.Background(), testListing, "Sneakers")

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	client.AssertNumberOfCalls(t, "Do", 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func Test_Discord_WhenTransportRecovers_ShouldStopRetrying(t *testing.T) {
	client := &mockHTTPClient{}
	client.On("Do", mock.Anything).Return(nil, errors.New("tls handshake timeout")).Once()
	client.On("Do", mock.Anything).Return(statusResponse(http.StatusNoContent), nil).Once()

	discord, sleeps := newTestDiscord(testWebhook)
	discord.SetHTTPClient(client)

	err := discord.Notify(context.Background(), testListing, "Sneakers")

	assert.NoError(t, err)
	client.AssertNumberOfCalls(t, "Do", 2)
	assert.Equal(t, []time.Duration{time.Second}, *sleeps)
}

func Test_Discord_WhenPlaceholderWebhook_ShouldSkipWithoutError(t *testing.T) {
	client := &mockHTTPClient{}

	discord, _ := newTestDiscord("YOUR_DISCORD_WEBHOOK_URL_HERE")
	discord.SetHTTPClient(client)

	assert.NoError(t, discord.Notify(context.Background(), testListing, "Sneakers"))
	client.AssertNotCalled(t, "Do", mock.Anything)
}

func Test_Discord_ShouldPostEmbed(t *testing.T) {
	defer gock.Off()

	var payload discordPayload
	gock.New("https://discord.com").
		Post("/api/webhooks/123/token").
		MatchHeader("User-Agent", "Vinted-Monitor/1.0").
		MatchType("json").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return true, json.NewDecoder(req.Body).Decode(&payload)
		}).
		Reply(http.StatusNoContent)

	discord, _ := newTestDiscord(testWebhook)

	require.NoError(t, discord.Notify(context.Background(), testListing, "Sneakers"))
	assert.True(t, gock.IsDone())

	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]
	assert.Equal(t, "🔍 New Vinted Listing Found!", embed.Title)
	assert.Equal(t, "**Search:** Sneakers", embed.Description)
	assert.Equal(t, 0x00ff00, embed.Color)
	assert.Equal(t, "2024-05-01T12:00:00Z", embed.Timestamp)
	assert.Equal(t, "Vinted Monitor • ID: 6787407871", embed.Footer.Text)
	require.NotNil(t, embed.Image)
	assert.Equal(t, testListing.ImageURL, embed.Image.URL)
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Value, "[🔗 View Listing](https://www.vinted.pl/items/6787407871-nike-air-max-90)")
}

func Test_Discord_BuildPayload_ShouldCapDetailsAndOmitMissingImage(t *testing.T) {
	discord, _ := newTestDiscord(testWebhook)
	listing := testListing
	listing.ImageURL = ""
	listing.Title = strings.Repeat("ż", 2000)

	payload := discord.buildPayload(listing, "Sneakers")

	embed := payload.Embeds[0]
	assert.Nil(t, embed.Image)
	assert.Len(t, []rune(embed.Fields[0].Value), 1024)
}
