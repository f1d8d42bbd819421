package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramAPI struct {
	mock.Mock
}

func (m *mockTelegramAPI) Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(chattable)
	return tgbotapi.Message{}, args.Error(0)
}

func Test_Telegram_WithImage_ShouldSendPhotoWithCaption(t *testing.T) {
	api := &mockTelegramAPI{}
	api.On("Send", mock.Anything).Return(nil)

	telegram := newTelegram(api, config.TelegramConfig{ChatID: "12345"})
	require.NoError(t, telegram.Notify(context.Background(), testListing, "Sneakers"))

	sent := api.Calls[0].Arguments.Get(0)
	photo, ok := sent.(tgbotapi.PhotoConfig)
	require.True(t, ok, "expected a photo, got %T", sent)
	assert.Equal(t, int64(12345), photo.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, photo.ParseMode)
	assert.Equal(t, tgbotapi.FileURL(testListing.ImageURL), photo.File)
	assert.Equal(t, "🔍 *New Vinted Listing Found!*\n\n*Search:* Sneakers\n\n"+testListing.Title+
		"\n\n[View Listing]("+testListing.URL+")", photo.Caption)
}

func Test_Telegram_WithoutImage_ShouldSendText(t *testing.T) {
	api := &mockTelegramAPI{}
	api.On("Send", mock.Anything).Return(nil)

	listing := testListing
	listing.ImageURL = ""

	telegram := newTelegram(api, config.TelegramConfig{ChatID: "@vinted_alerts"})
	require.NoError(t, telegram.Notify(context.Background(), listing, "Sneakers"))

	msg, ok := api.Calls[0].Arguments.Get(0).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "@vinted_alerts", msg.ChannelUsername)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "*Search:* Sneakers")
}

func Test_Telegram_WhenSendFails_ShouldNotRetry(t *testing.T) {
	api := &mockTelegramAPI{}
	api.On("Send", mock.Anything).Return(errors.New("Bad Request: chat not found"))

	telegram := newTelegram(api, config.TelegramConfig{ChatID: "12345"})
	err := telegram.Notify(context.Background(), testListing, "Sneakers")

	assert.ErrorContains(t, err, "chat not found")
	api.AssertNumberOfCalls(t, "Send", 1)
}
