package config

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const discordWebhookPlaceholder = "YOUR_DISCORD_WEBHOOK_URL_HERE"

type ChannelState int

const (
	ChannelDisabled ChannelState = iota
	ChannelReady
	ChannelMisconfigured
)

// ChannelCheck is the outcome of validating one notification channel config.
// A misconfigured channel is skipped with a warning, it never stops the monitor.
type ChannelCheck struct {
	Channel string
	State   ChannelState
	Missing []string
}

func (c ChannelCheck) Ready() bool {
	return c.State == ChannelReady
}

func (c ChannelCheck) String() string {
	switch c.State {
	case ChannelReady:
		return "✅ Enabled"
	case ChannelMisconfigured:
		return "⚠️ Enabled but missing " + strings.Join(c.Missing, ", ")
	default:
		return "❌ Disabled"
	}
}

func check(channel string, enabled bool, required map[string]string) ChannelCheck {
	if !enabled {
		return ChannelCheck{Channel: channel, State: ChannelDisabled}
	}

	var missing []string
	for _, name := range sortedKeys(required) {
		if strings.TrimSpace(required[name]) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return ChannelCheck{Channel: channel, State: ChannelMisconfigured, Missing: missing}
	}
	return ChannelCheck{Channel: channel, State: ChannelReady}
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

type DiscordConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	WebhookURL           string  `mapstructure:"webhook_url"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`
}

func (config DiscordConfig) Check() ChannelCheck {
	webhook := config.WebhookURL
	if webhook == discordWebhookPlaceholder {
		webhook = ""
	}
	return check("Discord", config.Enabled, map[string]string{"webhook_url": webhook})
}

type TelegramConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	BotToken             string  `mapstructure:"bot_token"`
	ChatID               string  `mapstructure:"chat_id"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`
}

func (config TelegramConfig) Check() ChannelCheck {
	return check("Telegram", config.Enabled, map[string]string{
		"bot_token": config.BotToken,
		"chat_id":   config.ChatID,
	})
}

type ToastConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AppName string `mapstructure:"app_name"`
}

func (config ToastConfig) Check() ChannelCheck {
	return check("Toast", config.Enabled, map[string]string{"app_name": config.AppName})
}

type AMQPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

func (config AMQPConfig) Check() ChannelCheck {
	return check("AMQP", config.Enabled, map[string]string{
		"url":         config.URL,
		"routing_key": config.RoutingKey,
	})
}

type NotificationsConfig struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Toast    ToastConfig    `mapstructure:"toast"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

func (config NotificationsConfig) Checks() []ChannelCheck {
	return []ChannelCheck{
		config.Discord.Check(),
		config.Telegram.Check(),
		config.Toast.Check(),
		config.AMQP.Check(),
	}
}

func (NotificationsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("notifications.discord.enabled", false)
	v.SetDefault("notifications.discord.max_requests_per_second", 1)
	v.SetDefault("notifications.telegram.enabled", false)
	v.SetDefault("notifications.telegram.max_requests_per_second", 1)
	v.SetDefault("notifications.toast.enabled", false)
	v.SetDefault("notifications.toast.app_name", "Vinted Monitor")
	v.SetDefault("notifications.amqp.enabled", false)
	v.SetDefault("notifications.amqp.exchange", "")
	v.SetDefault("notifications.amqp.routing_key", "listings.new")
}

func (NotificationsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	binds := map[string]string{
		"notifications.discord.webhook_url": "DISCORD_WEBHOOK_URL",
		"notifications.telegram.bot_token":  "TELEGRAM_BOT_TOKEN",
		"notifications.telegram.chat_id":    "TELEGRAM_CHAT_ID",
		"notifications.amqp.url":            "AMQP_URL",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}
