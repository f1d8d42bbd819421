package config

import (
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type MonitorConfig struct {
	CheckIntervalMinutes      int    `mapstructure:"check_interval_minutes" validate:"gt=0"`
	MaxNotificationsPerSearch int    `mapstructure:"max_notifications_per_search" validate:"gt=0"`
	RandomizationPercent      int    `mapstructure:"randomization_percent" validate:"gte=0,lte=100"`
	BaseURL                   string `mapstructure:"base_url" validate:"required,url"`
}

func (config MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(config.CheckIntervalMinutes) * time.Minute
}

func (config MonitorConfig) validate() error {
	return validate.Struct(config)
}

func (MonitorConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.check_interval_minutes", 15)
	v.SetDefault("monitor.max_notifications_per_search", 10)
	v.SetDefault("monitor.randomization_percent", 10)
	v.SetDefault("monitor.base_url", "https://www.vinted.pl")
}

func (MonitorConfig) bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("monitor.check_interval_minutes", "CHECK_INTERVAL_MINUTES"); err != nil {
		return err
	}
	return v.BindEnv("monitor.max_notifications_per_search", "MAX_NOTIFICATIONS_PER_SEARCH")
}

type SearchConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	URL      string `mapstructure:"url" validate:"required,url"`
	Platform string `mapstructure:"platform"`
	Wish     string `mapstructure:"wish"`
}

func (config SearchConfig) validate() error {
	return validate.Struct(config)
}

func (config SearchConfig) ToEntity() entities.SearchSpec {
	return entities.SearchSpec{
		Name:     config.Name,
		URL:      config.URL,
		Platform: config.Platform,
		Wish:     config.Wish,
	}
}

func (config Config) SearchSpecs() []entities.SearchSpec {
	return lo.Map(config.Searches, func(s SearchConfig, _ int) entities.SearchSpec {
		return s.ToEntity()
	})
}
