package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type AIConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	Key                  string  `mapstructure:"key"`
	Model                string  `mapstructure:"model"`
	MaxRequestsPerMinute float32 `mapstructure:"max_requests_per_minute"`
}

func (config AIConfig) validate() error {
	if !config.Enabled {
		return nil
	}
	if config.Key == "" {
		return fmt.Errorf("missing required variables: key")
	}
	if config.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("max_requests_per_minute must be positive")
	}
	return nil
}

func (AIConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.max_requests_per_minute", 10)
}

func (AIConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("ai.key", "AI_KEY")
}
