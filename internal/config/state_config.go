package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type StateDriver string

const (
	StateFile     StateDriver = "file"
	StateSQLite   StateDriver = "sqlite"
	StatePostgres StateDriver = "postgres"
	StateRedis    StateDriver = "redis"
)

type StateConfig struct {
	Driver         StateDriver `mapstructure:"driver" validate:"oneof=file sqlite postgres redis"`
	Path           string      `mapstructure:"path"`
	DSN            string      `mapstructure:"dsn"`
	RedisAddr      string      `mapstructure:"redis_addr"`
	RedisPassword  string      `mapstructure:"redis_password"`
	RedisKey       string      `mapstructure:"redis_key"`
	ReportSchedule string      `mapstructure:"report_schedule"`
	WarnThreshold  int         `mapstructure:"warn_threshold" validate:"gte=0"`
}

func (config StateConfig) validate() error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	switch config.Driver {
	case StateFile, StateSQLite:
		if config.Path == "" {
			return fmt.Errorf("missing variable: path (required by %s driver)", config.Driver)
		}
	case StatePostgres:
		if config.DSN == "" {
			return fmt.Errorf("missing variable: dsn (required by postgres driver)")
		}
	case StateRedis:
		if config.RedisAddr == "" {
			return fmt.Errorf("missing variable: redis_addr (required by redis driver)")
		}
	}
	return nil
}

func (StateConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("state.driver", string(StateFile))
	v.SetDefault("state.path", "seen_listings.json")
	v.SetDefault("state.redis_key", "vinted-monitor:seen")
	v.SetDefault("state.report_schedule", "0 * * * *")
	v.SetDefault("state.warn_threshold", 100000)
}

func (StateConfig) bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("state.dsn", "STATE_DSN"); err != nil {
		return err
	}
	return v.BindEnv("state.redis_password", "REDIS_PASSWORD")
}
