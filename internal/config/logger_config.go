package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelDebug   LogLevel = "DEBUG"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
	LevelFatal   LogLevel = "FATAL"
)

type LoggerConfig struct {
	LogLevel     LogLevel `mapstructure:"log_level"`
	AppName      string   `mapstructure:"app_name"`
	OutputFile   string   `mapstructure:"output_file"`
	LokiURL      string   `mapstructure:"loki_url"`
	LokiUser     string   `mapstructure:"loki_user"`
	LokiPassword string   `mapstructure:"loki_password"`
	FluentHost   string   `mapstructure:"fluent_host"`
	FluentPort   int      `mapstructure:"fluent_port"`
}

func (config LoggerConfig) validate() error {
	var errs []error

	switch config.LogLevel {
	case LevelInfo, LevelDebug, LevelWarning, LevelError, LevelFatal:
	case "":
		errs = append(errs, fmt.Errorf("missing variable: log_level"))
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", config.LogLevel))
	}

	if config.OutputFile == "" {
		errs = append(errs, fmt.Errorf("missing variable: output_file"))
	}

	if config.FluentHost != "" && config.FluentPort <= 0 {
		errs = append(errs, fmt.Errorf("fluent_port must be positive when fluent_host is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (LoggerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", string(LevelInfo))
	v.SetDefault("logger.app_name", "vinted-monitor")
	v.SetDefault("logger.output_file", "./logs/monitor.log")
	v.SetDefault("logger.fluent_port", 24224)
}

func (LoggerConfig) bindEnvironmentVariables(v *viper.Viper) error {

	err := v.BindEnv("logger.loki_url", "LOKI_URL")
	if err != nil {
		return err
	}

	err = v.BindEnv("logger.loki_user", "LOKI_USER")
	if err != nil {
		return err
	}

	err = v.BindEnv("logger.loki_password", "LOKI_PASSWORD")
	if err != nil {
		return err
	}

	err = v.BindEnv("logger.fluent_host", "FLUENT_HOST")
	if err != nil {
		return err
	}

	err = v.BindEnv("logger.app_name", "APP_NAME")
	if err != nil {
		return err
	}

	return v.BindEnv("logger.log_level", "LOG_LEVEL")
}
