package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	Searches      []SearchConfig      `mapstructure:"searches"`
	Fetcher       FetcherConfig       `mapstructure:"fetcher"`
	State         StateConfig         `mapstructure:"state"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	AI            AIConfig            `mapstructure:"ai"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

const DefaultConfigFile = "./configs/config.yaml"

var validate = validator.New()

// Get loads the configuration or terminates the process. An empty file means
// CONFIG_PATH or DefaultConfigFile.
func Get(file string) *Config {
	config, err := Load(file)
	if err != nil {
		log.Fatal(err)
	}
	return config
}

func Load(file string) (*Config, error) {

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("couldn't load .env file: %v", err)
	}

	if file == "" {
		file = DefaultConfigFile
		if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
			file = value
		}
	}

	v := viper.New()
	v.SetConfigFile(file)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := bindEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	LoggerConfig{}.setDefaults(v)
	MonitorConfig{}.setDefaults(v)
	FetcherConfig{}.setDefaults(v)
	StateConfig{}.setDefaults(v)
	NotificationsConfig{}.setDefaults(v)
	AIConfig{}.setDefaults(v)
	MetricsConfig{}.setDefaults(v)
}

func bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	if err := (LoggerConfig{}).bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := (MonitorConfig{}).bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("MonitorConfig: %w", err))
	}

	if err := (StateConfig{}).bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("StateConfig: %w", err))
	}

	if err := (NotificationsConfig{}).bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("NotificationsConfig: %w", err))
	}

	if err := (AIConfig{}).bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := config.Monitor.validate(); err != nil {
		errs = append(errs, fmt.Errorf("MonitorConfig: %w", err))
	}

	for i, search := range config.Searches {
		if err := search.validate(); err != nil {
			errs = append(errs, fmt.Errorf("SearchConfig #%d: %w", i+1, err))
		}
	}

	if err := config.Fetcher.validate(); err != nil {
		errs = append(errs, fmt.Errorf("FetcherConfig: %w", err))
	}

	if err := config.State.validate(); err != nil {
		errs = append(errs, fmt.Errorf("StateConfig: %w", err))
	}

	if err := config.AI.validate(); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func (MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":8080")
}
