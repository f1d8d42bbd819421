package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type FetcherBackend string

const (
	BackendDirect        FetcherBackend = "direct"
	BackendRenderService FetcherBackend = "render_service"
)

type FetcherConfig struct {
	Backend              FetcherBackend `mapstructure:"backend" validate:"oneof=direct render_service"`
	RenderServiceURL     string         `mapstructure:"render_service_url"`
	Timeout              time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	MaxRequestsPerSecond float32        `mapstructure:"max_requests_per_second" validate:"gte=0"` // render service only, 0 is unlimited
}

func (config FetcherConfig) validate() error {
	if err := validate.Struct(config); err != nil {
		return err
	}
	if config.Backend == BackendRenderService && config.RenderServiceURL == "" {
		return fmt.Errorf("missing variable: render_service_url")
	}
	return nil
}

func (FetcherConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("fetcher.backend", string(BackendDirect))
	v.SetDefault("fetcher.timeout", "15s")
	v.SetDefault("fetcher.max_requests_per_second", 0.5)
}
