package logger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	log "github.com/sirupsen/logrus"
)

type fluentPoster interface {
	Post(tag string, message interface{}) error
}

type fluentHook struct {
	client fluentPoster
}

func (h *fluentHook) Fire(entry *log.Entry) error {
	data := make(map[string]string, len(entry.Data)+3)
	for k, v := range stringFields(entry.Data) {
		data[k] = v
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)

	// Post errors are ignored.
	_ = h.client.Post(entry.Level.String(), data)
	return nil
}

func (h *fluentHook) Levels() []log.Level {
	return log.AllLevels
}

func addFluentHook(cfg config.LoggerConfig) error {
	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
		TagPrefix:  cfg.AppName,
		Async:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to create fluentd logger: %w", err)
	}

	log.AddHook(&fluentHook{client: client})
	cleanups = append(cleanups, func() { _ = client.Close() })
	log.Infof("Fluentd logging enabled (%s:%d)", cfg.FluentHost, cfg.FluentPort)
	return nil
}
