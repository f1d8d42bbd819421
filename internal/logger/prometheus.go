package logger

import (
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const unclassified = "unknown"

// errorCounterHook counts error entries by their error_type field.
type errorCounterHook struct{}

// newErrorCounterHook creates the series of every known error type at zero.
func newErrorCounterHook() *errorCounterHook {
	for _, errorType := range []string{ErrorTypeFetch, ErrorTypeExtract, ErrorTypeNotify, ErrorTypeState, ErrorTypeAiApi, ErrorTypeConfig} {
		metrics.ErrorsCounter.WithLabelValues(errorType)
	}
	return &errorCounterHook{}
}

func (h *errorCounterHook) Fire(entry *log.Entry) error {
	errorType, ok := entry.Data[ErrorTypeField].(string)
	if !ok || errorType == "" {
		errorType = unclassified
	}
	metrics.ErrorsCounter.WithLabelValues(errorType).Inc()
	return nil
}

func (h *errorCounterHook) Levels() []log.Level {
	return []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
}

func addPrometheusHook() {
	log.AddHook(newErrorCounterHook())
}
