package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	log "github.com/sirupsen/logrus"
)

const ErrorTypeField = "error_type"

const (
	ErrorTypeFetch   = "fetch"
	ErrorTypeExtract = "extract"
	ErrorTypeNotify  = "notify"
	ErrorTypeState   = "state"
	ErrorTypeAiApi   = "ai_api"
	ErrorTypeConfig  = "config"
)

var (
	logFile  *os.File
	cleanups []func()
)

func Setup(ctx context.Context, cfg config.LoggerConfig) {

	if dir := filepath.Dir(cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
	}

	var err error
	logFile, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000 -0700",
	})
	log.SetLevel(parseLevel(cfg.LogLevel))

	addPrometheusHook()

	if cfg.LokiURL != "" {
		if err := addLokiHook(ctx, cfg); err != nil {
			log.Warnf("Loki logging disabled: %v", err)
		}
	}

	if cfg.FluentHost != "" {
		if err := addFluentHook(cfg); err != nil {
			log.Warnf("Fluentd logging disabled: %v", err)
		}
	}
}

func parseLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LevelDebug:
		return log.DebugLevel
	case config.LevelWarning:
		return log.WarnLevel
	case config.LevelError:
		return log.ErrorLevel
	case config.LevelFatal:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func Cleanup() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
