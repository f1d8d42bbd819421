package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/pkg/loki"
	log "github.com/sirupsen/logrus"
)

const sourceField = "source"

type logrusAdapter struct{}

func (l *logrusAdapter) Error(msg string, args ...any) {
	log.WithFields(log.Fields{"args": args, sourceField: "loki"}).Error(msg)
}

type lokiHook struct {
	pusher *loki.Pusher
}

func (h *lokiHook) Fire(entry *log.Entry) error {
	if entry.Data[sourceField] == "loki" {
		return nil
	}

	caller := ""
	if entry.Caller != nil {
		caller = filepath.Base(entry.Caller.Function) + ":" + strconv.Itoa(entry.Caller.Line)
	}

	h.pusher.Push(loki.Entry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
		Caller:  caller,
		Fields:  stringFields(entry.Data),
	})
	return nil
}

func (h *lokiHook) Levels() []log.Level {
	return log.AllLevels
}

func stringFields(data log.Fields) map[string]string {
	if len(data) == 0 {
		return nil
	}
	fields := make(map[string]string, len(data))
	for k, v := range data {
		if err, ok := v.(error); ok {
			fields[k] = err.Error()
			continue
		}
		fields[k] = fmt.Sprint(v)
	}
	return fields
}

type stoppablePusher interface {
	Dropped() int64
	Stop()
}

func stopPusher(pusher stoppablePusher) {
	if dropped := pusher.Dropped(); dropped > 0 {
		log.Warnf("Loki queue was full, %d log entries were dropped", dropped)
	}
	pusher.Stop()
}

func addLokiHook(ctx context.Context, cfg config.LoggerConfig) error {
	pusher, err := loki.New(ctx, loki.Config{
		Url:      cfg.LokiURL,
		Username: cfg.LokiUser,
		Password: cfg.LokiPassword,
		Labels:   map[string]string{"app": cfg.AppName},
	}, nil, &logrusAdapter{})
	if err != nil {
		return err
	}

	log.AddHook(&lokiHook{pusher: pusher})
	cleanups = append(cleanups, func() { stopPusher(pusher) })
	log.Info("Loki logging enabled")
	return nil
}
