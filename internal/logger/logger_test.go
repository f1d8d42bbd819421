package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type postedMessage struct {
	tag  string
	data map[string]string
}

type fakeFluent struct {
	posted []postedMessage
}

func (f *fakeFluent) Post(tag string, message interface{}) error {
	f.posted = append(f.posted, postedMessage{tag: tag, data: message.(map[string]string)})
	return errors.New("connection refused")
}

func Test_ParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, parseLevel(config.LevelDebug))
	assert.Equal(t, log.WarnLevel, parseLevel(config.LevelWarning))
	assert.Equal(t, log.ErrorLevel, parseLevel(config.LevelError))
	assert.Equal(t, log.FatalLevel, parseLevel(config.LevelFatal))
	assert.Equal(t, log.InfoLevel, parseLevel(config.LevelInfo))
}

func Test_PrometheusHook_ShouldCountByErrorType(t *testing.T) {
	hook := newErrorCounterHook()
	before := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeFetch))
	unknownBefore := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown"))

	_ = hook.Fire(&log.Entry{Data: log.Fields{ErrorTypeField: ErrorTypeFetch}})
	_ = hook.Fire(&log.Entry{Data: log.Fields{}})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeFetch)))
	assert.Equal(t, unknownBefore+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown")))
}

func Test_FluentHook_WhenPostFails_ShouldNotReturnError(t *testing.T) {
	client := &fakeFluent{}
	hook := &fluentHook{client: client}

	err := hook.Fire(&log.Entry{
		Time:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "channel misconfigured",
		Data:    log.Fields{"channel": "Discord", "error": errors.New("missing webhook_url")},
	})

	assert.NoError(t, err)
	if assert.Len(t, client.posted, 1) {
		msg := client.posted[0]
		assert.Equal(t, "warning", msg.tag)
		assert.Equal(t, "channel misconfigured", msg.data["message"])
		assert.Equal(t, "Discord", msg.data["channel"])
		assert.Equal(t, "missing webhook_url", msg.data["error"])
		assert.Equal(t, "2024-05-01T12:00:00Z", msg.data["timestamp"])
	}
}

type fakePusher struct {
	dropped int64
	stopped bool
}

func (p *fakePusher) Dropped() int64 { return p.dropped }
func (p *fakePusher) Stop()          { p.stopped = true }

func Test_StopPusher_WhenEntriesWereDropped_ShouldWarn(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	pusher := &fakePusher{dropped: 3}
	stopPusher(pusher)

	assert.True(t, pusher.stopped)
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
		assert.Contains(t, hook.LastEntry().Message, "3 log entries were dropped")
	}
}

func Test_StopPusher_WhenNothingDropped_ShouldStaySilent(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	pusher := &fakePusher{}
	stopPusher(pusher)

	assert.True(t, pusher.stopped)
	assert.Empty(t, hook.AllEntries())
}
