package stealth

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler(base time.Duration, percent int) *Scheduler {
	return NewSchedulerWithSource(base, percent, rand.NewPCG(1, 2))
}

func Test_Profile_ShouldStayWithinBounds(t *testing.T) {
	s := newTestScheduler(15*time.Minute, 10)

	for range 500 {
		p := s.Profile()

		assert.Contains(t, userAgents, p.UserAgent)
		assert.Contains(t, viewports, p.Viewport)
		assert.Equal(t, "en-US,en;q=0.5,pl;q=0.3", p.Headers["Accept-Language"])

		assert.GreaterOrEqual(t, len(p.Actions), 1)
		assert.LessOrEqual(t, len(p.Actions), 3)
		for _, a := range p.Actions {
			assert.GreaterOrEqual(t, a.Pause, 500*time.Millisecond)
			assert.LessOrEqual(t, a.Pause, 2*time.Second)
			assert.GreaterOrEqual(t, a.ScrollY, 0)
			assert.Less(t, a.ScrollY, 500)
		}

		if p.ReadingPause != 0 {
			assert.GreaterOrEqual(t, p.ReadingPause, 2*time.Second)
			assert.LessOrEqual(t, p.ReadingPause, 5*time.Second)
		}
		assert.GreaterOrEqual(t, p.SettlePause, 1*time.Second)
		assert.LessOrEqual(t, p.SettlePause, 3*time.Second)
	}
}

func Test_Profile_HeadersAreCopied(t *testing.T) {
	s := newTestScheduler(time.Minute, 10)

	p := s.Profile()
	p.Headers["Accept-Language"] = "de"

	assert.Equal(t, "en-US,en;q=0.5,pl;q=0.3", browserHeaders["Accept-Language"])
}

func Test_Profile_ReadingPauseIsOccasional(t *testing.T) {
	s := newTestScheduler(time.Minute, 10)

	withPause := 0
	const draws = 2000
	for range draws {
		if s.Profile().ReadingPause > 0 {
			withPause++
		}
	}

	ratio := float64(withPause) / draws
	assert.InDelta(t, 0.3, ratio, 0.05)
}

func Test_InterSearchDelay_ShouldFollowWeightedRanges(t *testing.T) {
	s := newTestScheduler(time.Minute, 10)

	normal := 0
	const draws = 5000
	for range draws {
		d := s.InterSearchDelay()
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.LessOrEqual(t, d, 25*time.Second)
		if d > 7*time.Second && d < 8*time.Second {
			t.Fatalf("delay %v falls in a gap between ranges", d)
		}
		if d >= 3*time.Second && d <= 7*time.Second {
			normal++
		}
	}

	assert.InDelta(t, 0.6, float64(normal)/draws, 0.05)
}

func Test_InterCycleDelay_ShouldRespectFloorAndBounds(t *testing.T) {
	base := 15 * time.Minute
	s := newTestScheduler(base, 10)

	for range 1000 {
		d := s.InterCycleDelay(30 * time.Second)
		// Doubling makes the widest possible spread ±20%.
		assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.8)-30*time.Second)
		assert.LessOrEqual(t, d, time.Duration(float64(base)*1.2)-30*time.Second)
	}
}

func Test_InterCycleDelay_WhenCycleIsLong_ShouldFloorAtOneMinute(t *testing.T) {
	s := newTestScheduler(2*time.Minute, 10)

	assert.Equal(t, 60*time.Second, s.InterCycleDelay(10*time.Minute))
}

func Test_InterCycleDelay_WhenNoRandomization_ShouldSubtractCycleDuration(t *testing.T) {
	s := newTestScheduler(15*time.Minute, 0)

	assert.Equal(t, 14*time.Minute, s.InterCycleDelay(time.Minute))
}

func Test_NotificationGap_ShouldStayWithinBounds(t *testing.T) {
	s := newTestScheduler(time.Minute, 10)

	for range 200 {
		d := s.NotificationGap()
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}
