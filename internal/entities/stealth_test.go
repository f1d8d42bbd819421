package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_StealthProfile_InteractionTime_ShouldSumEveryPause(t *testing.T) {
	profile := StealthProfile{
		Actions: []BrowsingAction{
			{ScrollY: 300, Pause: 700 * time.Millisecond},
			{ScrollY: 900, Pause: 1200 * time.Millisecond},
		},
		ReadingPause: 3 * time.Second,
		SettlePause:  time.Second,
	}

	assert.Equal(t, 5900*time.Millisecond, profile.InteractionTime())
}

func Test_StealthProfile_InteractionTime_WhenEmpty_ShouldBeZero(t *testing.T) {
	assert.Zero(t, StealthProfile{}.InteractionTime())
}
