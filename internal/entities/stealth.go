package entities

import "time"

type Viewport struct {
	Width  int
	Height int
}

// BrowsingAction is one simulated interaction: scroll the page to ScrollY, then wait Pause.
type BrowsingAction struct {
	ScrollY int
	Pause   time.Duration
}

// StealthProfile is applied by a fetcher to a single page load.
type StealthProfile struct {
	UserAgent    string
	Viewport     Viewport
	Headers      map[string]string
	Actions      []BrowsingAction
	ReadingPause time.Duration
	SettlePause  time.Duration
}

// InteractionTime is the total simulated time spent on the page before extraction.
func (p StealthProfile) InteractionTime() time.Duration {
	total := p.ReadingPause + p.SettlePause
	for _, action := range p.Actions {
		total += action.Pause
	}
	return total
}
