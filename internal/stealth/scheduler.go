package stealth

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

var viewports = []entities.Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1366, Height: 768},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
	{Width: 1600, Height: 900},
	{Width: 1280, Height: 720},
}

var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5,pl;q=0.3",
	"Accept-Encoding":           "gzip, deflate, br",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
}

type delayRange struct {
	min, max time.Duration
	weight   float64
}

var interSearchRanges = []delayRange{
	{min: 3 * time.Second, max: 7 * time.Second, weight: 0.6},
	{min: 8 * time.Second, max: 15 * time.Second, weight: 0.25},
	{min: 1 * time.Second, max: 3 * time.Second, weight: 0.1},
	{min: 15 * time.Second, max: 25 * time.Second, weight: 0.05},
}

const (
	minInterCycleDelay    = 60 * time.Second
	readingPauseChance    = 0.3
	doubleRandomizeChance = 0.2
	maxScrollActions      = 3
	shallowScrollDepth    = 300
	deepScrollDepth       = 500
)

// Scheduler draws every randomized delay the monitor uses.
// It is safe for concurrent use.
type Scheduler struct {
	mu                   sync.Mutex
	rnd                  *rand.Rand
	baseInterval         time.Duration
	randomizationPercent float64
}

func NewScheduler(baseInterval time.Duration, randomizationPercent int) *Scheduler {
	return NewSchedulerWithSource(baseInterval, randomizationPercent, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func NewSchedulerWithSource(baseInterval time.Duration, randomizationPercent int, src rand.Source) *Scheduler {
	return &Scheduler{
		rnd:                  rand.New(src),
		baseInterval:         baseInterval,
		randomizationPercent: float64(randomizationPercent),
	}
}

func (s *Scheduler) uniform(min, max time.Duration) time.Duration {
	return min + time.Duration(s.rnd.Float64()*float64(max-min))
}

// Profile builds the disguise and interaction script for one page load.
func (s *Scheduler) Profile() entities.StealthProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers := make(map[string]string, len(browserHeaders))
	for k, v := range browserHeaders {
		headers[k] = v
	}

	profile := entities.StealthProfile{
		UserAgent: userAgents[s.rnd.IntN(len(userAgents))],
		Viewport:  viewports[s.rnd.IntN(len(viewports))],
		Headers:   headers,
	}

	actions := 1 + s.rnd.IntN(maxScrollActions)
	for range actions {
		profile.Actions = append(profile.Actions, entities.BrowsingAction{
			ScrollY: s.scrollTarget(),
			Pause:   s.uniform(500*time.Millisecond, 2*time.Second),
		})
	}

	if s.rnd.Float64() < readingPauseChance {
		profile.ReadingPause = s.uniform(2*time.Second, 5*time.Second)
	}
	profile.SettlePause = s.uniform(1*time.Second, 3*time.Second)
	return profile
}

func (s *Scheduler) scrollTarget() int {
	switch s.rnd.IntN(3) {
	case 0:
		return s.rnd.IntN(shallowScrollDepth)
	case 1:
		return s.rnd.IntN(deepScrollDepth)
	default:
		return 0
	}
}

func (s *Scheduler) InterSearchDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, r := range interSearchRanges {
		total += r.weight
	}

	pick := s.rnd.Float64() * total
	for _, r := range interSearchRanges {
		if pick < r.weight {
			return s.uniform(r.min, r.max)
		}
		pick -= r.weight
	}
	last := interSearchRanges[len(interSearchRanges)-1]
	return s.uniform(last.min, last.max)
}

// InterCycleDelay subtracts the cycle's own duration so the wall-clock period stays near the base interval.
func (s *Scheduler) InterCycleDelay(cycleDuration time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent := s.randomizationPercent
	if s.rnd.Float64() < doubleRandomizeChance {
		percent *= 2
	}

	offset := (s.rnd.Float64()*2 - 1) * percent / 100
	delay := time.Duration(float64(s.baseInterval)*(1+offset)) - cycleDuration
	return max(minInterCycleDelay, delay)
}

func (s *Scheduler) NotificationGap() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uniform(1*time.Second, 3*time.Second)
}
