package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/internal/logger"
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	"github.com/miciek335/vinted-listing-tracker/pkg/ctxsleep"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNoSearches = errors.New("no searches configured")

type pageFetcher interface {
	Render(ctx context.Context, url string, profile entities.StealthProfile) (entities.RawPage, error)
}

type listingExtractor interface {
	Extract(page entities.RawPage) []entities.Listing
}

type listingNotifier interface {
	Notify(ctx context.Context, listing entities.Listing, searchName string) int
}

type delayScheduler interface {
	Profile() entities.StealthProfile
	InterSearchDelay() time.Duration
	InterCycleDelay(cycleDuration time.Duration) time.Duration
	NotificationGap() time.Duration
}

type relevanceChecker interface {
	IsRelevant(ctx context.Context, search entities.SearchSpec, listing entities.Listing) (bool, error)
}

// CycleSummary describes the last finished monitoring cycle.
type CycleSummary struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Searches    int           `json:"searches"`
	Failed      int           `json:"failed"`
	Extracted   int           `json:"extracted"`
	NewListings int           `json:"new_listings"`
	Notified    int           `json:"notified"`
}

type searchResult struct {
	failed      bool
	extracted   int
	newListings int
	notified    int
}

type Monitor struct {
	searches  []entities.SearchSpec
	window    int
	fetcher   pageFetcher
	extractor listingExtractor
	notifier  listingNotifier
	scheduler delayScheduler
	seen      *SeenListings
	relevance relevanceChecker
	sleep     ctxsleep.Func

	mu        sync.RWMutex
	lastCycle *CycleSummary
}

func NewMonitor(searches []entities.SearchSpec, maxNotificationsPerSearch int, fetcher pageFetcher,
	extractor listingExtractor, notifier listingNotifier, scheduler delayScheduler, seen *SeenListings) (*Monitor, error) {

	if len(searches) == 0 {
		return nil, ErrNoSearches
	}
	if maxNotificationsPerSearch <= 0 {
		return nil, fmt.Errorf("max notifications per search must be positive, got %d", maxNotificationsPerSearch)
	}

	return &Monitor{
		searches:  searches,
		window:    maxNotificationsPerSearch,
		fetcher:   fetcher,
		extractor: extractor,
		notifier:  notifier,
		scheduler: scheduler,
		seen:      seen,
		sleep:     ctxsleep.Sleep,
	}, nil
}

// SetRelevanceFilter enables the relevance gate for searches that carry a wish.
func (m *Monitor) SetRelevanceFilter(relevance relevanceChecker) {
	m.relevance = relevance
}

func (m *Monitor) SetSleepFunc(sleep ctxsleep.Func) {
	m.sleep = sleep
}

// Run repeats monitoring cycles until ctx is cancelled. The seen set is
// persisted after every cycle and once more on the way out.
func (m *Monitor) Run(ctx context.Context) error {
	log.Infof("Starting monitoring of %d searches", len(m.searches))

	for {
		startTime := time.Now()

		m.RunCycle(ctx)
		_ = m.seen.Persist(context.WithoutCancel(ctx))

		if ctx.Err() != nil {
			log.Info("Monitor stopped, seen listings saved")
			return nil
		}

		executionTime := time.Since(startTime)
		metrics.CycleDuration.Observe(executionTime.Seconds())

		sleepTime := m.scheduler.InterCycleDelay(executionTime)
		log.Infof("Cycle completed in %.1fs. Next check in %.1f minutes (at %s)",
			executionTime.Seconds(), sleepTime.Minutes(), time.Now().Add(sleepTime).Format(time.TimeOnly))

		if err := m.sleep(ctx, sleepTime); err != nil {
			log.Info("Monitor stopped, seen listings saved")
			return nil
		}
	}
}

// RunOnce performs a single cycle and persists the result.
func (m *Monitor) RunOnce(ctx context.Context) error {
	m.RunCycle(ctx)
	return m.seen.Persist(context.WithoutCancel(ctx))
}

// RunCycle processes every search once, in configuration order.
func (m *Monitor) RunCycle(ctx context.Context) CycleSummary {
	summary := CycleSummary{ID: uuid.NewString(), StartedAt: time.Now()}
	cycleLog := log.WithField("cycle_id", summary.ID)
	cycleLog.Infof("Starting monitoring cycle for %d searches", len(m.searches))

	for i, search := range m.searches {
		if ctx.Err() != nil {
			break
		}

		if i > 0 {
			delay := m.scheduler.InterSearchDelay()
			cycleLog.Debugf("Waiting %.1fs before next search...", delay.Seconds())
			if err := m.sleep(ctx, delay); err != nil {
				break
			}
		}

		result := m.processSearch(ctx, cycleLog, search)
		summary.Searches++
		summary.Extracted += result.extracted
		summary.NewListings += result.newListings
		summary.Notified += result.notified
		if result.failed {
			summary.Failed++
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	m.mu.Lock()
	m.lastCycle = &summary
	m.mu.Unlock()

	return summary
}

func (m *Monitor) processSearch(ctx context.Context, cycleLog *log.Entry, search entities.SearchSpec) (result searchResult) {
	name := search.DisplayName()
	searchLog := cycleLog.WithField("search", name)

	startTime := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(name).Observe(time.Since(startTime).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			searchLog.Errorf("Error checking search %s: %v\n%s", name, r, debug.Stack())
			result.failed = true
		}
	}()

	searchLog.Infof("Checking search: %s", name)

	if _, err := entities.ToPlatform(search.Platform); err != nil {
		searchLog.Warnf("Skipping search %s: %v", name, err)
		return result
	}

	page, err := m.fetcher.Render(ctx, search.URL, m.scheduler.Profile())
	if errors.Is(err, context.Canceled) {
		searchLog.Infof("Search %s interrupted by shutdown", name)
		return result
	}
	if err != nil {
		searchLog.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).Errorf("Error scraping %s: %v", search.URL, err)
		result.failed = true
		return result
	}

	listings := m.extractor.Extract(page)
	result.extracted = len(listings)
	metrics.ListingsExtractedCounter.WithLabelValues(name).Add(float64(len(listings)))

	if len(listings) == 0 && page.Len() > 0 {
		searchLog.WithField(logger.ErrorTypeField, logger.ErrorTypeExtract).
			Errorf("None of %d listing elements could be extracted on %s", page.Len(), search.URL)
	}

	newListings := m.markSeen(listings)
	result.newListings = len(newListings)
	metrics.NewListingsCounter.WithLabelValues(name).Add(float64(len(newListings)))

	newListings = m.filterRelevant(ctx, searchLog, search, newListings)

	if len(newListings) == 0 {
		searchLog.Infof("No new listings found for %s (checked top %d)", name, m.window)
		return result
	}

	searchLog.Infof("Found %d new listings for %s (checked top %d)", len(newListings), name, m.window)
	for i, listing := range newListings {
		if i > 0 {
			if err := m.sleep(ctx, m.scheduler.NotificationGap()); err != nil {
				searchLog.Warnf("Interrupted, %d new listings were not notified", len(newListings)-i)
				break
			}
		}
		if m.notifier.Notify(ctx, listing, name) > 0 {
			result.notified++
		}
	}

	return result
}

// markSeen returns the listings of the notifiable window that were not seen
// before, in extraction order. Every extracted id is marked seen.
func (m *Monitor) markSeen(listings []entities.Listing) []entities.Listing {
	window := listings[:min(len(listings), m.window)]

	var newListings []entities.Listing
	for _, listing := range window {
		if m.seen.MarkNew(listing.ID) {
			newListings = append(newListings, listing)
		}
	}

	for _, listing := range listings {
		m.seen.Add(listing.ID)
	}

	return newListings
}

// filterRelevant drops listings the relevance filter rejects. They stay seen.
// A failing filter lets the listing through.
func (m *Monitor) filterRelevant(ctx context.Context, searchLog *log.Entry, search entities.SearchSpec,
	listings []entities.Listing) []entities.Listing {

	if m.relevance == nil || search.Wish == "" || len(listings) == 0 {
		return listings
	}

	relevant := make([]entities.Listing, 0, len(listings))
	for _, listing := range listings {
		ok, err := m.relevance.IsRelevant(ctx, search, listing)
		if err != nil {
			searchLog.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
				Errorf("Relevance check failed for listing %s: %v", listing.ID, err)
			relevant = append(relevant, listing)
			continue
		}
		if !ok {
			metrics.RejectedByAiCounter.Inc()
			searchLog.Infof("Listing %s rejected as not matching the wish", listing.ID)
			continue
		}
		relevant = append(relevant, listing)
	}
	return relevant
}

type MonitorStatus struct {
	Searches     int           `json:"searches"`
	SeenListings int           `json:"seen_listings"`
	LastCycle    *CycleSummary `json:"last_cycle,omitempty"`
}

func (m *Monitor) Status() any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MonitorStatus{
		Searches:     len(m.searches),
		SeenListings: m.seen.Len(),
		LastCycle:    m.lastCycle,
	}
}
