package services

import (
	"context"
	"slices"
	"sync"

	"github.com/miciek335/vinted-listing-tracker/internal/logger"
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type seenStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// SeenListings is the in-memory set of listing ids that were already observed.
// It is the source of truth between persists, a failed persist never shrinks it.
type SeenListings struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	store seenStore
}

func NewSeenListings(store seenStore) *SeenListings {
	return &SeenListings{ids: make(map[string]struct{}), store: store}
}

// Load replaces the set with the persisted ids. Missing or unreadable state
// means no history.
func (s *SeenListings) Load(ctx context.Context) int {
	ids, err := s.store.Load(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeState).
			Warnf("Could not load seen listings, starting fresh: %v", err)
		ids = nil
	}

	s.mu.Lock()
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	count := len(s.ids)
	s.mu.Unlock()

	metrics.SeenListingsGauge.Set(float64(count))
	log.Infof("Loaded %d seen listings", count)
	return count
}

func (s *SeenListings) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *SeenListings) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// MarkNew adds id and reports whether it was absent before.
func (s *SeenListings) MarkNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *SeenListings) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns a sorted snapshot of the set.
func (s *SeenListings) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (s *SeenListings) Persist(ctx context.Context) error {
	ids := s.IDs()
	if err := s.store.Save(ctx, ids); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeState).Errorf("Error saving seen listings: %v", err)
		return err
	}

	metrics.SeenListingsGauge.Set(float64(len(ids)))
	log.Debugf("Saved %d seen listings", len(ids))
	return nil
}
