package services

import (
	"context"
	"fmt"

	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type sizer interface {
	Len() int
}

// StateReporter periodically reports how large the seen set has grown.
// The set is never trimmed, so the warning is the only guard against unbounded growth.
type StateReporter struct {
	cron      *cron.Cron
	seen      sizer
	threshold int
}

func NewStateReporter(schedule string, seen sizer, threshold int) (*StateReporter, error) {
	r := &StateReporter{cron: cron.New(), seen: seen, threshold: threshold}
	if _, err := r.cron.AddFunc(schedule, r.report); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *StateReporter) Start() {
	r.cron.Start()
}

// Stop waits for a running report to finish or ctx to expire.
func (r *StateReporter) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *StateReporter) report() {
	size := r.seen.Len()
	metrics.SeenListingsGauge.Set(float64(size))
	log.Infof("Tracking %d seen listings", size)

	if r.threshold > 0 && size > r.threshold {
		log.Warnf("Seen listings set holds %d ids, above the threshold of %d. "+
			"Consider clearing the state if memory or startup time suffers", size, r.threshold)
	}
}
