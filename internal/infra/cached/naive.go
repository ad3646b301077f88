package cached

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/cache"
	"github.com/bool64/stats"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// NaivePruneEvery is a number of writes between sweeps of expired message IDs.
const NaivePruneEvery = 1000

// NaiveDeduplicator flags repeated message IDs using a map with expiration.
type NaiveDeduplicator struct {
	mu       sync.Mutex
	ttl      time.Duration
	seen     map[string]time.Time
	writes   int
	upstream ingest.Recorder
	stats    stats.Tracker
}

// NewNaiveDeduplicator creates an instance.
func NewNaiveDeduplicator(upstream ingest.Recorder, ttl time.Duration, stats stats.Tracker) *NaiveDeduplicator {
	return &NaiveDeduplicator{
		ttl:      ttl,
		seen:     map[string]time.Time{},
		upstream: upstream,
		stats:    stats,
	}
}

// EventRecorder implements service provider.
func (d *NaiveDeduplicator) EventRecorder() ingest.Recorder {
	return d
}

// Record passes message to upstream and flags duplicate.
func (d *NaiveDeduplicator) Record(ctx context.Context, params ingest.Params) (ingest.Receipt, error) {
	r, err := d.upstream.Record(ctx, params)
	if err != nil {
		return r, err
	}

	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	expires, found := d.seen[params.MessageID]

	expired := found && expires.Before(now)
	if expired {
		d.stats.Add(ctx, cache.MetricExpired, 1, "name", "message-ids-naive")
	}

	if found && !expired {
		d.stats.Add(ctx, cache.MetricHit, 1, "name", "message-ids-naive")

		r.Duplicate = true

		return r, nil
	}

	d.stats.Add(ctx, cache.MetricMiss, 1, "name", "message-ids-naive")
	d.stats.Add(ctx, cache.MetricWrite, 1, "name", "message-ids-naive")

	if d.writes >= NaivePruneEvery {
		d.prune(ctx, now)
	}

	d.seen[params.MessageID] = now.Add(d.ttl)
	d.writes++

	d.stats.Set(ctx, cache.MetricItems, float64(len(d.seen)), "name", "message-ids-naive")

	return r, nil
}

func (d *NaiveDeduplicator) prune(ctx context.Context, now time.Time) {
	d.writes = 0

	for id, expires := range d.seen {
		if expires.Before(now) {
			delete(d.seen, id)
			d.stats.Add(ctx, cache.MetricEvict, 1, "name", "message-ids-naive")
		}
	}
}

// Len returns number of tracked message IDs.
func (d *NaiveDeduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.seen)
}
