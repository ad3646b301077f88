// Package cached provides message ID de-duplication.
package cached

import (
	"context"

	"github.com/bool64/cache"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// NewDeduplicator creates an instance.
func NewDeduplicator(upstream ingest.Recorder, seen *cache.FailoverOf[bool]) *Deduplicator {
	return &Deduplicator{
		upstream: upstream,
		seen:     seen,
	}
}

// Deduplicator flags repeated message IDs using failover cache.
type Deduplicator struct {
	upstream ingest.Recorder
	seen     *cache.FailoverOf[bool]
}

// EventRecorder implements service provider.
func (d *Deduplicator) EventRecorder() ingest.Recorder {
	return d
}

// Record passes message to upstream and flags duplicate.
func (d *Deduplicator) Record(ctx context.Context, params ingest.Params) (ingest.Receipt, error) {
	r, err := d.upstream.Record(ctx, params)
	if err != nil {
		return r, err
	}

	fresh := false

	_, err = d.seen.Get(ctx, []byte(params.MessageID), func(ctx context.Context) (bool, error) {
		fresh = true

		return true, nil
	})
	if err != nil {
		return r, err
	}

	r.Duplicate = !fresh

	return r, nil
}
