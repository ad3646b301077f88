package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/stats"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// MemoryEvent is a recorded device message.
type MemoryEvent struct {
	Params     ingest.Params
	Duplicate  bool
	ReceivedAt time.Time
}

// MemoryStore keeps device messages in memory.
type MemoryStore struct {
	Upstream ingest.Recorder
	Stats    stats.Tracker

	// Limit caps number of retained events, counters are not affected, 0 is unlimited.
	Limit int

	mu     sync.Mutex
	events []MemoryEvent
	counts ingest.Counts
}

// Record accepts message with Upstream and keeps it.
func (m *MemoryStore) Record(ctx context.Context, params ingest.Params) (ingest.Receipt, error) {
	r, err := m.Upstream.Record(ctx, params)
	if err != nil {
		return r, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.Received++
	if r.Duplicate {
		m.counts.Duplicates++
	}

	if m.Limit == 0 || len(m.events) < m.Limit {
		m.events = append(m.events, MemoryEvent{Params: params, Duplicate: r.Duplicate, ReceivedAt: time.Now()})
	}

	if m.Stats != nil {
		m.Stats.Add(ctx, "events_stored", 1, "device", params.DeviceID)
	}

	return r, nil
}

// Events returns a copy of retained events.
func (m *MemoryStore) Events() []MemoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]MemoryEvent(nil), m.events...)
}

// CountEvents returns totals.
func (m *MemoryStore) CountEvents(_ context.Context) (ingest.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts, nil
}

// ClearEvents removes all entries.
func (m *MemoryStore) ClearEvents(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.counts.Received
	m.events = nil
	m.counts = ingest.Counts{}

	return n, nil
}

// EventRecorder implements service provider.
func (m *MemoryStore) EventRecorder() ingest.Recorder {
	return m
}

// EventClearer implements service provider.
func (m *MemoryStore) EventClearer() ingest.Clearer {
	return m
}

// EventCounter implements service provider.
func (m *MemoryStore) EventCounter() ingest.Counter {
	return m
}
