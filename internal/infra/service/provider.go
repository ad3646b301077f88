package service

import (
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// EventRecorderProvider is a service provider.
type EventRecorderProvider interface {
	EventRecorder() ingest.Recorder
}

// EventClearerProvider is a service provider.
type EventClearerProvider interface {
	EventClearer() ingest.Clearer
}

// EventCounterProvider is a service provider.
type EventCounterProvider interface {
	EventCounter() ingest.Counter
}
