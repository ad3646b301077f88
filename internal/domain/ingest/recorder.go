// Package ingest defines device message ingestion domain of fake hub.
package ingest

import (
	"context"
	"errors"

	"github.com/bool64/ctxd"
	"github.com/swaggest/usecase/status"
	"github.com/vearutop/iothub-load/internal/domain/telemetry"
)

// Params describes device-to-cloud message.
type Params struct {
	DeviceID      string `path:"deviceId" json:"-"`
	APIVersion    string `query:"api-version" required:"true" json:"-"`
	Authorization string `header:"Authorization" json:"-"`

	telemetry.FaultEvent
}

// Receipt describes accepted message.
type Receipt struct {
	MessageID string `json:"messageId"`
	Duplicate bool   `json:"duplicate"`
}

// Counts describes ingestion totals.
type Counts struct {
	Received   int `json:"received"`
	Duplicates int `json:"duplicates"`
}

// Recorder accepts device messages.
type Recorder interface {
	Record(ctx context.Context, params Params) (Receipt, error)
}

// Clearer removes all recorded messages and returns number of affected rows.
type Clearer interface {
	ClearEvents(ctx context.Context) (int, error)
}

// Counter tells ingestion totals.
type Counter interface {
	CountEvents(ctx context.Context) (Counts, error)
}

// SimpleRecorder validates messages without storing them.
type SimpleRecorder struct {
	// Token is an expected Authorization header value, empty token accepts any.
	Token string
}

// Record validates message.
func (s *SimpleRecorder) Record(ctx context.Context, params Params) (Receipt, error) {
	if s.Token != "" && params.Authorization != s.Token {
		return Receipt{}, status.Wrap(
			ctxd.NewError(ctx, "invalid authorization", "device", params.DeviceID),
			status.Unauthenticated,
		)
	}

	if params.DeviceID == "" {
		return Receipt{}, status.Wrap(errors.New("missing device id"), status.InvalidArgument)
	}

	if params.MessageID == "" {
		return Receipt{}, status.Wrap(
			ctxd.NewError(ctx, "missing messageId", "device", params.DeviceID),
			status.InvalidArgument,
		)
	}

	return Receipt{MessageID: params.MessageID}, nil
}

// EventRecorder implements service provider.
func (s *SimpleRecorder) EventRecorder() Recorder {
	if s == nil {
		panic("empty SimpleRecorder")
	}

	return s
}
