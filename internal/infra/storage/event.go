package storage

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/sqluct"
	"github.com/bool64/stats"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// EventSaver saves device messages to database.
type EventSaver struct {
	Upstream ingest.Recorder
	Storage  *sqluct.Storage
	Stats    stats.Tracker
}

// EventsTable is the name of the table.
const EventsTable = "events"

// EventRow describes database mapping.
type EventRow struct {
	ID              int       `db:"id,omitempty"`
	DeviceID        string    `db:"device_id"`
	MessageID       string    `db:"message_id"`
	AssetName       string    `db:"asset_name"`
	FaultName       string    `db:"fault_name"`
	FaultActiveTime string    `db:"fault_active_time"`
	Duplicate       bool      `db:"duplicate"`
	CreatedAt       time.Time `db:"created_at"`
}

// Record accepts message with Upstream and stores it in database before returning.
func (es *EventSaver) Record(ctx context.Context, params ingest.Params) (ingest.Receipt, error) {
	r, err := es.Upstream.Record(ctx, params)
	if err != nil {
		return r, err
	}

	q := es.Storage.InsertStmt(EventsTable, EventRow{
		DeviceID:        params.DeviceID,
		MessageID:       params.MessageID,
		AssetName:       params.AssetName,
		FaultName:       params.FaultName,
		FaultActiveTime: params.FaultActiveTime,
		Duplicate:       r.Duplicate,
		CreatedAt:       time.Now(),
	})

	if _, err = es.Storage.Exec(ctx, q); err != nil {
		return ingest.Receipt{}, ctxd.WrapError(ctx, err, "failed to store event")
	}

	es.Stats.Add(ctx, "events_stored", 1, "device", params.DeviceID)

	return r, nil
}

// CountEvents returns totals.
func (es *EventSaver) CountEvents(ctx context.Context) (ingest.Counts, error) {
	var c ingest.Counts

	r := es.Storage.DB().QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(duplicate), 0) FROM "+EventsTable)

	if err := r.Scan(&c.Received, &c.Duplicates); err != nil {
		return c, ctxd.WrapError(ctx, err, "failed to count events")
	}

	return c, nil
}

// ClearEvents removes all entries.
func (es *EventSaver) ClearEvents(ctx context.Context) (int, error) {
	res, err := es.Storage.DeleteStmt(EventsTable).ExecContext(ctx)
	if err != nil {
		return 0, err
	}

	aff, err := res.RowsAffected()

	return int(aff), err
}

// EventRecorder implements service provider.
func (es *EventSaver) EventRecorder() ingest.Recorder {
	return es
}

// EventClearer implements service provider.
func (es *EventSaver) EventClearer() ingest.Clearer {
	return es
}

// EventCounter implements service provider.
func (es *EventSaver) EventCounter() ingest.Counter {
	return es
}
