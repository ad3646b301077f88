package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/usecase/status"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
	"github.com/vearutop/iothub-load/internal/domain/telemetry"
)

func TestSimpleRecorder_Record(t *testing.T) {
	ctx := context.Background()
	r := &ingest.SimpleRecorder{Token: "SharedAccessSignature sig=abc"}

	assert.Equal(t, r, r.EventRecorder())

	p := ingest.Params{
		DeviceID:      "BXConnector",
		APIVersion:    "2018-04-01",
		Authorization: "SharedAccessSignature sig=abc",
		FaultEvent:    telemetry.FaultEvent{MessageID: "m1"},
	}

	rc, err := r.Record(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, ingest.Receipt{MessageID: "m1"}, rc)

	p.Authorization = "other"
	_, err = r.Record(ctx, p)

	var se interface{ Status() status.Code }

	require.True(t, errors.As(err, &se))
	assert.Equal(t, status.Unauthenticated, se.Status())

	p.Authorization = "SharedAccessSignature sig=abc"
	p.MessageID = ""
	_, err = r.Record(ctx, p)

	require.True(t, errors.As(err, &se))
	assert.Equal(t, status.InvalidArgument, se.Status())

	_, err = (&ingest.SimpleRecorder{}).Record(ctx, ingest.Params{
		DeviceID:   "d",
		FaultEvent: telemetry.FaultEvent{MessageID: "m2"},
	})
	assert.NoError(t, err)
}
