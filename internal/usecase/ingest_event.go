package usecase

import (
	"context"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

type ingestDeps interface {
	CtxdLogger() ctxd.Logger
	StatsTracker() stats.Tracker
	EventRecorder() ingest.Recorder
}

// IngestEvent creates use case interactor.
func IngestEvent(deps ingestDeps) usecase.Interactor {
	u := usecase.NewInteractor(func(ctx context.Context, in ingest.Params, out *ingest.Receipt) error {
		deps.StatsTracker().Add(ctx, "device_events", 1, "device", in.DeviceID)
		deps.CtxdLogger().Debug(ctx, "device event", "device", in.DeviceID, "messageId", in.MessageID)

		r, err := deps.EventRecorder().Record(ctx, in)
		if err != nil {
			return err
		}

		if r.Duplicate {
			deps.StatsTracker().Add(ctx, "duplicate_device_events", 1, "device", in.DeviceID)
			deps.CtxdLogger().Warn(ctx, "duplicate messageId", "device", in.DeviceID, "messageId", in.MessageID)
		}

		*out = r

		return nil
	})

	u.SetDescription("Accepts device-to-cloud message.")
	u.SetTags("Devices")
	u.SetExpectedErrors(status.Unknown, status.InvalidArgument, status.Unauthenticated)

	return u
}
