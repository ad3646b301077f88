package usecase

import (
	"context"

	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// Counts tells ingestion totals.
func Counts(deps interface {
	EventCounter() ingest.Counter
},
) usecase.Interactor {
	u := usecase.NewInteractor(func(ctx context.Context, _ struct{}, out *ingest.Counts) error {
		c, err := deps.EventCounter().CountEvents(ctx)

		*out = c

		return err
	})

	u.SetDescription("Counts tells number of received and duplicate events.")
	u.SetTags("Events")
	u.SetExpectedErrors(status.Unknown)

	return u
}
