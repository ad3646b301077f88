package usecase

import (
	"context"

	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
)

// Clear removes all recorded events.
func Clear(deps interface {
	EventClearer() ingest.Clearer
},
) usecase.Interactor {
	type clearOutput struct {
		Affected int `json:"affected"`
	}

	u := usecase.NewInteractor(func(ctx context.Context, _ struct{}, out *clearOutput) error {
		affected, err := deps.EventClearer().ClearEvents(ctx)

		out.Affected = affected

		return err
	})

	u.SetDescription("Clear removes all recorded events.")
	u.SetTags("Events")
	u.SetExpectedErrors(status.Unknown)

	return u
}
