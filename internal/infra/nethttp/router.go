// Package nethttp manages application http interface.
package nethttp

import (
	"net/http"

	"github.com/bool64/brick"
	"github.com/swaggest/rest/nethttp"
	"github.com/vearutop/iothub-load/internal/infra/nethttp/ui"
	"github.com/vearutop/iothub-load/internal/infra/service"
	"github.com/vearutop/iothub-load/internal/usecase"
)

// NewRouter creates an instance of router filled with handlers and docs.
func NewRouter(deps *service.Locator) http.Handler {
	r := brick.NewBaseRouter(deps.BaseLocator)

	r.Method(http.MethodPost, "/devices/{deviceId}/messages/events", nethttp.NewHandler(usecase.IngestEvent(deps)))
	r.Method(http.MethodGet, "/events/counts", nethttp.NewHandler(usecase.Counts(deps)))
	r.Method(http.MethodDelete, "/events", nethttp.NewHandler(usecase.Clear(deps)))

	r.Method(http.MethodGet, "/", ui.Index())
	r.Mount("/static/", http.StripPrefix("/static", ui.Static))

	return r
}
