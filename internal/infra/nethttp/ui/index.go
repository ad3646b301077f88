// Package ui provides fake hub status page.
package ui

import (
	"net/http"
	"os"

	"github.com/vearutop/iothub-load/resources/static"
	"github.com/vearutop/statigz"
	"github.com/vearutop/statigz/brotli"
)

// Static serves static assets.
var Static http.Handler

// nolint:gochecknoinits
func init() {
	// Local files take precedence to allow editing page without rebuild.
	if _, err := os.Stat("./resources/static"); err == nil {
		Static = http.FileServer(http.Dir("./resources/static"))
	} else {
		Static = statigz.FileServer(static.Assets, brotli.AddEncoding, statigz.EncodeOnInit)
	}
}

// Index serves status page that polls event counts.
func Index() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Static.ServeHTTP(w, r)
	})
}
