// Package static provides embedded status page assets.
package static

import (
	"embed"
)

// Assets provides embedded static assets for fake hub status page.
//
//go:embed *.html
var Assets embed.FS
