// Package transport sends device messages over HTTP.
package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/bool64/ctxd"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Response describes outcome of a request.
type Response struct {
	Status   int
	Sent     int
	Received int
}

func checkStatus(ctx context.Context, status int) error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	return ctxd.WrapError(ctx, ErrUnexpectedStatus, http.StatusText(status), "status", status)
}
