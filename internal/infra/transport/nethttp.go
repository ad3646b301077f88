package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bool64/ctxd"
)

// HTTPPoster sends requests with net/http client.
type HTTPPoster struct {
	Client *http.Client
}

// NewHTTPPoster creates poster with a pooled client.
func NewHTTPPoster(timeout time.Duration, maxIdle int) *HTTPPoster {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConns = maxIdle
	tr.MaxIdleConnsPerHost = maxIdle

	return &HTTPPoster{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// Post sends body to URL.
func (p *HTTPPoster) Post(ctx context.Context, url string, body []byte, headers map[string]string) (Response, error) {
	res := Response{Sent: len(body)}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return res, ctxd.WrapError(ctx, err, "failed to create request")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return res, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	res.Status = resp.StatusCode

	n, err := io.Copy(io.Discard, resp.Body)
	res.Received = int(n)

	if err != nil {
		return res, ctxd.WrapError(ctx, err, "failed to read response")
	}

	return res, checkStatus(ctx, res.Status)
}
