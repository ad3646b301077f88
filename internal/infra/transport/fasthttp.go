package transport

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

// FastPoster sends requests with fasthttp client.
type FastPoster struct {
	Client  *fasthttp.Client
	Timeout time.Duration
}

// NewFastPoster creates fasthttp poster.
func NewFastPoster(timeout time.Duration, maxConns int) *FastPoster {
	return &FastPoster{
		Client: &fasthttp.Client{
			MaxConnsPerHost: maxConns,
		},
		Timeout: timeout,
	}
}

// FillRequest sets up POST request.
func FillRequest(req *fasthttp.Request, url string, body []byte, headers map[string]string) {
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	req.SetBody(body)
}

// Post sends body to URL.
func (p *FastPoster) Post(ctx context.Context, url string, body []byte, headers map[string]string) (Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	FillRequest(req, url, body, headers)

	res := Response{Sent: len(body)}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	var deadline time.Time

	if p.Timeout > 0 {
		deadline = time.Now().Add(p.Timeout)
	}

	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	var err error

	if deadline.IsZero() {
		err = p.Client.Do(req, resp)
	} else {
		err = p.Client.DoDeadline(req, resp, deadline)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		return res, err
	}

	res.Status = resp.StatusCode()
	res.Received = len(resp.Body())

	return res, checkStatus(ctx, res.Status)
}
