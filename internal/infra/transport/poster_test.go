package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/iothub-load/internal/infra/transport"
)

type poster interface {
	Post(ctx context.Context, url string, body []byte, headers map[string]string) (transport.Response, error)
}

func TestPosters(t *testing.T) {
	for name, p := range map[string]poster{
		"nethttp":  transport.NewHTTPPoster(5*time.Second, 10),
		"fasthttp": transport.NewFastPoster(5*time.Second, 10),
	} {
		p := p

		t.Run(name, func(t *testing.T) {
			var (
				gotMethod, gotPath, gotQuery string
				gotAuth, gotType             string
				gotBody                      []byte
			)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				gotAuth = r.Header.Get("Authorization")
				gotType = r.Header.Get("Content-Type")
				gotBody, _ = io.ReadAll(r.Body)

				if gotAuth != "SharedAccessSignature sig=abc" {
					w.WriteHeader(http.StatusUnauthorized)

					return
				}

				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			u := srv.URL + "/devices/BXConnector/messages/events?api-version=2018-04-01"
			body := []byte(`{"messageId":"1"}`)

			res, err := p.Post(context.Background(), u, body, map[string]string{
				"Authorization": "SharedAccessSignature sig=abc",
				"Content-Type":  "application/json",
			})
			require.NoError(t, err)

			assert.Equal(t, http.StatusNoContent, res.Status)
			assert.Equal(t, len(body), res.Sent)
			assert.Equal(t, http.MethodPost, gotMethod)
			assert.Equal(t, "/devices/BXConnector/messages/events", gotPath)
			assert.Equal(t, "api-version=2018-04-01", gotQuery)
			assert.Equal(t, "application/json", gotType)
			assert.Equal(t, string(body), string(gotBody))

			res, err = p.Post(context.Background(), u, body, map[string]string{
				"Authorization": "wrong",
				"Content-Type":  "application/json",
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, transport.ErrUnexpectedStatus))
			assert.Equal(t, http.StatusUnauthorized, res.Status)
		})
	}
}

func TestHTTPPoster_Post_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	res, err := transport.NewHTTPPoster(time.Second, 1).Post(context.Background(), u, []byte("{}"), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, 2, res.Sent)
}

func TestFastPoster_Post_deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := transport.NewFastPoster(100*time.Millisecond, 1)

	t.Run("expired context", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		start := time.Now()
		res, err := p.Post(ctx, srv.URL, []byte("{}"), nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, 0, res.Status)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Post(ctx, srv.URL, []byte("{}"), nil)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("request timeout", func(t *testing.T) {
		start := time.Now()
		res, err := p.Post(context.Background(), srv.URL, []byte("{}"), nil)

		require.Error(t, err)
		assert.Equal(t, 0, res.Status)
		assert.Less(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("context deadline shorter than timeout", func(t *testing.T) {
		lp := transport.NewFastPoster(5*time.Second, 1)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := lp.Post(ctx, srv.URL, []byte("{}"), nil)

		require.Error(t, err)
		assert.Less(t, time.Since(start), 900*time.Millisecond)
	})
}
