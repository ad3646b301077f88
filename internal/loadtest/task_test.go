package loadtest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/iothub-load/internal/domain/telemetry"
	"github.com/vearutop/iothub-load/internal/infra/transport"
	"github.com/vearutop/iothub-load/internal/iothub"
	"github.com/vearutop/iothub-load/internal/loadtest"
)

type postCall struct {
	url     string
	body    []byte
	headers map[string]string
}

type posterMock struct {
	mu    sync.Mutex
	calls []postCall
	res   transport.Response
	err   error
}

func (p *posterMock) Post(_ context.Context, url string, body []byte, headers map[string]string) (transport.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, postCall{url: url, body: body, headers: headers})

	return p.res, p.err
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(5 * time.Millisecond)

	return c.now
}

func contosoConfig() iothub.Config {
	return iothub.Config{
		HubName:    "contoso",
		SASToken:   "SharedAccessSignature sig=abc",
		DeviceID:   iothub.DefaultDeviceID,
		APIVersion: iothub.DefaultAPIVersion,
	}
}

func TestTask_Run(t *testing.T) {
	p := &posterMock{res: transport.Response{Status: http.StatusNoContent, Sent: 10}}
	c := loadtest.NewCollector()

	task, err := loadtest.NewTask(contosoConfig(), p, c, loadtest.WithClock(&stepClock{}))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, task.Run(ctx))
	require.NoError(t, task.Run(ctx))
	require.Len(t, p.calls, 2)

	ids := map[string]bool{}

	for _, call := range p.calls {
		assert.Equal(t,
			"https://contoso.azure-devices.net/devices/BXConnector/messages/events?api-version=2018-04-01",
			call.url)
		assert.Equal(t, map[string]string{
			"Authorization": "SharedAccessSignature sig=abc",
			"Content-Type":  "application/json",
		}, call.headers)

		var ev map[string]string

		require.NoError(t, json.Unmarshal(call.body, &ev))
		assert.Len(t, ev, 7)
		assert.Equal(t, `Campus\Bldg\Device\Sensor\AssetName`, ev["AssetPath"])
		assert.Equal(t, "FSCFault", ev["FaultName"])
		assert.Equal(t, "ICONICS FDD", ev["MessageSource"])
		assert.Equal(t, "FaultCostNumeric", ev["FaultCostValue"])
		assert.Regexp(t, `^[A-Z][0-9]{2}$`, ev["AssetName"])

		ids[ev["messageId"]] = true
	}

	assert.Len(t, ids, 2)

	s := c.Summaries()
	require.Len(t, s, 1)
	assert.Equal(t, loadtest.RequestName, s[0].Name)
	assert.Equal(t, 2, s[0].Requests)
	assert.Equal(t, 0, s[0].Failures)
	assert.Equal(t, map[string]int{"204": 2}, s[0].Statuses)
	assert.Equal(t, 20.0, s[0].BytesSent)
	assert.InDelta(t, 5.0, s[0].P50, 1)
}

func TestTask_Run_failure(t *testing.T) {
	p := &posterMock{err: errors.New("connection refused")}
	c := loadtest.NewCollector()

	task, err := loadtest.NewTask(contosoConfig(), p, c)
	require.NoError(t, err)

	assert.EqualError(t, task.Run(context.Background()), "connection refused")

	s := c.Summaries()
	require.Len(t, s, 1)
	assert.Equal(t, 1, s[0].Requests)
	assert.Equal(t, 1, s[0].Failures)
	assert.Equal(t, map[string]int{"0": 1}, s[0].Statuses)
}

func TestTask_Run_deterministic(t *testing.T) {
	p := &posterMock{}

	gen := &telemetry.Generator{
		NewID: func() string { return "00000000-0000-0000-0000-000000000001" },
		Rand:  fixedRand{},
		Clock: fixedClock(time.Date(2022, 1, 2, 3, 4, 5, 0, time.Local)),
	}

	task, err := loadtest.NewTask(contosoConfig(), p, nil, loadtest.WithGenerator(gen))
	require.NoError(t, err)
	require.NoError(t, task.Run(context.Background()))

	assert.JSONEq(t, `{
		"messageId":"00000000-0000-0000-0000-000000000001",
		"AssetName":"C42",
		"AssetPath":"Campus\\Bldg\\Device\\Sensor\\AssetName",
		"FaultName":"FSCFault",
		"FaultActiveTime":"2022-01-02 03:04:05",
		"MessageSource":"ICONICS FDD",
		"FaultCostValue":"FaultCostNumeric"
	}`, string(p.calls[0].body))
}

func TestTask_payloadFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"custom":true}`), 0o600))

	cfg := contosoConfig()
	cfg.PayloadFile = f

	p := &posterMock{}

	task, err := loadtest.NewTask(cfg, p, nil)
	require.NoError(t, err)
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, `{"custom":true}`, string(p.calls[0].body))

	cfg.PayloadFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = loadtest.NewTask(cfg, p, nil)
	assert.Error(t, err)
}

func TestTask_lenient(t *testing.T) {
	p := &posterMock{}

	task, err := loadtest.NewTask(iothub.Config{
		DeviceID:   iothub.DefaultDeviceID,
		APIVersion: iothub.DefaultAPIVersion,
		Lenient:    true,
	}, p, nil)
	require.NoError(t, err)
	require.NoError(t, task.Run(context.Background()))

	assert.Contains(t, p.calls[0].url, "None")
	assert.Equal(t, "", p.calls[0].headers["Authorization"])
}

func TestTask_PrepareRequest(t *testing.T) {
	task, err := loadtest.NewTask(contosoConfig(), &posterMock{}, nil)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://localhost/placeholder", nil)
	require.NoError(t, err)

	require.NoError(t, task.PrepareRequest(1, req))

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t,
		"https://contoso.azure-devices.net/devices/BXConnector/messages/events?api-version=2018-04-01",
		req.URL.String())
	assert.Equal(t, "contoso.azure-devices.net", req.Host)
	assert.Equal(t, "SharedAccessSignature sig=abc", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), req.ContentLength)
	assert.True(t, strings.HasPrefix(string(body), `{"messageId":"`))

	again, err := req.GetBody()
	require.NoError(t, err)

	body2, err := io.ReadAll(again)
	require.NoError(t, err)
	assert.Equal(t, body, body2)

	// Target URL is not shared between requests.
	req.URL.Path = "/changed"
	assert.Equal(t,
		"https://contoso.azure-devices.net/devices/BXConnector/messages/events?api-version=2018-04-01",
		task.URL())

	req2, err := http.NewRequest(http.MethodGet, "http://localhost/placeholder", nil)
	require.NoError(t, err)
	require.NoError(t, task.PrepareRequest(2, req2))
	assert.Equal(t, "/devices/BXConnector/messages/events", req2.URL.Path)
}
