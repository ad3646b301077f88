// Package iothub describes IoT Hub device-to-cloud messaging target.
package iothub

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Defaults of messaging target.
const (
	DefaultDeviceID   = "BXConnector"
	DefaultAPIVersion = "2018-04-01"

	hostSuffix  = ".azure-devices.net/"
	unsetMarker = "None"
	sasPrefix   = "SharedAccessSignature "
)

// ErrMissingConfig indicates a required value is not set.
var ErrMissingConfig = errors.New("missing configuration")

// Config defines messaging target and credentials.
type Config struct {
	HubName     string `envconfig:"IOT_HUB_NAME"`
	SASToken    string `envconfig:"IOT_HUB_SAS_TOKEN"`
	DeviceID    string `envconfig:"IOT_HUB_DEVICE_ID" default:"BXConnector"`
	APIVersion  string `envconfig:"IOT_HUB_API_VERSION" default:"2018-04-01"`
	Host        string `envconfig:"IOT_HUB_HOST"`
	PayloadFile string `envconfig:"IOT_HUB_PAYLOAD_FILE"`

	// Lenient disables validation, unset hub name is rendered as "None" and empty token is sent.
	Lenient bool `envconfig:"IOT_HUB_LENIENT"`
}

// Load reads configuration from environment variables.
//
// Env files are loaded first if they exist, they do not override variables already set.
func Load(envFiles ...string) (Config, error) {
	var cfg Config

	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return cfg, ctxd.WrapError(context.Background(), err, "failed to load env file", "file", f)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that requests built from configuration are well-formed.
func (c Config) Validate(ctx context.Context) error {
	if c.Lenient {
		return nil
	}

	if c.HubName == "" && c.Host == "" {
		return ctxd.WrapError(ctx, ErrMissingConfig, "hub name is not set", "env", "IOT_HUB_NAME")
	}

	if c.SASToken == "" {
		return ctxd.WrapError(ctx, ErrMissingConfig, "SAS token is not set", "env", "IOT_HUB_SAS_TOKEN")
	}

	if c.DeviceID == "" {
		return ctxd.WrapError(ctx, ErrMissingConfig, "device id is empty", "env", "IOT_HUB_DEVICE_ID")
	}

	if c.APIVersion == "" {
		return ctxd.WrapError(ctx, ErrMissingConfig, "api version is empty", "env", "IOT_HUB_API_VERSION")
	}

	if c.Host != "" {
		if _, err := url.Parse(c.Host); err != nil {
			return ctxd.WrapError(ctx, err, "invalid host", "env", "IOT_HUB_HOST")
		}
	}

	return nil
}

// HubHost returns base URL of the hub with trailing slash.
func (c Config) HubHost() string {
	if c.Host != "" {
		return strings.TrimSuffix(c.Host, "/") + "/"
	}

	name := c.HubName
	if name == "" {
		name = unsetMarker
	}

	return "https://" + name + hostSuffix
}

// EventsPath returns device-to-cloud events path with API version.
func (c Config) EventsPath() string {
	return "/devices/" + c.DeviceID + "/messages/events?api-version=" + c.APIVersion
}

// EventsURL returns absolute URL to send device events.
func (c Config) EventsURL() string {
	return strings.TrimSuffix(c.HubHost(), "/") + c.EventsPath()
}

// TokenExpiry returns expiration time of SAS token if it has one.
func (c Config) TokenExpiry() (time.Time, bool) {
	q, err := url.ParseQuery(strings.TrimPrefix(c.SASToken, sasPrefix))
	if err != nil {
		return time.Time{}, false
	}

	se := q.Get("se")
	if se == "" {
		return time.Time{}, false
	}

	sec, err := strconv.ParseInt(se, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.Unix(sec, 0), true
}
