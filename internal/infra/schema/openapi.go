// Package schema configures API documentation.
package schema

import (
	"github.com/swaggest/rest/openapi"
)

// SetupOpenapiCollector configures OpenAPI schema.
func SetupOpenapiCollector(c *openapi.Collector) {
	c.Reflector().SpecEns().Info.Title = "IoT Hub Fake"
}
