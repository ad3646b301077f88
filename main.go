// Package main provides IoT Hub fake web service to rehearse load tests locally.
package main

import (
	"log"
	"net/http"

	"github.com/bool64/brick"
	"github.com/vearutop/iothub-load/internal/infra"
	"github.com/vearutop/iothub-load/internal/infra/nethttp"
	"github.com/vearutop/iothub-load/internal/infra/service"
)

func main() {
	var cfg service.Config

	brick.Start(&cfg, func(docsMode bool) (*brick.BaseLocator, http.Handler) {
		cfg.ServiceName = service.Name

		// Initialize application resources.
		sl, err := infra.NewServiceLocator(cfg)
		if err != nil {
			log.Fatalf("failed to init service: %v", err)
		}

		return sl.BaseLocator, nethttp.NewRouter(sl)
	})
}
