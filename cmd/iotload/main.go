// Package main provides IoT Hub device telemetry load tester tool.
package main

import (
	"github.com/alecthomas/kingpin"
	"github.com/vearutop/plt/curl"
	"github.com/vearutop/plt/loadgen"
	"github.com/vearutop/plt/nethttp"
)

// iotload pushes simulated fault events from many devices onto IoT Hub.

func main() {
	lf := loadgen.Flags{}
	lf.Register()

	var envFiles []string

	kingpin.Flag("env-file", "Optional .env file with IOT_HUB_* variables, can be repeated.").
		Default(".env").StringsVar(&envFiles)

	curl.AddCommand(&lf, func(lf *loadgen.Flags, f *nethttp.Flags, j loadgen.JobProducer) {
		app, err := newApp(envFiles, false)
		kingpin.FatalIfError(err, "failed to initialize")

		task, err := app.task(nil, nil)
		kingpin.FatalIfError(err, "failed to create task")

		if nj, ok := j.(*nethttp.JobProducer); ok {
			nj.PrepareRequest = task.PrepareRequest

			return
		}

		app.logger.Warn(app.ctx, "only net/http job producer is supported, requests are sent as given")
	})

	sim := simulateCommand{envFiles: &envFiles}
	sim.register(kingpin.CommandLine).Action(sim.run)

	kingpin.Parse()
}
