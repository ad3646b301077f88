package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/vearutop/iothub-load/internal/infra/metrics"
	"github.com/vearutop/iothub-load/internal/infra/transport"
	"github.com/vearutop/iothub-load/internal/loadtest"
)

type simulateCommand struct {
	envFiles *[]string

	cfg           loadtest.RunnerConfig
	timeout       time.Duration
	fast          bool
	metricsListen string
	debug         bool
}

func (s *simulateCommand) register(app *kingpin.Application) *kingpin.CmdClause {
	cmd := app.Command("simulate", "Run simulated devices posting fault events with a constant wait.")

	cmd.Flag("users", "Number of concurrent simulated devices.").Default("10").IntVar(&s.cfg.Users)
	cmd.Flag("spawn-rate", "Devices started per second, 0 starts all at once.").Default("0").FloatVar(&s.cfg.SpawnRate)
	cmd.Flag("wait", "Constant wait between messages of a device.").Default("1s").DurationVar(&s.cfg.Wait)
	cmd.Flag("count", "Messages per device, 0 is unlimited.").Default("0").IntVar(&s.cfg.Count)
	cmd.Flag("run-time", "Stop after this duration, 0 is unlimited.").Default("0s").DurationVar(&s.cfg.Duration)
	cmd.Flag("max-rps", "Limit of total messages per second, 0 is unlimited.").Default("0").FloatVar(&s.cfg.RateLimit)
	cmd.Flag("request-timeout", "HTTP request timeout.").Default("10s").DurationVar(&s.timeout)
	cmd.Flag("fasthttp", "Use fasthttp client instead of net/http.").BoolVar(&s.fast)
	cmd.Flag("metrics-listen", "Address to serve Prometheus metrics, e.g. localhost:9464.").StringVar(&s.metricsListen)
	cmd.Flag("debug", "Enable debug logging.").BoolVar(&s.debug)

	return cmd
}

func (s *simulateCommand) run(_ *kingpin.ParseContext) error {
	a, err := newApp(*s.envFiles, s.debug)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := loadtest.NewCollector()
	trackers := loadtest.Trackers{collector}

	if s.metricsListen != "" {
		mt := metrics.NewTracker()
		trackers = append(trackers, mt)

		srv := &http.Server{
			Addr:              s.metricsListen,
			Handler:           mt.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error(ctx, "metrics server failed", "error", err)
			}
		}()

		defer func() {
			_ = srv.Shutdown(context.Background())
		}()
	}

	var poster loadtest.Poster = transport.NewHTTPPoster(s.timeout, s.cfg.Users)
	if s.fast {
		poster = transport.NewFastPoster(s.timeout, s.cfg.Users)
	}

	r := loadtest.Runner{
		Config: s.cfg,
		NewTask: func(_ int) (loadtest.Invoker, error) {
			return a.task(poster, trackers)
		},
		Logger: a.logger,
	}

	a.logger.Info(ctx, "starting simulation",
		"url", a.cfg.EventsURL(), "users", s.cfg.Users, "wait", s.cfg.Wait.String())

	start := time.Now()
	total, err := r.Run(ctx)

	a.logger.Info(ctx, "simulation finished", "messages", total, "elapsed", time.Since(start).String())
	collector.Report(os.Stdout)

	return err
}
