package main

import (
	"context"
	"os"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/bool64/zapctxd"
	"github.com/vearutop/iothub-load/internal/iothub"
	"github.com/vearutop/iothub-load/internal/loadtest"
	"go.uber.org/zap"
)

type app struct {
	ctx    context.Context
	cfg    iothub.Config
	logger ctxd.Logger
}

func newApp(envFiles []string, debug bool) (*app, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	a := &app{
		ctx: context.Background(),
		logger: zapctxd.New(zapctxd.Config{
			Level:  level,
			Output: os.Stderr,
		}),
	}

	cfg, err := iothub.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(a.ctx); err != nil {
		return nil, err
	}

	if cfg.Lenient {
		a.logger.Warn(a.ctx, "configuration is not validated", "url", cfg.EventsURL())
	}

	if exp, ok := cfg.TokenExpiry(); ok && exp.Before(time.Now()) {
		a.logger.Warn(a.ctx, "SAS token is expired, requests are likely to be rejected", "expiry", exp)
	}

	a.cfg = cfg

	return a, nil
}

func (a *app) task(poster loadtest.Poster, tracker stats.Tracker) (*loadtest.Task, error) {
	return loadtest.NewTask(a.cfg, poster, tracker)
}
