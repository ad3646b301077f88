package infra

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"time"

	"github.com/bool64/brick"
	"github.com/bool64/brick/database"
	"github.com/bool64/brick/jaeger"
	"github.com/go-sql-driver/mysql"
	"github.com/swaggest/rest/response/gzip"
	"github.com/vearutop/iothub-load/internal/domain/ingest"
	"github.com/vearutop/iothub-load/internal/infra/cached"
	"github.com/vearutop/iothub-load/internal/infra/schema"
	"github.com/vearutop/iothub-load/internal/infra/service"
	"github.com/vearutop/iothub-load/internal/infra/storage"
	mysqlMigrations "github.com/vearutop/iothub-load/internal/infra/storage/mysql"
	sqliteMigrations "github.com/vearutop/iothub-load/internal/infra/storage/sqlite"
	_ "modernc.org/sqlite" // SQLite driver.
)

// NewServiceLocator creates application service locator.
func NewServiceLocator(cfg service.Config) (loc *service.Locator, err error) {
	l := &service.Locator{}

	defer func() {
		if err != nil && l != nil && l.LoggerProvider != nil {
			l.CtxdLogger().Error(context.Background(), err.Error())
		}
	}()

	l.BaseLocator, err = brick.NewBaseLocator(cfg.BaseConfig)
	if err != nil {
		return nil, err
	}

	if err = jaeger.Setup(cfg.Jaeger, l.BaseLocator); err != nil {
		return nil, err
	}

	schema.SetupOpenapiCollector(l.OpenAPI)

	l.HTTPServerMiddlewares = append(l.HTTPServerMiddlewares, gzip.Middleware)

	var recorder ingest.Recorder = &ingest.SimpleRecorder{Token: cfg.SASToken}

	switch cfg.Dedup {
	case "naive":
		recorder = cached.NewNaiveDeduplicator(recorder, 10*time.Minute, l.StatsTracker())
	case "advanced":
		seen := brick.MakeCacheOf[bool](l.BaseLocator, "message-ids", 10*time.Minute)
		recorder = cached.NewDeduplicator(recorder, seen)
	}

	if cfg.Database.DSN == "" {
		ms := &storage.MemoryStore{
			Upstream: recorder,
			Stats:    l.StatsTracker(),
			Limit:    cfg.RetainEvents,
		}

		l.EventRecorderProvider = ms
		l.EventClearerProvider = ms
		l.EventCounterProvider = ms

		return l, nil
	}

	if err = setupStorage(l, cfg); err != nil {
		return nil, err
	}

	es := &storage.EventSaver{
		Upstream: recorder,
		Storage:  l.Storage,
		Stats:    l.StatsTracker(),
	}

	l.EventRecorderProvider = es
	l.EventClearerProvider = es
	l.EventCounterProvider = es

	return l, nil
}

func setupStorage(l *service.Locator, cfg service.Config) error {
	var (
		conn       driver.Connector
		dialect    string
		migrations embed.FS
		err        error
	)

	switch cfg.DatabaseDriver {
	case "sqlite":
		dialect = "sqlite3"
		migrations = sqliteMigrations.Migrations

		if conn, err = sqliteConnector(cfg.Database.DSN); err != nil {
			return err
		}
	default:
		dialect = "mysql"
		migrations = mysqlMigrations.Migrations

		c, err := mysql.ParseDSN(cfg.Database.DSN)
		if err != nil {
			return err
		}

		c.ParseTime = true

		if conn, err = mysql.NewConnector(c); err != nil {
			return err
		}
	}

	l.Storage, err = database.SetupStorage(cfg.Database, l.CtxdLogger(), l.StatsTracker(), dialect, conn, migrations)
	if err != nil {
		return err
	}

	return nil
}

type dsnConnector struct {
	dsn string
	drv driver.Driver
}

func (c dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver {
	return c.drv
}

func sqliteConnector(dsn string) (driver.Connector, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	drv := db.Driver()

	if err := db.Close(); err != nil {
		return nil, err
	}

	if dc, ok := drv.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}

	return dsnConnector{dsn: dsn, drv: drv}, nil
}
