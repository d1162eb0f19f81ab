package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type key int

const ctxKey key = 0

// WithLogging marks the context so that queries run with it are logged even
// when database_debug is off.
func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log    logger.Logger
	always bool
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, _ := ctx.Value(ctxKey).(bool)
	if !qh.always && !enabled {
		return
	}

	data := logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		data["error"] = event.Err.Error()
	}
	qh.log.Debug(event.Query, data)
}

// dsnConnector adapts a driver that doesn't implement driver.DriverContext.
type dsnConnector struct {
	dsn string
	drv driver.Driver
}

func (c *dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c *dsnConnector) Driver() driver.Driver {
	return c.drv
}

func openConnector(drv driver.Driver, dsn string) (driver.Connector, error) {
	drvCtx, ok := drv.(driver.DriverContext)
	if !ok {
		return &dsnConnector{dsn: dsn, drv: drv}, nil
	}
	connector, err := drvCtx.OpenConnector(dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return connector, nil
}

// New opens the metadata database described by cfg. Every connection gets
// foreign keys enabled (records are removed along with their owner) and the
// pool is limited to one connection so writers never contend for the lock.
func New(cfg *config.Config) (*bun.DB, error) {
	connector, err := openConnector(sqliteshim.Driver(), cfg.DatabaseFilePath)
	if err != nil {
		return nil, err
	}

	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.AddQueryHook(&logQueryHook{
		log:    logger.NewWithLevel("debug"),
		always: cfg.DatabaseDebug,
	})

	log := logger.New()
	attempts := cfg.DatabaseConnectRetryCount
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		_, err = db.Exec("SELECT 1")
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying", logger.Data{"attempt": i + 1, "path": cfg.DatabaseFilePath})
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", cfg.DatabaseFilePath)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, errors.Wrapf(err, "failed to run %q", pragma)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds()); err != nil {
		return nil, errors.Wrap(err, "failed to set busy_timeout")
	}

	return db, nil
}
