package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coinpredict/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects to postgres, retrying the initial ping with exponential backoff
// so the service can start before the database is reachable.
func Open(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("db dsn is empty")
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	var out *DB
	op := func() error {
		gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			return err
		}
		sqldb, err := gdb.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqldb.PingContext(ctx); err != nil {
			_ = sqldb.Close()
			return err
		}
		out = &DB{Gorm: gdb, SQL: sqldb}
		return nil
	}

	retries := cfg.ConnectRetries
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)); err != nil {
		return nil, err
	}

	out.SQL.SetMaxOpenConns(cfg.MaxOpenConns)
	out.SQL.SetMaxIdleConns(cfg.MaxIdleConns)
	out.SQL.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	out.SQL.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return out, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(ctx context.Context, db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.PingContext(ctx)
}

func SetTimezone(db *DB, tz string) error {
	if tz == "" {
		return nil
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + tz + "'")
	return err
}
