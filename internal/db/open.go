package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/retry"
)

// Open connects to dsn and waits for the database to answer a ping. The
// driver for dialect must be registered by the caller.
func Open(ctx context.Context, dialect Dialect, dsn string, rc retry.Config) (*sql.DB, error) {
	if dialect != MySQL && dialect != Postgres {
		return nil, apperr.Invalid("Open", "unsupported dialect %q", dialect)
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, apperr.Invalid("Open", "%v", err)
	}
	conn.SetMaxOpenConns(32)
	conn.SetMaxIdleConns(8)
	conn.SetConnMaxLifetime(5 * time.Minute)

	err = retry.Do(ctx, rc, func() error {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return conn.PingContext(pctx)
	})
	if err != nil {
		conn.Close()
		return nil, apperr.Unavailable("Open", err)
	}
	return conn, nil
}
