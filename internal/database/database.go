package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/contractmanage/internal/retry"
)

// Options controls how the connection pool is opened.
type Options struct {
	URL          string
	MaxOpenConns int
	// ConnectRetries is the number of extra ping attempts made while the
	// server is still coming up.
	ConnectRetries int
}

// NewDB opens a postgres pool and waits until it answers a ping.
func NewDB(ctx context.Context, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("database url is empty: set database.url or DATABASE_URL")
	}

	db, err := sql.Open("postgres", opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := waitReady(ctx, opts.ConnectRetries, db.PingContext); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// waitReady pings until the server answers. Only transient connection errors
// are retried; bad credentials or an unknown database fail on the first try.
func waitReady(ctx context.Context, retries int, ping func(context.Context) error) error {
	logger := log.With().Str("component", "database").Logger()
	res := retry.Do(ctx, retry.DatabaseConfig(retries), logger, func() error {
		return ping(ctx)
	})
	if !res.Success {
		return fmt.Errorf("failed to ping db after %d attempts: %w", res.Attempts, res.LastError)
	}
	return nil
}
