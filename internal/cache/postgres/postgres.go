package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

var (
	// ErrPingFailed is returned if the initial ping to the database returns an error
	ErrPingFailed = errors.New("ping returned error")
)

var (
	//go:embed create_table.sql
	queryCreateTable string
	//go:embed delete_expired.sql
	queryDeleteExpired string
	//go:embed delete_item.sql
	queryDeleteItem string
	//go:embed delete_pattern.sql
	queryDeletePattern string
	//go:embed fetch_item.sql
	queryFetchItem string
	//go:embed upsert_item.sql
	queryUpsertItem string
)

// Config defines the configuration options for the PostgreSQL cache backend.
type Config struct {
	// SweepExpired enables automatic cleanup of expired cache rows
	// through a background task. Expiry is enforced on read either way.
	SweepExpired bool

	// SweepInterval defines the interval at which the cleanup task runs.
	// Shorter durations may impact database performance.
	SweepInterval time.Duration
}

// Store implements the cache.Store interface using PostgreSQL as the
// storage backend.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	now func() time.Time
}

// Get retrieves the value for a key, returning cache.ErrNoItem when the
// row is absent or expired and cache.ErrUnavailable on database faults.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	stmt, err := s.db.PrepareContext(ctx, queryFetchItem)
	if err != nil {
		return nil, errors.Join(cache.ErrUnavailable, err)
	}
	defer stmt.Close()

	var value []byte
	if err := stmt.QueryRowContext(ctx, key, s.now().UTC()).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cache.ErrNoItem
		}
		return nil, errors.Join(cache.ErrUnavailable, err)
	}

	return value, nil
}

// Set upserts a value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stmt, err := s.db.PrepareContext(ctx, queryUpsertItem)
	if err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, key, value, s.now().UTC().Add(ttl)); err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}

	return nil
}

// Delete removes a single key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteItem, key); err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}

	return nil
}

// DeletePattern removes every key matching a glob pattern. The glob is
// rewritten into a SQL LIKE pattern, so only '*' and '?' wildcards are
// supported here.
func (s *Store) DeletePattern(ctx context.Context, pattern string) error {
	if _, err := s.db.ExecContext(ctx, queryDeletePattern, likePattern(pattern)); err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}

	return nil
}

func likePattern(glob string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
		`*`, `%`,
		`?`, `_`,
	)
	return r.Replace(glob)
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, queryCreateTable)
	return err
}

func deleteExpiredItems(ctx context.Context, db *sql.DB, now time.Time) error {
	_, err := db.ExecContext(ctx, queryDeleteExpired, now.UTC())
	return err
}

func (s *Store) sweepTask(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := deleteExpiredItems(ctx, s.db, s.now()); err != nil {
				s.logger.WarnContext(ctx, "expired row sweep failed", "error", err)
			}
		}
	}
}

// New creates a PostgreSQL cache store. The initial ping is retried with
// exponential backoff so the gateway survives a database that comes up
// slightly after it does. Table creation is idempotent.
func New(ctx context.Context, db *sql.DB, config *Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ping := func() error {
		return db.PingContext(ctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		return nil, errors.Join(ErrPingFailed, err)
	}

	if err := createTable(ctx, db); err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: logger,

		now: time.Now,
	}

	if config != nil && config.SweepExpired {
		interval := config.SweepInterval
		if interval == 0 {
			interval = 10 * time.Minute
		}
		go s.sweepTask(ctx, interval)
	}

	return s, nil
}
