package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSchemaOutdated is returned when the database lacks tables or columns the
// current binary writes
var ErrSchemaOutdated = errors.New("database schema is missing or out of date, run 'ytshorts migrate up'")

const applicationName = "ytshorts"

// schemaCheck verifies the newest migration the binary depends on
const schemaCheck = `SELECT
	to_regclass('public.processing_results') IS NOT NULL,
	EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = 'processing_results' AND column_name = 'lease_expires_at'
	)`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewDatabasePool connects to the postgres store, checks it answers and that
// its schema is current. Job status writes hold a row lock for one short
// transaction each, so the parsed pool limits are used as is.
func NewDatabasePool(ctx context.Context, config *Config) (*pgxpool.Pool, error) {
	if config.Store != StorePostgres {
		return nil, fmt.Errorf("store %q does not use a database", config.Store)
	}

	dbConfig, err := config.ParseDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(dbConfig.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = dbConfig.MaxConns
	poolConfig.MinConns = dbConfig.MinConns
	poolConfig.MaxConnLifetime = dbConfig.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbConfig.MaxConnIdleTime
	// shows up in pg_stat_activity next to the job locks
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dbConfig.Address(), err)
	}
	if err := checkSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func checkSchema(ctx context.Context, q rowQuerier) error {
	var hasJobs, hasLeases bool
	if err := q.QueryRow(ctx, schemaCheck).Scan(&hasJobs, &hasLeases); err != nil {
		return fmt.Errorf("failed to inspect database schema: %w", err)
	}
	if !hasJobs || !hasLeases {
		return ErrSchemaOutdated
	}
	return nil
}

// CloseDatabasePool closes the pool; nil is allowed
func CloseDatabasePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
