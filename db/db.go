package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	sqldb.SetMaxOpenConns(20)
	sqldb.SetMaxIdleConns(10)
	return sqldb, nil
}

// CreateTables bootstraps the relational schema. Activities themselves live in Mongo.
func CreateTables(ctx context.Context, sqldb *sql.DB) error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);`
	if _, err := sqldb.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// one row per (user, activity); the primary key doubles as the host lookup index
	createAttendeesTable := `
	CREATE TABLE IF NOT EXISTS activity_attendees (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		activity_id UUID NOT NULL,
		is_host BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, activity_id)
	);`
	if _, err := sqldb.ExecContext(ctx, createAttendeesTable); err != nil {
		return fmt.Errorf("create activity_attendees table: %w", err)
	}

	createHostIndex := `
	CREATE UNIQUE INDEX IF NOT EXISTS activity_attendees_one_host
		ON activity_attendees (activity_id) WHERE is_host;`
	if _, err := sqldb.ExecContext(ctx, createHostIndex); err != nil {
		return fmt.Errorf("create host index: %w", err)
	}
	return nil
}
