// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civbuilder/civdraft/internal/models"
)

// PostgresStore persists drafts in a single table with a JSONB payload:
//
//	CREATE TABLE IF NOT EXISTS drafts (
//	    id         TEXT PRIMARY KEY,
//	    payload    JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects using the standard POSTGRES_USER,
// POSTGRES_PASSWORD, PG_HOST, PG_PORT and PG_DATABASE environment variables
// and ensures the drafts table exists.
func NewPostgresStore(ctx context.Context) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", ""),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DATABASE", "civdraft"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS drafts (
			id         TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure drafts table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM drafts WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, ErrNotFound
	}
	var d models.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		log.Printf("PostgresStore: draft %s is corrupt, treating as missing: %v", id, err)
		return nil, ErrNotFound
	}
	if !wellFormed(&d) {
		log.Printf("PostgresStore: draft %s violates structural invariants, treating as missing.", id)
		return nil, ErrNotFound
	}
	models.NormalizeDraft(&d)
	return &d, nil
}

func (s *PostgresStore) Put(ctx context.Context, draft *models.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO drafts (id, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		draft.ID, payload)
	if err != nil {
		return fmt.Errorf("upsert draft %s: %w", draft.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	return err
}

// Close releases the connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }
