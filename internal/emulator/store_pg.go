package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool builds a connection pool for the postgres-backed document store.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// PgDocumentStore persists documents in a single two-key table.
type PgDocumentStore struct {
	pool *pgxpool.Pool
}

func NewPgDocumentStore(pool *pgxpool.Pool) *PgDocumentStore {
	return &PgDocumentStore{pool: pool}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (s *PgDocumentStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS documents (
			parent     TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (parent, id)
		)
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PgDocumentStore) Put(ctx context.Context, parent, id string, doc json.RawMessage) error {
	const query = `
		INSERT INTO documents (parent, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (parent, id) DO UPDATE SET doc = EXCLUDED.doc
	`
	_, err := s.pool.Exec(ctx, query, parent, id, []byte(doc))
	return err
}

func (s *PgDocumentStore) Get(ctx context.Context, parent, id string) (json.RawMessage, error) {
	const query = `SELECT doc FROM documents WHERE parent = $1 AND id = $2`
	var doc []byte
	err := s.pool.QueryRow(ctx, query, parent, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (s *PgDocumentStore) List(ctx context.Context, parent string) (map[string]json.RawMessage, error) {
	const query = `SELECT id, doc FROM documents WHERE parent = $1`
	rows, err := s.pool.Query(ctx, query, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		out[id] = json.RawMessage(doc)
	}
	return out, rows.Err()
}

func (s *PgDocumentStore) Delete(ctx context.Context, parent, id string) error {
	const query = `DELETE FROM documents WHERE parent = $1 AND id = $2`
	_, err := s.pool.Exec(ctx, query, parent, id)
	return err
}
