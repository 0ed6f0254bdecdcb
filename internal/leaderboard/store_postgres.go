package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS local_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertKV = `
INSERT INTO local_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore stores the document as one row of a key/value table, the
// same shape as the browser's local storage. The table is created if missing.
func NewPostgresStore(ctx context.Context, db *sql.DB) (Store, error) {
	if _, err := db.ExecContext(ctx, createKVTable); err != nil {
		return nil, fmt.Errorf("create local_kv: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func (p *postgresStore) Load(ctx context.Context) (Document, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM local_kv WHERE key = $1`, StatsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return NewDocument(), nil
	}
	if err != nil {
		return NewDocument(), fmt.Errorf("select %s: %w", StatsKey, err)
	}
	return DecodeDocument([]byte(value))
}

func (p *postgresStore) Save(ctx context.Context, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, upsertKV, StatsKey, string(data)); err != nil {
		return fmt.Errorf("upsert %s: %w", StatsKey, err)
	}
	return nil
}
