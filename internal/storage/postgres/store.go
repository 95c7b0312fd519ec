package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" driver

	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces" // interface SessionStore
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS session_snapshots (
	session_id      TEXT PRIMARY KEY,
	current_account TEXT NOT NULL DEFAULT '',
	ledger          JSONB NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSessionStore treats rows untouched for longer than ttl as gone:
// Load skips them and PurgeExpired deletes them.
type PostgresSessionStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresSessionStore(db *sql.DB, ttl time.Duration) *PostgresSessionStore {
	return &PostgresSessionStore{
		db:  db,
		ttl: ttl,
	}
}

// Open connects with the lib/pq driver and makes sure the table exists.
func Open(ctx context.Context, dsn string, ttl time.Duration) (*PostgresSessionStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewPostgresSessionStore(db, ttl)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (p *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create session_snapshots: %w", err)
	}
	return nil
}

func (p *PostgresSessionStore) Load(ctx context.Context, sessionID string) (models.SessionState, bool, error) {
	const query = `SELECT current_account, ledger FROM session_snapshots
	WHERE session_id = $1 AND updated_at > now() - make_interval(secs => $2)`

	var (
		state  models.SessionState
		ledger []byte
	)
	err := p.db.QueryRowContext(ctx, query, sessionID, p.ttl.Seconds()).Scan(&state.CurrentAccount, &ledger)

	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionState{}, false, nil
	}
	if err != nil {
		return models.SessionState{}, false, err
	}

	if err := json.Unmarshal(ledger, &state.Ledger); err != nil {
		return models.SessionState{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, true, nil
}

// Save replaces the session row inside a single SQL transaction so a reader
// sees either the old snapshot or the new one.
func (p *PostgresSessionStore) Save(ctx context.Context, sessionID string, state models.SessionState) (err error) {
	const query = `INSERT INTO session_snapshots (session_id, current_account, ledger, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (session_id) DO UPDATE
	SET current_account = EXCLUDED.current_account, ledger = EXCLUDED.ledger, updated_at = EXCLUDED.updated_at`

	ledger, err := json.Marshal(state.Ledger)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if _, err = dbTx.ExecContext(ctx, query, sessionID, state.CurrentAccount, ledger); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (p *PostgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM session_snapshots WHERE session_id = $1`

	_, err := p.db.ExecContext(ctx, query, sessionID)
	return err
}

// PurgeExpired removes sessions untouched for longer than the store's ttl
// and returns how many rows were removed.
func (p *PostgresSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM session_snapshots WHERE updated_at <= now() - make_interval(secs => $1)`

	res, err := p.db.ExecContext(ctx, query, p.ttl.Seconds())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *PostgresSessionStore) Close() error {
	return p.db.Close()
}

var _ interfaces.SessionStore = (*PostgresSessionStore)(nil)
