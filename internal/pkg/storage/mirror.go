package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Ensure SQLMirror implements Mirror
var _ Mirror = (*SQLMirror)(nil)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// SQLMirror stores JSON documents in a single (collection, id) keyed table, on PostgreSQL
// (JSONB) or SQLite (TEXT).
type SQLMirror struct {
	db      *sql.DB
	dialect dialect
}

// NewMirror opens a mirror for driver "postgres" or "sqlite".
func NewMirror(driver, dsn string) (*SQLMirror, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return NewPostgresMirror(dsn)
	case "sqlite", "sqlite3":
		return NewSQLiteMirror(dsn)
	default:
		return nil, fmt.Errorf("unsupported mirror driver %q", driver)
	}
}

// NewPostgresMirror creates a new PostgreSQL mirror
func NewPostgresMirror(dsn string) (*SQLMirror, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return openMirror(db, dialectPostgres)
}

// NewSQLiteMirror opens (or creates) a SQLite database file. ":memory:" is accepted.
func NewSQLiteMirror(path string) (*SQLMirror, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: SQLite has a single writer, and every ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)
	return openMirror(db, dialectSQLite)
}

func openMirror(db *sql.DB, d dialect) (*SQLMirror, error) {
	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mirror database: %w", err)
	}

	m := &SQLMirror{db: db, dialect: d}
	if err := m.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("Mirror storage initialized", "driver", m.driverName())
	return m, nil
}

func (m *SQLMirror) driverName() string {
	if m.dialect == dialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

func (m *SQLMirror) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		collection VARCHAR(100) NOT NULL,
		id VARCHAR(200) NOT NULL,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	)`
	if m.dialect == dialectSQLite {
		query = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	)`
	}

	_, err := m.db.ExecContext(ctx, query)
	return err
}

// bind rewrites $n placeholders for SQLite.
func (m *SQLMirror) bind(query string) string {
	if m.dialect != dialectSQLite {
		return query
	}
	for i := 9; i >= 1; i-- {
		query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), "?")
	}
	return query
}

func (m *SQLMirror) Upsert(ctx context.Context, collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := m.bind(`
	INSERT INTO documents (collection, id, data, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)

	if _, err := m.db.ExecContext(ctx, query, collection, id, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *SQLMirror) Get(ctx context.Context, collection, id string, dst any) error {
	query := m.bind(`SELECT data FROM documents WHERE collection = $1 AND id = $2`)

	var raw []byte
	err := m.db.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close closes the database connection
func (m *SQLMirror) Close() error {
	return m.db.Close()
}
