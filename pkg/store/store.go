// Package store persists configuration snapshots to SQLite so a history
// of `kconfig snapshot` runs can be listed and compared later
// (SPEC_FULL.md section 12's supplemented snapshot/history feature).
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config configures a Store. There is no ambient/global state.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store persists configuration snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at cfg.Path and
// runs any pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("store: migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SymbolValue is one symbol's value at the time a snapshot was taken.
type SymbolValue struct {
	Symbol    string
	Value     string
	IsDefault bool
}

// Snapshot is one row of snapshot metadata.
type Snapshot struct {
	ID          string
	Label       string
	ConfigPath  string
	CreatedAt   time.Time
	SymbolCount int
}

// SaveSnapshot records label, configPath, and values as one snapshot and
// returns its generated ID.
func (s *Store) SaveSnapshot(ctx context.Context, label, configPath string, values []SymbolValue) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, label, config_path, symbol_count) VALUES (?, ?, ?, ?)`,
		id, label, configPath, len(values),
	); err != nil {
		return "", fmt.Errorf("store: insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_values (snapshot_id, symbol, value, is_default) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare snapshot value insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, id, v.Symbol, v.Value, v.IsDefault); err != nil {
			return "", fmt.Errorf("store: insert snapshot value %s: %w", v.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit snapshot: %w", err)
	}
	return id, nil
}

// ListSnapshots returns every recorded snapshot, most recent first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, config_path, created_at, symbol_count FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Label, &snap.ConfigPath, &snap.CreatedAt, &snap.SymbolCount); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SnapshotValues returns the recorded symbol values for one snapshot.
func (s *Store) SnapshotValues(ctx context.Context, id string) ([]SymbolValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, value, is_default FROM snapshot_values WHERE snapshot_id = ? ORDER BY symbol`, id)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot values: %w", err)
	}
	defer rows.Close()

	var out []SymbolValue
	for rows.Next() {
		var v SymbolValue
		if err := rows.Scan(&v.Symbol, &v.Value, &v.IsDefault); err != nil {
			return nil, fmt.Errorf("store: scan snapshot value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Diff compares two snapshots and returns the symbols whose value or
// default-ness changed between them, keyed by symbol name.
type Diff struct {
	Symbol  string
	Before  string
	After   string
	Changed bool
}

func (s *Store) Diff(ctx context.Context, fromID, toID string) ([]Diff, error) {
	from, err := s.SnapshotValues(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.SnapshotValues(ctx, toID)
	if err != nil {
		return nil, err
	}

	beforeMap := make(map[string]string, len(from))
	for _, v := range from {
		beforeMap[v.Symbol] = v.Value
	}
	afterMap := make(map[string]string, len(to))
	for _, v := range to {
		afterMap[v.Symbol] = v.Value
	}

	seen := make(map[string]struct{})
	var diffs []Diff
	for name, before := range beforeMap {
		seen[name] = struct{}{}
		after, ok := afterMap[name]
		if !ok || after != before {
			diffs = append(diffs, Diff{Symbol: name, Before: before, After: after, Changed: true})
		}
	}
	for name, after := range afterMap {
		if _, ok := seen[name]; ok {
			continue
		}
		diffs = append(diffs, Diff{Symbol: name, Before: "", After: after, Changed: true})
	}
	return diffs, nil
}
