package stores

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

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting in SQLite.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// UpsertNetwork inserts or updates a network record keyed by logical name.
func (s *SQLiteStore) UpsertNetwork(ctx context.Context, record *NetworkRecord) error {
	query := `
		INSERT INTO networks (
			id, name, handle, phase, desired_config, last_applied, last_observed, last_error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			handle = excluded.handle,
			phase = excluded.phase,
			desired_config = excluded.desired_config,
			last_applied = excluded.last_applied,
			last_observed = excluded.last_observed,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`

	record.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Name,
		record.Handle,
		record.Phase,
		record.DesiredConfig,
		record.LastApplied,
		record.LastObserved,
		record.LastError,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert network: %w", err)
	}

	return nil
}

// GetNetwork retrieves a network record by logical name
func (s *SQLiteStore) GetNetwork(ctx context.Context, name string) (*NetworkRecord, error) {
	query := `
		SELECT id, name, handle, phase, desired_config, last_applied, last_observed, last_error, created_at, updated_at
		FROM networks
		WHERE name = ?
	`

	return s.scanNetwork(s.db.QueryRowContext(ctx, query, name), name)
}

// GetNetworkByID retrieves a network record by ID
func (s *SQLiteStore) GetNetworkByID(ctx context.Context, id string) (*NetworkRecord, error) {
	query := `
		SELECT id, name, handle, phase, desired_config, last_applied, last_observed, last_error, created_at, updated_at
		FROM networks
		WHERE id = ?
	`

	return s.scanNetwork(s.db.QueryRowContext(ctx, query, id), id)
}

func (s *SQLiteStore) scanNetwork(row *sql.Row, key string) (*NetworkRecord, error) {
	record := &NetworkRecord{}
	err := row.Scan(
		&record.ID,
		&record.Name,
		&record.Handle,
		&record.Phase,
		&record.DesiredConfig,
		&record.LastApplied,
		&record.LastObserved,
		&record.LastError,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("network %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	return record, nil
}

// ListNetworks lists network records with pagination
func (s *SQLiteStore) ListNetworks(ctx context.Context, limit, offset int) ([]*NetworkRecord, error) {
	query := `
		SELECT id, name, handle, phase, desired_config, last_applied, last_observed, last_error, created_at, updated_at
		FROM networks
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	defer rows.Close()

	records := []*NetworkRecord{}
	for rows.Next() {
		record := &NetworkRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Handle,
			&record.Phase,
			&record.DesiredConfig,
			&record.LastApplied,
			&record.LastObserved,
			&record.LastError,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating networks: %w", err)
	}

	return records, nil
}

// DeleteNetwork deletes a network record by ID
func (s *SQLiteStore) DeleteNetwork(ctx context.Context, id string) error {
	query := `DELETE FROM networks WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("network not found: %s", id)
	}

	return nil
}

// AppendTransition appends a phase transition to the log
func (s *SQLiteStore) AppendTransition(ctx context.Context, event *TransitionEvent) error {
	query := `
		INSERT INTO transitions (network_id, from_phase, to_phase, operation, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.NetworkID,
		event.FromPhase,
		event.ToPhase,
		event.Operation,
		event.Error,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to append transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transition ID: %w", err)
	}

	event.ID = id
	return nil
}

// ListTransitions retrieves the transition history for a network, newest first
func (s *SQLiteStore) ListTransitions(ctx context.Context, networkID string, limit, offset int) ([]*TransitionEvent, error) {
	query := `
		SELECT id, network_id, from_phase, to_phase, operation, error, timestamp
		FROM transitions
		WHERE network_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, networkID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	events := []*TransitionEvent{}
	for rows.Next() {
		event := &TransitionEvent{}
		err := rows.Scan(
			&event.ID,
			&event.NetworkID,
			&event.FromPhase,
			&event.ToPhase,
			&event.Operation,
			&event.Error,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return events, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
