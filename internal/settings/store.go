package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/patterns"
	"github.com/dataveil/dataveil/internal/scan"
)

// Store resolves identity settings from PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore connects to the settings database and ensures the table exists
func NewStore(databaseURL string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to settings database: %w", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	logger.Info("Settings store initialized successfully")
	return store, nil
}

// initialize verifies the connection and creates the settings table
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS identity_settings (
			identity TEXT PRIMARY KEY,
			scan_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			scan_level TEXT NOT NULL DEFAULT 'standard',
			auto_anonymize BOOLEAN NOT NULL DEFAULT FALSE,
			custom_patterns JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

type settingsRow struct {
	Identity       string `db:"identity"`
	ScanEnabled    bool   `db:"scan_enabled"`
	ScanLevel      string `db:"scan_level"`
	AutoAnonymize  bool   `db:"auto_anonymize"`
	CustomPatterns []byte `db:"custom_patterns"`
}

// Settings returns the identity's stored preferences
func (s *Store) Settings(ctx context.Context, identity string) (*scan.Settings, error) {
	var row settingsRow
	query := `
		SELECT identity, scan_enabled, scan_level, auto_anonymize, custom_patterns
		FROM identity_settings
		WHERE identity = $1`
	if err := s.db.GetContext(ctx, &row, query, identity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, identity)
		}
		return nil, fmt.Errorf("failed to query identity settings: %w", err)
	}

	var custom []patterns.Definition
	if err := json.Unmarshal(row.CustomPatterns, &custom); err != nil {
		// A corrupt custom-pattern blob should not disable scanning for the
		// identity; drop the customs and keep the built-ins.
		s.logger.Warn("Dropping undecodable custom patterns",
			zap.String("identity", identity),
			zap.Error(err))
		custom = nil
	}

	return &scan.Settings{
		ScanEnabled:    row.ScanEnabled,
		ScanLevel:      patterns.ParseLevel(row.ScanLevel),
		AutoAnonymize:  row.AutoAnonymize,
		CustomPatterns: custom,
	}, nil
}

// Upsert writes the identity's preferences
func (s *Store) Upsert(ctx context.Context, identity string, settings *scan.Settings) error {
	custom, err := json.Marshal(settings.CustomPatterns)
	if err != nil {
		return fmt.Errorf("failed to encode custom patterns: %w", err)
	}

	query := `
		INSERT INTO identity_settings (identity, scan_enabled, scan_level, auto_anonymize, custom_patterns, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (identity) DO UPDATE SET
			scan_enabled = EXCLUDED.scan_enabled,
			scan_level = EXCLUDED.scan_level,
			auto_anonymize = EXCLUDED.auto_anonymize,
			custom_patterns = EXCLUDED.custom_patterns,
			updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query,
		identity,
		settings.ScanEnabled,
		string(settings.ScanLevel),
		settings.AutoAnonymize,
		custom,
	); err != nil {
		return fmt.Errorf("failed to upsert identity settings: %w", err)
	}
	return nil
}

// Close releases the database pool
func (s *Store) Close() error {
	return s.db.Close()
}
