// Package audit persists detection events in PostgreSQL. The table is
// append-only: the engine writes events and the export tool and the events
// endpoint read them back, nothing ever updates a row.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/scan"
)

// Store is a PostgreSQL-backed audit log implementing scan.Sink
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore connects to the audit database and ensures the events table exists
func NewStore(cfg config.AuditConfig, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{db: db, logger: logger}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}

	logger.Info("Audit store initialized successfully",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return store, nil
}

// initialize verifies the connection and creates the events table
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS detection_events (
			id BIGSERIAL PRIMARY KEY,
			identity TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			matches JSONB NOT NULL,
			file_names TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_detection_events_identity
			ON detection_events (identity, timestamp DESC)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	return nil
}

// Record appends one detection event
func (s *Store) Record(ctx context.Context, event scan.Event) error {
	matches, err := json.Marshal(event.Matches)
	if err != nil {
		return fmt.Errorf("failed to encode matches: %w", err)
	}

	query := `
		INSERT INTO detection_events (identity, timestamp, action, severity, matches, file_names)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.db.ExecContext(ctx, query,
		event.Identity,
		event.Timestamp,
		string(event.Action),
		string(event.Severity),
		matches,
		event.FileNames,
	)
	if err != nil {
		s.logger.Error("Failed to record detection event",
			zap.Error(err),
			zap.String("identity", event.Identity),
			zap.String("action", string(event.Action)))
		return fmt.Errorf("failed to record detection event: %w", err)
	}

	s.logger.Debug("Detection event recorded",
		zap.String("identity", event.Identity),
		zap.String("severity", string(event.Severity)))
	return nil
}

// eventRow is the database projection of a detection event
type eventRow struct {
	Identity  string    `db:"identity"`
	Timestamp time.Time `db:"timestamp"`
	Action    string    `db:"action"`
	Severity  string    `db:"severity"`
	Matches   []byte    `db:"matches"`
	FileNames string    `db:"file_names"`
}

func (r *eventRow) toEvent() (scan.Event, error) {
	event := scan.Event{
		Identity:  r.Identity,
		Timestamp: r.Timestamp,
		Action:    scan.Action(r.Action),
		Severity:  scan.Severity(r.Severity),
		FileNames: r.FileNames,
	}
	if err := json.Unmarshal(r.Matches, &event.Matches); err != nil {
		return scan.Event{}, fmt.Errorf("failed to decode matches: %w", err)
	}
	return event, nil
}

// Recent returns the identity's newest events, newest first. An empty
// identity returns events across all identities.
func (s *Store) Recent(ctx context.Context, identity string, limit int) ([]scan.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []eventRow
	var err error
	if identity == "" {
		query := `
			SELECT identity, timestamp, action, severity, matches, file_names
			FROM detection_events
			ORDER BY timestamp DESC
			LIMIT $1`
		err = s.db.SelectContext(ctx, &rows, query, limit)
	} else {
		query := `
			SELECT identity, timestamp, action, severity, matches, file_names
			FROM detection_events
			WHERE identity = $1
			ORDER BY timestamp DESC
			LIMIT $2`
		err = s.db.SelectContext(ctx, &rows, query, identity, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query detection events: %w", err)
	}

	events := make([]scan.Event, 0, len(rows))
	for i := range rows {
		event, err := rows[i].toEvent()
		if err != nil {
			s.logger.Warn("Skipping undecodable event row", zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Walk streams every stored event, oldest first, to fn. Used by the export
// tool; stops on the first fn error.
func (s *Store) Walk(ctx context.Context, fn func(scan.Event) error) error {
	query := `
		SELECT identity, timestamp, action, severity, matches, file_names
		FROM detection_events
		ORDER BY timestamp ASC`
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query detection events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row eventRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("failed to scan event row: %w", err)
		}
		event, err := row.toEvent()
		if err != nil {
			s.logger.Warn("Skipping undecodable event row", zap.Error(err))
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the database pool
func (s *Store) Close() error {
	return s.db.Close()
}

// maskDatabaseURL masks sensitive information in database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
