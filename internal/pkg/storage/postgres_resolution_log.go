package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

// Ensure PostgresResolutionLog implements ResolutionLog
var _ ResolutionLog = (*PostgresResolutionLog)(nil)

// PostgresResolutionLog stores resolution attempts in PostgreSQL
type PostgresResolutionLog struct {
	db *sql.DB
}

// NewPostgresResolutionLog opens the database and creates the table if needed
func NewPostgresResolutionLog(dsn string) (*PostgresResolutionLog, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log := &PostgresResolutionLog{db: db}
	if err := log.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL resolution log initialized")
	return log, nil
}

func (s *PostgresResolutionLog) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS resolution_log (
		id SERIAL PRIMARY KEY,
		slug VARCHAR(200) NOT NULL,
		race_date VARCHAR(8) NOT NULL,
		venue_code VARCHAR(2) NOT NULL DEFAULT '',
		race_number INTEGER NOT NULL DEFAULT 0,
		strategy VARCHAR(20) NOT NULL,
		tier VARCHAR(20) NOT NULL DEFAULT '',
		race_id VARCHAR(20) NOT NULL DEFAULT '',
		resolved BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_resolution_log_slug ON resolution_log(slug);
	CREATE INDEX IF NOT EXISTS idx_resolution_log_created_at ON resolution_log(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Record inserts one resolution attempt
func (s *PostgresResolutionLog) Record(ctx context.Context, r models.Resolution) error {
	query := `
	INSERT INTO resolution_log (slug, race_date, venue_code, race_number, strategy, tier, race_id, resolved)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		r.Slug, r.Date, r.VenueCode, r.RaceNumber, r.Strategy, r.Tier, r.RaceID, r.Resolved); err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}
	return nil
}

// UnresolvedSince lists slugs that failed to resolve after since, most recent first.
// Used by resolve-check to spot selector drift.
func (s *PostgresResolutionLog) UnresolvedSince(ctx context.Context, since time.Time, limit int) ([]models.Resolution, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT slug, race_date, venue_code, race_number, strategy
	FROM resolution_log
	WHERE resolved = FALSE AND created_at >= $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var out []models.Resolution
	for rows.Next() {
		var r models.Resolution
		if err := rows.Scan(&r.Slug, &r.Date, &r.VenueCode, &r.RaceNumber, &r.Strategy); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *PostgresResolutionLog) Close() error {
	return s.db.Close()
}
