package history

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the search history table. Applied by the operator (or the
// integration test harness), not at process start.
const Schema = `
CREATE TABLE IF NOT EXISTS search_history (
	id             UUID PRIMARY KEY,
	query          TEXT NOT NULL,
	country        TEXT NOT NULL,
	node_count     INT NOT NULL,
	edge_count     INT NOT NULL,
	max_risk_score DOUBLE PRECISION NOT NULL,
	cache_hit      BOOLEAN NOT NULL,
	degraded       BOOLEAN NOT NULL,
	duration_ms    DOUBLE PRECISION NOT NULL,
	user_ip        TEXT NOT NULL DEFAULT '',
	user_agent     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS search_history_created_at_idx ON search_history (created_at DESC);
CREATE INDEX IF NOT EXISTS search_history_country_idx ON search_history (country);
`

// PostgresStore persists search history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history
			(id, query, country, node_count, edge_count, max_risk_score, cache_hit, degraded, duration_ms, user_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.ID, record.Query, record.Country, record.NodeCount, record.EdgeCount,
		record.MaxRiskScore, record.CacheHit, record.Degraded, record.DurationMS,
		record.UserIP, record.UserAgent, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int, country string) ([]Record, error) {
	query := `
		SELECT id, query, country, node_count, edge_count, max_risk_score, cache_hit, degraded, duration_ms, user_ip, user_agent, created_at
		FROM search_history`
	args := []any{}
	if country != "" {
		query += ` WHERE country = $1`
		args = append(args, country)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Query, &r.Country, &r.NodeCount, &r.EdgeCount,
			&r.MaxRiskScore, &r.CacheHit, &r.Degraded, &r.DurationMS,
			&r.UserIP, &r.UserAgent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search history: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search history: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_history`).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("count search history: %w", err)
	}
	return Stats{Backend: "postgres", Records: count}, nil
}
