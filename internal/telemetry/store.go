package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thaisearch/thaitok/internal/errors"
)

// Store is the SQLite-backed metrics store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the telemetry database at path and runs the
// schema migration. The parent directory is created if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(errors.ErrCodeTelemetryStore,
				fmt.Sprintf("create telemetry directory %s: %v", dir, err), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeTelemetryStore,
			fmt.Sprintf("open telemetry database %s: %v", path, err), err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	-- Engine label usage and fallback counts (aggregated daily)
	CREATE TABLE IF NOT EXISTS engine_stats (
		date TEXT NOT NULL,
		engine_label TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, engine_label)
	);

	CREATE TABLE IF NOT EXISTS fallback_stats (
		date TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	-- Query kind frequency (Simple, Compound, Partial, Mixed, Phrase)
	CREATE TABLE IF NOT EXISTS query_kind_stats (
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, kind)
	);

	-- Latency histogram per operation (segment / query)
	CREATE TABLE IF NOT EXISTS latency_stats (
		date TEXT NOT NULL,
		operation TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, operation, bucket)
	);

	-- Zero-result queries (bounded FIFO, max 100)
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.New(errors.ErrCodeTelemetryStore,
			fmt.Sprintf("create telemetry schema: %v", err), err)
	}
	return nil
}

// SaveEngineCounts upserts daily engine-label counts and the fallback
// counter.
func (s *Store) SaveEngineCounts(date string, counts map[string]int64, fallbacks int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO engine_stats (date, engine_label, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, engine_label) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for label, count := range counts {
		if _, err := stmt.Exec(date, label, count); err != nil {
			return fmt.Errorf("insert engine count: %w", err)
		}
	}

	if fallbacks > 0 {
		_, err = tx.Exec(`
			INSERT INTO fallback_stats (date, count)
			VALUES (?, ?)
			ON CONFLICT(date) DO UPDATE SET count = count + excluded.count
		`, date, fallbacks)
		if err != nil {
			return fmt.Errorf("insert fallback count: %w", err)
		}
	}

	return tx.Commit()
}

// GetEngineCounts retrieves engine-label totals for a date range.
func (s *Store) GetEngineCounts(from, to string) (map[string]int64, error) {
	rows, err := s.db.Query(`
		SELECT engine_label, SUM(count) as total
		FROM engine_stats
		WHERE date >= ? AND date <= ?
		GROUP BY engine_label
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query engine counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[label] = count
	}
	return counts, rows.Err()
}

// GetFallbackCount retrieves the fallback total for a date range.
func (s *Store) GetFallbackCount(from, to string) (int64, error) {
	var count sql.NullInt64
	err := s.db.QueryRow(`
		SELECT SUM(count) FROM fallback_stats
		WHERE date >= ? AND date <= ?
	`, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query fallback count: %w", err)
	}
	return count.Int64, nil
}

// SaveQueryKindCounts upserts daily query kind counts.
func (s *Store) SaveQueryKindCounts(date string, counts map[string]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_kind_stats (date, kind, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, kind) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for kind, count := range counts {
		if _, err := stmt.Exec(date, kind, count); err != nil {
			return fmt.Errorf("insert query kind count: %w", err)
		}
	}
	return tx.Commit()
}

// GetQueryKindCounts retrieves query kind totals for a date range.
func (s *Store) GetQueryKindCounts(from, to string) (map[string]int64, error) {
	rows, err := s.db.Query(`
		SELECT kind, SUM(count) as total
		FROM query_kind_stats
		WHERE date >= ? AND date <= ?
		GROUP BY kind
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

// SaveLatencyCounts upserts daily latency histogram counts for one
// operation ("segment" or "query").
func (s *Store) SaveLatencyCounts(date, operation string, counts map[LatencyBucket]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO latency_stats (date, operation, bucket, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, operation, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.Exec(date, operation, string(bucket), count); err != nil {
			return fmt.Errorf("insert latency count: %w", err)
		}
	}
	return tx.Commit()
}

// GetLatencyCounts retrieves the latency distribution for one operation
// over a date range.
func (s *Store) GetLatencyCounts(from, to, operation string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(`
		SELECT bucket, SUM(count) as total
		FROM latency_stats
		WHERE date >= ? AND date <= ? AND operation = ?
		GROUP BY bucket
	`, from, to, operation)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// AddZeroResultQuery records a query that returned nothing, keeping at
// most the 100 newest entries.
func (s *Store) AddZeroResultQuery(query string, timestamp time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO zero_result_queries (query, timestamp)
		VALUES (?, ?)
	`, query, timestamp)
	if err != nil {
		return fmt.Errorf("insert zero-result query: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM zero_result_queries
		WHERE id NOT IN (
			SELECT id FROM zero_result_queries
			ORDER BY id DESC
			LIMIT 100
		)
	`)
	if err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}
	return nil
}

// GetZeroResultQueries retrieves the most recent zero-result queries.
func (s *Store) GetZeroResultQueries(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT query
		FROM zero_result_queries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
