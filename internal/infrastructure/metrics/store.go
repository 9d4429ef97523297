package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
)

// Store implements ports.MetricsStore on a SQLite connection.
type Store struct {
	conn *Connection
}

// NewStore creates a metrics store over an open connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// RecordSwitch appends a switch record.
func (s *Store) RecordSwitch(ctx context.Context, rec *ports.SwitchRecord) error {
	db, err := s.conn.DB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO switch_records
			(workspace_id, previous_id, latency_ns, window_count, success, reason, switched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.WorkspaceID, rec.PreviousID, rec.Latency.Nanoseconds(),
		rec.WindowCount, rec.Success, rec.Reason, rec.SwitchedAt)
	if err != nil {
		return fmt.Errorf("could not insert switch record: %w", err)
	}
	return nil
}

// RecordTiling appends a tiling record.
func (s *Store) RecordTiling(ctx context.Context, rec *ports.TilingRecord) error {
	db, err := s.conn.DB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tiling_records
			(workspace_id, algorithm, window_count, duration_ns, success, reason, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.WorkspaceID, rec.Algorithm, rec.WindowCount,
		rec.Duration.Nanoseconds(), rec.Success, rec.Reason, rec.ComputedAt)
	if err != nil {
		return fmt.Errorf("could not insert tiling record: %w", err)
	}
	return nil
}

// SwitchHistory returns switch records matching the filter, most recent first.
func (s *Store) SwitchHistory(ctx context.Context, filter ports.MetricsFilter) ([]ports.SwitchRecord, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT workspace_id, previous_id, latency_ns, window_count, success, reason, switched_at
		FROM switch_records`
	where, args := filterClauses(filter)
	query += where + " ORDER BY switched_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query switch history: %w", err)
	}
	defer rows.Close()

	var records []ports.SwitchRecord
	for rows.Next() {
		var rec ports.SwitchRecord
		var previous, reason sql.NullString
		var latencyNS int64
		if err := rows.Scan(&rec.WorkspaceID, &previous, &latencyNS,
			&rec.WindowCount, &rec.Success, &reason, &rec.SwitchedAt); err != nil {
			return nil, fmt.Errorf("could not scan switch record: %w", err)
		}
		rec.PreviousID = previous.String
		rec.Reason = reason.String
		rec.Latency = time.Duration(latencyNS)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Aggregate summarizes switch records matching the filter.
func (s *Store) Aggregate(ctx context.Context, filter ports.MetricsFilter) (*ports.SwitchAggregate, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(latency_ns), 0),
			COALESCE(MAX(latency_ns), 0)
		FROM switch_records`
	where, args := filterClauses(filter)
	query += where

	var agg ports.SwitchAggregate
	var avgNS float64
	var maxNS int64
	err = db.QueryRowContext(ctx, query, args...).Scan(&agg.Count, &agg.Failures, &avgNS, &maxNS)
	if err != nil {
		return nil, fmt.Errorf("could not aggregate switch records: %w", err)
	}
	agg.AvgLatencyMS = avgNS / float64(time.Millisecond)
	agg.MaxLatencyMS = maxNS / int64(time.Millisecond)
	return &agg, nil
}

// Prune removes records older than the retention cutoff.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	db, err := s.conn.DB()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	var removed int64

	res, err := db.ExecContext(ctx, "DELETE FROM switch_records WHERE switched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("could not prune switch records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}

	res, err = db.ExecContext(ctx, "DELETE FROM tiling_records WHERE computed_at < ?", cutoff)
	if err != nil {
		return removed, fmt.Errorf("could not prune tiling records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}
	return removed, nil
}

// filterClauses builds the shared WHERE clause for metrics queries.
func filterClauses(filter ports.MetricsFilter) (string, []interface{}) {
	where := ""
	var args []interface{}
	add := func(clause string, arg interface{}) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, arg)
	}

	if filter.WorkspaceID != "" {
		add("workspace_id = ?", filter.WorkspaceID)
	}
	if !filter.Since.IsZero() {
		add("switched_at >= ?", filter.Since)
	}
	return where, args
}
