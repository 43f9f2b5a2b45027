package stats

import (
	"context"
	"fmt"
	"time"
)

// Outcome classifies one resolution.
type Outcome string

// Outcomes.
const (
	OutcomeResolved Outcome = "resolved"
	OutcomeFallback Outcome = "fallback"
	OutcomeNotFound Outcome = "not_found"
)

// KeywordStat aggregates the lookups of one keyword.
type KeywordStat struct {
	Keyword  string    `json:"keyword"`
	Resolved int       `json:"resolved"`
	Fallback int       `json:"fallback"`
	NotFound int       `json:"notFound"`
	Total    int       `json:"total"`
	LastSeen time.Time `json:"lastSeen"`
}

// Reference is a [[Keyword]] occurrence in a source document.
type Reference struct {
	Keyword string
	Valid   bool
}

// Record increments the counter of keyword for outcome.
func (db *DB) Record(ctx context.Context, keyword string, outcome Outcome) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO keyword_lookups (keyword, outcome, count, last_seen)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(keyword, outcome) DO UPDATE SET
			count     = count + 1,
			last_seen = excluded.last_seen
	`, keyword, string(outcome), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("stats: record: %w", err)
	}
	return nil
}

// Top returns the most looked-up keywords, most frequent first.
func (db *DB) Top(ctx context.Context, limit int) ([]KeywordStat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT keyword,
			SUM(CASE WHEN outcome = 'resolved'  THEN count ELSE 0 END),
			SUM(CASE WHEN outcome = 'fallback'  THEN count ELSE 0 END),
			SUM(CASE WHEN outcome = 'not_found' THEN count ELSE 0 END),
			SUM(count),
			MAX(last_seen)
		FROM keyword_lookups
		GROUP BY keyword
		ORDER BY SUM(count) DESC, keyword ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("stats: top: %w", err)
	}
	defer rows.Close()

	var out []KeywordStat
	for rows.Next() {
		var s KeywordStat
		var lastSeen string
		if err := rows.Scan(&s.Keyword, &s.Resolved, &s.Fallback, &s.NotFound, &s.Total, &lastSeen); err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		s.LastSeen = parseTime(lastSeen)
		out = append(out, s)
	}
	return out, rows.Err()
}

// parseTime reads the timestamp text SQLite returns for aggregated
// DATETIME columns.
func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ReplaceReferences replaces the references recorded for source.
func (db *DB) ReplaceReferences(ctx context.Context, source string, refs []Reference) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("stats: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM keyword_refs WHERE source = ?`, source); err != nil {
		return fmt.Errorf("stats: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO keyword_refs (source, keyword, valid) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("stats: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.ExecContext(ctx, source, r.Keyword, r.Valid); err != nil {
				return fmt.Errorf("stats: insert ref: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Referrers returns the sorted source paths that reference keyword.
func (db *DB) Referrers(ctx context.Context, keyword string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source FROM keyword_refs WHERE keyword = ? ORDER BY source`, keyword)
	if err != nil {
		return nil, fmt.Errorf("stats: referrers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BrokenReferences returns source -> keywords that did not resolve.
func (db *DB) BrokenReferences(ctx context.Context) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source, keyword FROM keyword_refs WHERE valid = 0 ORDER BY source, keyword`)
	if err != nil {
		return nil, fmt.Errorf("stats: broken refs: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var src, kw string
		if err := rows.Scan(&src, &kw); err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		out[src] = append(out[src], kw)
	}
	return out, rows.Err()
}

// Reset deletes all lookup counters.
func (db *DB) Reset(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM keyword_lookups`); err != nil {
		return fmt.Errorf("stats: reset: %w", err)
	}
	return nil
}
