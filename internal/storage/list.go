package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/codewithboateng/jinspect/internal/ir"
)

// ListRuns returns a lightweight list of runs with issue counts, newest first.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.source, r.ir_version,
		       (SELECT COUNT(1) FROM issues i WHERE i.run_id = r.id) AS issues
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			rr      RunRow
			started string
		)
		if err := rows.Scan(&rr.ID, &started, &rr.Source, &rr.IRVersion, &rr.Issues); err != nil {
			return nil, err
		}
		rr.StartedAt = parseTime(started)
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListIssues returns issues for a run at or above a minimum severity.
func (db *DB) ListIssues(runID, minSeverity string) ([]ir.Issue, error) {
	const q = `
		SELECT id, unit, node, line, rule_id, severity, message, COALESCE(fix, '')
		  FROM issues
		 WHERE run_id = ?
		   AND (CASE severity WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		       >= (CASE ? WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		 ORDER BY
		       (CASE severity WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END) DESC,
		       unit, node, rule_id`
	rows, err := db.conn.Query(q, runID, strings.ToUpper(minSeverity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Issue
	for rows.Next() {
		var is ir.Issue
		if err := rows.Scan(&is.ID, &is.Unit, &is.Node, &is.Line, &is.RuleID, &is.Severity, &is.Message, &is.Fix); err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

func (db *DB) HasRun(id string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM runs WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
