package storage

import (
	"database/sql"
	"time"
)

// Waiver suppresses issues of one rule, optionally narrowed to a unit path
// and a class-name substring, until it expires or is revoked.
type Waiver struct {
	ID        int64      `json:"id"`
	RuleID    string     `json:"rule_id"`
	Unit      string     `json:"unit,omitempty"`
	ClassSub  string     `json:"class_sub,omitempty"`
	Reason    string     `json:"reason"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (w Waiver) Active(at time.Time) bool {
	return w.RevokedAt == nil && w.ExpiresAt.After(at)
}

func (db *DB) CreateWaiver(w Waiver) (int64, error) {
	res, err := db.conn.Exec(`
INSERT INTO waivers(rule_id, unit, class_sub, reason, expires_at, created_by, created_at)
VALUES(?,?,?,?,?,?,?)`,
		w.RuleID, nz(w.Unit), nz(w.ClassSub), w.Reason, w.ExpiresAt.UTC().Format(time.RFC3339Nano), w.CreatedBy, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RevokeWaiver marks an active waiver revoked. The revoker goes to the audit log.
func (db *DB) RevokeWaiver(id int64) error {
	return execOne(db.conn, `UPDATE waivers SET revoked_at=? WHERE id=? AND revoked_at IS NULL`, now(), id)
}

func (db *DB) ListWaivers(activeOnly bool) ([]Waiver, error) {
	q := `
SELECT id, rule_id, COALESCE(unit,''), COALESCE(class_sub,''),
       reason, expires_at, created_by, created_at, revoked_at
FROM waivers`
	var args []any
	if activeOnly {
		q += ` WHERE (revoked_at IS NULL) AND (expires_at > ?)`
		args = append(args, now())
	}
	q += ` ORDER BY id DESC`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Waiver
	for rows.Next() {
		var (
			w       Waiver
			exp, ca string
			ra      sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.RuleID, &w.Unit, &w.ClassSub, &w.Reason, &exp, &w.CreatedBy, &ca, &ra); err != nil {
			return nil, err
		}
		w.ExpiresAt = parseTime(exp)
		w.CreatedAt = parseTime(ca)
		if ra.Valid {
			t := parseTime(ra.String)
			w.RevokedAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nz(s string) any {
	if s == "" {
		return nil
	}
	return s
}
