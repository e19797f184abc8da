package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/climate-advisory/internal/report"

	_ "modernc.org/sqlite"
)

// ArchivedReport is one persisted report.
type ArchivedReport struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Region    string         `json:"region"`
	CreatedAt time.Time      `json:"createdAt"`
	Report    *report.Report `json:"report"`
}

// created_at is stored with a fixed width so it sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportArchive persists generated reports using the pure Go sqlite driver.
type ReportArchive struct {
	db  *sql.DB
	now func() time.Time
}

// OpenReportArchive opens (or creates) the database at path and applies the schema.
func OpenReportArchive(path string, log zerolog.Logger) (*ReportArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warn().Err(err).Msg("could not set WAL mode")
	}

	schema := `CREATE TABLE IF NOT EXISTS reports (
        id TEXT PRIMARY KEY,
        session_id TEXT,
        region TEXT,
        created_at TEXT,
        payload TEXT
    );`
	index := `CREATE INDEX IF NOT EXISTS reports_region_created ON reports(region, created_at);`

	for _, stmt := range []string{schema, index} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply report archive schema: %w", err)
		}
	}

	return &ReportArchive{db: db, now: time.Now}, nil
}

// Save stores r and returns its generated ID.
func (a *ReportArchive) Save(ctx context.Context, sessionID string, r *report.Report) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	id := uuid.NewString()
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO reports(id, session_id, region, created_at, payload) VALUES(?,?,?,?,?)`,
		id, sessionID, r.Region, a.now().UTC().Format(timestampLayout), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// List returns the newest reports first, optionally filtered by region.
func (a *ReportArchive) List(ctx context.Context, region string, limit int) ([]ArchivedReport, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	query := `SELECT id, session_id, region, created_at, payload FROM reports`
	args := []any{}
	if region != "" {
		query += ` WHERE region = ?`
		args = append(args, region)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]ArchivedReport, 0)
	for rows.Next() {
		var (
			ar      ArchivedReport
			ts      string
			payload string
		)
		if err := rows.Scan(&ar.ID, &ar.SessionID, &ar.Region, &ts, &payload); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timestampLayout, ts); err == nil {
			ar.CreatedAt = t
		}
		ar.Report = &report.Report{}
		if err := json.Unmarshal([]byte(payload), ar.Report); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", ar.ID, err)
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

func (a *ReportArchive) Close() error {
	return a.db.Close()
}
