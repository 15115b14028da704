package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"canvas-collab/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	canvasTableStmt := `
	CREATE TABLE IF NOT EXISTS canvases (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		users TEXT NOT NULL,
		points TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`
	if _, err = db.Exec(canvasTableStmt); err != nil {
		log.Fatalf("failed to create canvases table: %v", err)
	}

	return &sqliteStore{db}
}

// LoadAll returns all persisted canvases in creation order (rowid order
// tracks first insert).
func (s *sqliteStore) LoadAll(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, owner, users, points FROM canvases ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []core.Record
	for rows.Next() {
		var rec core.Record
		var users, points []byte
		if err := rows.Scan(&rec.ID, &rec.Owner, &users, &points); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(users, &rec.Users); err != nil {
			logrus.WithField("canvas_id", rec.ID).WithError(err).Warn("Skipping canvas with corrupt user list")
			continue
		}
		if err := json.Unmarshal(points, &rec.Points); err != nil {
			logrus.WithField("canvas_id", rec.ID).WithError(err).Warn("Skipping canvas with corrupt point log")
			continue
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logrus.WithField("canvases", len(recs)).Debug("Loaded canvases from sqlite")
	return recs, nil
}

// Save upserts the full record for one canvas.
func (s *sqliteStore) Save(ctx context.Context, rec core.Record) error {
	users, err := json.Marshal(rec.Users)
	if err != nil {
		return err
	}
	points, err := json.Marshal(rec.Points)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM canvases WHERE id = ?", rec.ID).Scan(&exists)

	now := time.Now()
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if exists {
		_, err = tx.ExecContext(ctx, "UPDATE canvases SET owner = ?, users = ?, points = ?, updated_at = ? WHERE id = ?",
			rec.Owner, users, points, now, rec.ID)
	} else {
		_, err = tx.ExecContext(ctx, "INSERT INTO canvases (id, owner, users, points, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			rec.ID, rec.Owner, users, points, now, now)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}
