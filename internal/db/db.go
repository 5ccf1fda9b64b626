// Package db persists simulator state in sqlite: the mutable settings
// document and the history of playback runs. NewDB applies the base
// schema inline so a fresh database is usable immediately; schema
// upgrades for existing databases ship as golang-migrate files under
// migrations/.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/routecast/navrig/internal/monitoring"
)

type DB struct {
	*sql.DB
}

// OpenDB opens the database without touching the schema. The migrate
// CLI uses this so migrations stay the only writer of schema changes.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// NewDB opens the database and ensures the base schema exists.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id                INTEGER PRIMARY KEY CHECK (id = 1),
			document          TEXT NOT NULL,
			updated_at        BIGINT
		);
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			route_id          TEXT,
			label             TEXT,
			mode              TEXT,
			speed_multiplier  DOUBLE,
			start_segment_idx BIGINT,
			end_segment_idx   BIGINT,
			dry_run           INTEGER,
			outcome           TEXT,
			detail            TEXT,
			started_at        BIGINT,
			finished_at       BIGINT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at DESC);
	`)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// AttachAdminRoutes mounts the tsweb debug pages, a live tailsql
// console over this database, and a one-shot backup download.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://navrig.db", db.DB, &tailsql.DBOptions{
		Label: "Navrig DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))

	return nil
}
