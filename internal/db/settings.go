package db

import (
	"database/sql"
	"fmt"
	"time"
)

// LoadSettings returns the stored settings document, or nil if none has
// been saved yet. The document is opaque JSON owned by the settings
// package.
func (db *DB) LoadSettings() ([]byte, error) {
	var document string
	err := db.QueryRow("SELECT document FROM settings WHERE id = 1").Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return []byte(document), nil
}

// SaveSettings stores the settings document, replacing any previous one.
func (db *DB) SaveSettings(document []byte) error {
	_, err := db.Exec(`
		INSERT INTO settings (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		string(document), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
