// Package storage persists what must survive a restart: the live
// configuration and the list of approved photos. Pending submissions and lane
// state are deliberately kept in memory only.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"event-wall/internal/models"
)

// Drivers. DriverCGO is mattn/go-sqlite3, DriverPure is modernc.org/sqlite.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// DB wraps the database connection with performance optimizations
type DB struct {
	*sql.DB
}

// ApprovedPhoto is one row of the slideshow archive.
type ApprovedPhoto struct {
	Ref        string
	ApprovedAt time.Time
}

// InitDB opens dbPath with driver and creates the schema.
func InitDB(driver, dbPath string) (*DB, error) {
	switch driver {
	case "":
		driver = DriverCGO
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database ready", "driver", driver, "path", dbPath)
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS live_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		public_url TEXT NOT NULL DEFAULT '',
		auto_approve INTEGER NOT NULL DEFAULT 0,
		show_qr_overlay INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS approved_photos (
		ref TEXT PRIMARY KEY,
		approved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_approved_photos_at ON approved_photos(approved_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// LoadLiveConfig returns the saved live configuration. found is false when
// none has been saved yet.
func (db *DB) LoadLiveConfig(ctx context.Context) (cfg models.LiveConfig, found bool, err error) {
	query := `SELECT public_url, auto_approve, show_qr_overlay FROM live_config WHERE id = 1`
	err = db.QueryRowContext(ctx, query).Scan(&cfg.PublicURL, &cfg.AutoApprove, &cfg.ShowQROverlay)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LiveConfig{}, false, nil
	}
	if err != nil {
		return models.LiveConfig{}, false, fmt.Errorf("load live config: %w", err)
	}
	return cfg, true, nil
}

// SaveLiveConfig replaces the saved live configuration.
func (db *DB) SaveLiveConfig(ctx context.Context, cfg models.LiveConfig) error {
	query := `INSERT INTO live_config (id, public_url, auto_approve, show_qr_overlay, updated_at)
	          VALUES (1, ?, ?, ?, ?)
	          ON CONFLICT(id) DO UPDATE SET
	            public_url = excluded.public_url,
	            auto_approve = excluded.auto_approve,
	            show_qr_overlay = excluded.show_qr_overlay,
	            updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, cfg.PublicURL, cfg.AutoApprove, cfg.ShowQROverlay, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save live config: %w", err)
	}
	return nil
}

// SaveApprovedPhoto appends ref to the archive. Saving a ref twice keeps its
// original position.
func (db *DB) SaveApprovedPhoto(ctx context.Context, ref string, at time.Time) error {
	query := `INSERT OR IGNORE INTO approved_photos (ref, approved_at) VALUES (?, ?)`
	if _, err := db.ExecContext(ctx, query, ref, at.UnixMilli()); err != nil {
		return fmt.Errorf("save approved photo: %w", err)
	}
	return nil
}

// DeleteApprovedPhoto removes ref from the archive.
func (db *DB) DeleteApprovedPhoto(ctx context.Context, ref string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM approved_photos WHERE ref = ?", ref); err != nil {
		return fmt.Errorf("delete approved photo: %w", err)
	}
	return nil
}

// ListApprovedPhotos returns the archive in approval order.
func (db *DB) ListApprovedPhotos(ctx context.Context) ([]ApprovedPhoto, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ref, approved_at FROM approved_photos ORDER BY approved_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list approved photos: %w", err)
	}
	defer rows.Close()

	var photos []ApprovedPhoto
	for rows.Next() {
		var p ApprovedPhoto
		var at int64
		if err := rows.Scan(&p.Ref, &at); err != nil {
			slog.Warn("error scanning approved photo", "error", err)
			continue
		}
		p.ApprovedAt = time.UnixMilli(at)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
