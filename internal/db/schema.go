package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS musicians (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    birth_date DATETIME,
    country    TEXT,
    bio        TEXT,
    roles      TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ensembles (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    formation_date DATETIME NOT NULL,
    type           TEXT NOT NULL,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ensemble_members (
    ensemble_id INTEGER NOT NULL REFERENCES ensembles(id),
    musician_id INTEGER NOT NULL REFERENCES musicians(id),
    role        TEXT NOT NULL DEFAULT '',
    start_date  DATETIME NOT NULL,
    end_date    DATETIME,
    PRIMARY KEY (ensemble_id, musician_id, start_date)
);

CREATE TABLE IF NOT EXISTS compositions (
    id               INTEGER PRIMARY KEY,
    title            TEXT NOT NULL,
    duration_seconds INTEGER NOT NULL CHECK (duration_seconds > 0),
    creation_year    INTEGER,
    genre            TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS recordings (
    id             INTEGER PRIMARY KEY,
    composition_id INTEGER NOT NULL REFERENCES compositions(id),
    recording_date DATETIME NOT NULL,
    studio         TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS albums (
    id             INTEGER PRIMARY KEY,
    title          TEXT NOT NULL,
    catalog_number TEXT NOT NULL,
    release_date   DATETIME NOT NULL,
    musician_id    INTEGER REFERENCES musicians(id),
    ensemble_id    INTEGER REFERENCES ensembles(id),
    cover          BLOB,
    cover_mime     TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (musician_id IS NULL OR ensemble_id IS NULL)
);

CREATE TABLE IF NOT EXISTS tracks (
    album_id     INTEGER NOT NULL REFERENCES albums(id),
    position     INTEGER NOT NULL CHECK (position > 0),
    recording_id INTEGER NOT NULL REFERENCES recordings(id),
    PRIMARY KEY (album_id, position)
);

CREATE TABLE IF NOT EXISTS inventory (
    id                 INTEGER PRIMARY KEY,
    album_id           INTEGER NOT NULL UNIQUE REFERENCES albums(id),
    wholesale_price    TEXT NOT NULL,
    retail_price       TEXT NOT NULL,
    last_year_sales    INTEGER NOT NULL DEFAULT 0 CHECK (last_year_sales >= 0),
    current_year_sales INTEGER NOT NULL DEFAULT 0 CHECK (current_year_sales >= 0),
    unsold             INTEGER NOT NULL CHECK (unsold >= 0),
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sales (
    id           INTEGER PRIMARY KEY,
    inventory_id INTEGER NOT NULL REFERENCES inventory(id),
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    sale_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sold_by      INTEGER REFERENCES users(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales(sale_date);
CREATE INDEX IF NOT EXISTS idx_sales_inventory ON sales(inventory_id);

CREATE TABLE IF NOT EXISTS yearly_reset_events (
    id          INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: catalog numbers identify a pressing and must be unique.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_catalog_number
	     ON albums(catalog_number)`,
	// Migration 2: track lookups by recording for composition counts.
	`CREATE INDEX IF NOT EXISTS idx_tracks_recording ON tracks(recording_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Migrate ensures the schema and then runs every migration.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
