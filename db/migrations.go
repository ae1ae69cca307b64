package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations применяются по порядку; каждая идемпотентна.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sections (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT,
		"order"     INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id                      TEXT PRIMARY KEY,
		title                   TEXT NOT NULL,
		description             TEXT,
		event_date              TIMESTAMPTZ,
		location                TEXT,
		max_attendees           INTEGER,
		is_active               BOOLEAN NOT NULL DEFAULT TRUE,
		show_capacity           BOOLEAN NOT NULL DEFAULT TRUE,
		section_id              TEXT REFERENCES sections(id) ON DELETE SET NULL,
		event_type              TEXT NOT NULL DEFAULT 'event'
			CHECK (event_type IN ('event', 'league', 'tournament', 'workshop', 'social', 'competition')),
		logo_type               TEXT NOT NULL DEFAULT 'jsl' CHECK (logo_type IN ('jax', 'jsl')),
		allow_signups           BOOLEAN NOT NULL DEFAULT TRUE,
		participants_per_signup INTEGER NOT NULL DEFAULT 1 CHECK (participants_per_signup >= 1),
		featured_image          TEXT,
		gallery_images          TEXT,
		detailed_content        TEXT,
		created_by              TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS events_section_id_idx ON events (section_id)`,
	`CREATE TABLE IF NOT EXISTS quick_links (
		id       TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		title    TEXT NOT NULL,
		url      TEXT NOT NULL,
		"order"  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS quick_links_event_id_idx ON quick_links (event_id)`,
	`CREATE TABLE IF NOT EXISTS signups (
		id                      TEXT PRIMARY KEY,
		name                    TEXT NOT NULL,
		email                   TEXT NOT NULL,
		phone                   TEXT NOT NULL,
		event_id                TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		notes                   TEXT,
		status                  TEXT NOT NULL DEFAULT 'registered',
		additional_participants TEXT,
		party_size              INTEGER NOT NULL DEFAULT 1 CHECK (party_size >= 1),
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS signups_event_id_idx ON signups (event_id)`,
	`CREATE TABLE IF NOT EXISTS schedule_items (
		id         TEXT PRIMARY KEY,
		event_id   TEXT NOT NULL UNIQUE REFERENCES events(id) ON DELETE CASCADE,
		"order"    INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS message_banners (
		id                TEXT PRIMARY KEY,
		message           TEXT NOT NULL,
		is_active         BOOLEAN NOT NULL DEFAULT FALSE,
		background_color  TEXT NOT NULL DEFAULT '#3B82F6',
		text_color        TEXT NOT NULL DEFAULT '#FFFFFF',
		show_close_button BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations создаёт схему в одной транзакции.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	return nil
}
