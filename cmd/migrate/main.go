package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/config"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/database"
)

// Applies migrations/*.sql in lexical order. Each file runs in its own
// transaction and is recorded in schema_migrations, so reruns are safe.
func main() {
	cfg := config.Load()

	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema_migrations")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to read migrations directory")
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		var exists bool
		if err := db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name); err != nil {
			log.Fatal().Err(err).Str("version", name).Msg("Failed to check migration state")
		}
		if exists {
			continue
		}

		sqlBytes, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Fatal().Err(err).Str("version", name).Msg("Failed to read migration")
		}

		tx, err := db.Beginx()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to begin transaction")
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			log.Fatal().Err(err).Str("version", name).Msg("Migration failed")
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			tx.Rollback()
			log.Fatal().Err(err).Str("version", name).Msg("Failed to record migration")
		}
		if err := tx.Commit(); err != nil {
			log.Fatal().Err(err).Str("version", name).Msg("Failed to commit migration")
		}

		log.Info().Str("version", name).Msg("Migration applied")
		applied++
	}

	log.Info().Int("applied", applied).Int("total", len(files)).Msg("Migrations complete")
}
