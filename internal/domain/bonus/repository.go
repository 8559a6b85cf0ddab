package bonus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository handles bonus configuration persistence
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetRegistration returns the registration bonus rule. A missing row means
// the bonus is disabled.
func (r *Repository) GetRegistration(ctx context.Context) (RegistrationConfig, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var cfg RegistrationConfig
	err := r.db.GetContext(ctx2, &cfg, `
		SELECT registration_enabled, registration_free_credits, updated_at
		FROM bonus_settings
		WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return RegistrationConfig{}, nil
	}
	if err != nil {
		return RegistrationConfig{}, fmt.Errorf("%w: get bonus settings", ErrInternal)
	}
	return cfg, nil
}

// UpdateRegistration upserts the registration bonus rule.
func (r *Repository) UpdateRegistration(ctx context.Context, enabled bool, freeCredits int) (RegistrationConfig, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO bonus_settings (id, registration_enabled, registration_free_credits)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET registration_enabled = EXCLUDED.registration_enabled,
			registration_free_credits = EXCLUDED.registration_free_credits,
			updated_at = now()
	`, enabled, freeCredits)
	if err != nil {
		return RegistrationConfig{}, fmt.Errorf("%w: update bonus settings", ErrInternal)
	}
	return r.GetRegistration(ctx)
}
