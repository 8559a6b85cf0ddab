package bonus

import "time"

// RegistrationConfig is the admin-tunable welcome grant. A single row backs
// it; disabling it stops new grants without touching past ones.
type RegistrationConfig struct {
	Enabled     bool      `db:"registration_enabled"`
	FreeCredits int       `db:"registration_free_credits"`
	UpdatedAt   time.Time `db:"updated_at"`
}
