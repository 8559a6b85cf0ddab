package resource

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a marketplace item: a downloadable file sold for credits.
// PriceCredits of 0 marks a free resource.
type Resource struct {
	ID           uuid.UUID `db:"id"`
	CreatorID    uuid.UUID `db:"creator_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	PriceCredits int       `db:"price_credits"`
	FileKey      string    `db:"file_key"`
	Locale       string    `db:"locale"`
	IsPublished  bool      `db:"is_published"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsFree reports whether access requires no credits.
func (r *Resource) IsFree() bool {
	return r.PriceCredits == 0
}
