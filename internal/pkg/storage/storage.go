package storage

import (
	"context"
	"time"
)

// Storage abstracts the object store holding resource files (PDFs,
// printable activity packs). The purchase flow only ever hands out
// time-limited download links, never raw objects.
type Storage interface {
	// PresignDownload returns a signed GET URL for the object at key,
	// valid for the given duration.
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
}
