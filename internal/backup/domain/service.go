package domain

import "context"

// Service exports the full dataset and manages local backup files.
// Filenames are opaque handles produced by Create; anything that does
// not look like one is rejected with ErrInvalidFilename before it
// touches the filesystem.
type Service interface {
	Export(ctx context.Context) (Snapshot, error)
	Create(ctx context.Context) (Metadata, error)
	List(ctx context.Context) ([]Metadata, error)
	Restore(ctx context.Context, filename string) (RestoreResult, error)
	Delete(ctx context.Context, filename string) error
	// FilePath resolves a backup filename to its on-disk path for
	// download handlers.
	FilePath(filename string) (string, error)
}
