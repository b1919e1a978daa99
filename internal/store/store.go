package store

import (
	"context"
	"errors"

	"catalog-sync/internal/domain"
)

// ErrNoSnapshot is returned by Load when nothing has been persisted yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// Store persists the full snapshot. Save replaces the previous snapshot
// atomically: a failed Save leaves the old one readable.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, s domain.Snapshot) error
	// Artifacts lists the files a committed snapshot lives in.
	Artifacts() []string
	Close() error
}
