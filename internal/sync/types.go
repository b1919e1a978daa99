package sync

import (
	"context"
	"time"

	"catalog-sync/internal/domain"
)

// SnapshotStore persists the full snapshot. Save must either commit the whole
// snapshot or leave the previous one in place.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, s domain.Snapshot) error
}

// ChangeReporter records one run's transitions.
type ChangeReporter interface {
	Append(at time.Time, runID string, t domain.Transitions) error
}

// Summary is what a run reports back to the driver.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Filter    domain.Filter

	Prior           int
	PriorUnreadable bool
	Fetch           FetchStats
	Invalid         int // remote records dropped by the normalizer

	Total    int
	Active   int
	Inactive int
	domain.Transitions

	Committed    bool
	ReportFailed bool // change log append failed after commit
}

// Fetched is the number of raw records returned by the remote API.
func (s Summary) Fetched() int { return s.Fetch.Records }
