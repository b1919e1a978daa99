package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/mappers"
	"catalog-sync/internal/providers"
	"catalog-sync/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runner performs one load → fetch → normalize → reconcile → persist → report cycle.
type Runner struct {
	Provider providers.CatalogProvider
	Store    SnapshotStore
	Reporter ChangeReporter // optional
	Fetch    FetchOptions
	SiteURL  string
	Logger   zerolog.Logger

	// Now defaults to time.Now truncated to seconds.
	Now func() time.Time

	// DryRun reconciles without saving or reporting.
	DryRun bool
}

func (r *Runner) Run(ctx context.Context, filter domain.Filter) (Summary, error) {
	if r.Provider == nil || r.Store == nil {
		return Summary{}, errors.New("sync: runner needs a provider and a store")
	}

	now := r.now()
	sum := Summary{RunID: uuid.NewString(), StartedAt: now, Filter: filter}
	logger := r.Logger.With().Str("run", sum.RunID).Str("provider", r.Provider.Name()).Logger()

	prior, err := r.Store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		logger.Info().Msg("no prior snapshot, starting from empty history")
		prior = domain.Snapshot{}
	case err != nil:
		logger.Error().Err(err).Msg("prior snapshot unreadable, starting from empty history")
		prior = domain.Snapshot{}
		sum.PriorUnreadable = true
	case prior == nil:
		prior = domain.Snapshot{}
	}
	sum.Prior = len(prior)
	logger.Info().Int("records", sum.Prior).Bool("filtered", !filter.IsEmpty()).Msg("loaded prior snapshot")

	raws, stats, err := FetchAll(ctx, logger, r.Fetch, func(ctx context.Context, skip int) ([]domain.RemoteCourse, error) {
		return r.Provider.SearchPage(ctx, filter, skip)
	})
	sum.Fetch = stats
	if err != nil {
		return sum, fmt.Errorf("sync: fetch interrupted after %d pages: %w", stats.Pages, err)
	}
	logger.Info().Int("records", stats.Records).Int("pages", stats.Pages).Int("failures", stats.Failures).Msg("fetch finished")

	current := make([]domain.Course, 0, len(raws))
	for _, rc := range raws {
		c, err := mappers.Normalize(rc, r.SiteURL, prior, now)
		if err != nil {
			sum.Invalid++
			logger.Warn().Err(err).Msg("skipping remote record")
			continue
		}
		current = append(current, c)
	}

	res := Reconcile(prior, current, now)
	if err := Verify(prior, res); err != nil {
		return sum, err
	}
	sum.Transitions = res.Transitions
	sum.Total = len(res.Next)
	sum.Active, sum.Inactive = res.Next.Counts()

	if r.DryRun {
		logger.Info().Msg("dry run, snapshot not saved")
		return sum, nil
	}

	if err := r.Store.Save(ctx, res.Next); err != nil {
		return sum, fmt.Errorf("sync: persist snapshot: %w", err)
	}
	sum.Committed = true
	logger.Info().
		Int("total", sum.Total).
		Int("new", len(sum.New)).
		Int("expired", len(sum.Expired)).
		Int("revived", len(sum.Revived)).
		Msg("snapshot saved")

	if r.Reporter != nil {
		if err := r.Reporter.Append(now, sum.RunID, res.Transitions); err != nil {
			// the snapshot is committed; a missing log entry does not undo it
			sum.ReportFailed = true
			logger.Error().Err(err).Msg("change log not written")
		}
	}
	return sum, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().Truncate(time.Second)
}
