package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PageFunc fetches the page starting at skip.
type PageFunc[T any] func(ctx context.Context, skip int) ([]T, error)

// FetchOptions controls the paginated fetch loop.
//
// PageSize: offset increment between pages.
// MaxEmptyPages: consecutive empty (or failed) pages that end the loop.
// MaxPages: 0 means iterate until the empty-page threshold is reached.
// Delay: pause between page requests.
type FetchOptions struct {
	PageSize      int
	MaxEmptyPages int
	MaxPages      int
	Delay         time.Duration
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		PageSize:      9,
		MaxEmptyPages: 2,
		Delay:         200 * time.Millisecond,
	}
}

type FetchStats struct {
	Pages      int
	EmptyPages int
	Failures   int
	Records    int
	Capped     bool
}

// FetchAll requests pages one at a time, advancing the offset by PageSize,
// until MaxEmptyPages consecutive pages come back empty.
// A failed page is logged and counted as empty. Records are returned in
// fetch order without deduplication.
func FetchAll[T any](ctx context.Context, logger zerolog.Logger, opts FetchOptions, fetch PageFunc[T]) ([]T, FetchStats, error) {
	def := DefaultFetchOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.MaxEmptyPages <= 0 {
		opts.MaxEmptyPages = def.MaxEmptyPages
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}

	var (
		out   []T
		stats FetchStats
		skip  int
		empty int
	)

	for {
		if opts.MaxPages > 0 && stats.Pages >= opts.MaxPages {
			stats.Capped = true
			logger.Warn().Int("pages", stats.Pages).Msg("page cap reached before the catalog ran dry")
			break
		}
		if err := ctx.Err(); err != nil {
			stats.Records = len(out)
			return out, stats, err
		}

		page, err := fetch(ctx, skip)
		stats.Pages++
		if err != nil {
			if ctx.Err() != nil {
				stats.Records = len(out)
				return out, stats, ctx.Err()
			}
			stats.Failures++
			logger.Warn().Err(err).Int("skip", skip).Msg("page failed, counting it as empty")
			page = nil
		}

		if len(page) == 0 {
			empty++
			stats.EmptyPages++
			if empty >= opts.MaxEmptyPages {
				logger.Debug().Int("skip", skip).Int("empty", empty).Msg("empty-page threshold reached")
				break
			}
		} else {
			empty = 0
			out = append(out, page...)
			logger.Info().Int("skip", skip).Int("count", len(page)).Msg("page fetched")
		}

		skip += opts.PageSize
		if err := pause(ctx, opts.Delay); err != nil {
			stats.Records = len(out)
			return out, stats, err
		}
	}

	stats.Records = len(out)
	return out, stats, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
