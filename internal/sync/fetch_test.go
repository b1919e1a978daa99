package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagesOf serves pre-built pages keyed by page index and records every skip requested.
func pagesOf(sizes []int, fail map[int]bool) (PageFunc[int], *[]int) {
	var skips []int
	fn := func(_ context.Context, skip int) ([]int, error) {
		skips = append(skips, skip)
		idx := len(skips) - 1
		if fail[idx] {
			return nil, errors.New("boom")
		}
		if idx >= len(sizes) {
			return nil, nil
		}
		out := make([]int, sizes[idx])
		for i := range out {
			out[i] = skip + i
		}
		return out, nil
	}
	return fn, &skips
}

func testOpts() FetchOptions {
	return FetchOptions{PageSize: 9, MaxEmptyPages: 2}
}

func TestFetchAllSingleEmptyPageDoesNotStop(t *testing.T) {
	fetch, skips := pagesOf([]int{9, 9, 0, 9, 0, 0}, nil)

	got, stats, err := FetchAll(context.Background(), zerolog.Nop(), testOpts(), fetch)
	require.NoError(t, err)

	assert.Len(t, got, 27)
	assert.Equal(t, []int{0, 9, 18, 27, 36, 45}, *skips)
	assert.Equal(t, 6, stats.Pages)
	assert.Equal(t, 3, stats.EmptyPages)
	assert.Equal(t, 27, stats.Records)
	assert.False(t, stats.Capped)
}

func TestFetchAllEmptyCatalog(t *testing.T) {
	fetch, skips := pagesOf(nil, nil)

	got, stats, err := FetchAll(context.Background(), zerolog.Nop(), testOpts(), fetch)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []int{0, 9}, *skips)
	assert.Equal(t, 2, stats.Pages)
}

func TestFetchAllFailedPageCountsAsEmpty(t *testing.T) {
	fetch, _ := pagesOf([]int{9, 0, 9, 4}, map[int]bool{1: true})

	got, stats, err := FetchAll(context.Background(), zerolog.Nop(), testOpts(), fetch)
	require.NoError(t, err)
	assert.Len(t, got, 22)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 6, stats.Pages)
}

func TestFetchAllTwoFailuresInARowStop(t *testing.T) {
	fetch, skips := pagesOf([]int{9, 9, 9, 9}, map[int]bool{1: true, 2: true})

	got, stats, err := FetchAll(context.Background(), zerolog.Nop(), testOpts(), fetch)
	require.NoError(t, err)
	assert.Len(t, got, 9)
	assert.Len(t, *skips, 3)
	assert.Equal(t, 2, stats.Failures)
}

func TestFetchAllPageCap(t *testing.T) {
	fetch, skips := pagesOf([]int{9, 9, 9, 9, 9}, nil)
	opts := testOpts()
	opts.MaxPages = 3

	got, stats, err := FetchAll(context.Background(), zerolog.Nop(), opts, fetch)
	require.NoError(t, err)
	assert.Len(t, got, 27)
	assert.Len(t, *skips, 3)
	assert.True(t, stats.Capped)
}

func TestFetchAllDefaultsApplied(t *testing.T) {
	fetch, skips := pagesOf([]int{9}, nil)

	_, _, err := FetchAll(context.Background(), zerolog.Nop(), FetchOptions{}, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 9, 18}, *skips)
}

func TestFetchAllContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fetch := func(ctx context.Context, skip int) ([]int, error) {
		calls++
		if calls == 2 {
			cancel()
			return nil, ctx.Err()
		}
		return []int{skip}, nil
	}

	got, _, err := FetchAll(ctx, zerolog.Nop(), testOpts(), fetch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0}, got)
	assert.Equal(t, 2, calls)
}
