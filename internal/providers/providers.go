package providers

import (
	"context"

	"catalog-sync/internal/domain"
)

// CatalogProvider serves one page of a paginated catalog search.
// An empty slice with a nil error means the offset holds no records.
type CatalogProvider interface {
	Name() string
	SearchPage(ctx context.Context, filter domain.Filter, skip int) ([]domain.RemoteCourse, error)
}
