package mftplus

import (
	"context"
	"errors"

	"catalog-sync/internal/domain"

	"github.com/rs/zerolog"
)

// Provider adapts the client into providers.CatalogProvider.
type Provider struct {
	C      *Client
	Logger zerolog.Logger
}

func (p Provider) Name() string { return "mftplus" }

func (p Provider) SearchPage(ctx context.Context, filter domain.Filter, skip int) ([]domain.RemoteCourse, error) {
	if p.C == nil {
		return nil, errors.New("mftplus: provider has no client")
	}

	res, err := p.C.SearchPage(ctx, filter, skip)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Invalid {
		p.Logger.Warn().Err(e).Msg("dropping course without a usable id")
	}
	for _, c := range res.Courses {
		if len(c.Placeholders) > 0 {
			p.Logger.Warn().Str("id", string(c.ID)).Strs("fields", c.Placeholders).Msg("unexpected field shapes, keeping course with blanks")
		}
	}
	return res.Courses, nil
}
