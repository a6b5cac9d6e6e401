package service

import (
	"context"

	"github.com/deppfellow/start-service/internal/model"
)

// CategoryService resolves the "{namespace}.model.Category" model by convention.
type CategoryService struct {
	*Base
}

func NewCategoryService(ctx context.Context, c *Container) (*CategoryService, error) {
	return Build(ctx, c, Options{}, func(b *Base) *CategoryService {
		return &CategoryService{Base: b}
	})
}

// BySlug returns the category with slug, loading the relations in with.
func (s *CategoryService) BySlug(ctx context.Context, slug string, with ...string) (model.Record, error) {
	return s.GetInfo(ctx, model.Filter{"slug": slug}, with)
}

// Join returns a copy of the service bound to the transaction of tb, or s
// itself when tb has none.
func (s *CategoryService) Join(tb *Base) *CategoryService {
	if tb.Tx() == nil {
		return s
	}
	return &CategoryService{Base: s.Base.WithTx(tb.Tx())}
}
