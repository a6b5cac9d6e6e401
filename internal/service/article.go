package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/start-service/internal/model"
)

// ArticleService manages articles. It requires a model with a category
// relation and checks categories through CategoryService.
type ArticleService struct {
	*Base
	categories *CategoryService
}

func NewArticleService(ctx context.Context, c *Container, categories *CategoryService) (*ArticleService, error) {
	return Build(ctx, c, Options{}, func(b *Base) *ArticleService {
		return &ArticleService{Base: b, categories: categories}
	})
}

// Initialize fails construction when the model is missing or cannot load
// the category relation.
func (s *ArticleService) Initialize(context.Context) error {
	m, err := s.Model()
	if err != nil {
		return err
	}
	if _, ok := m.Schema().Relations["category"]; !ok {
		return fmt.Errorf("%w: %s has no category relation", model.ErrUnknownRelation, m.Schema().Table)
	}
	return nil
}

// Publish marks the article with id as published.
func (s *ArticleService) Publish(ctx context.Context, id any) (model.Record, error) {
	return s.Update(ctx, model.Record{"id": id, "published": true})
}

// Move assigns every article in ids to the category with categoryID, all or
// nothing. It returns the updated articles.
func (s *ArticleService) Move(ctx context.Context, ids []any, categoryID any) ([]model.Record, error) {
	var moved []model.Record

	err := s.Transaction(ctx, func(tb *Base) error {
		if _, err := s.categories.Join(tb).GetInfo(ctx, model.Filter{"id": categoryID}, nil); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("category %v: %w", categoryID, err)
			}
			return err
		}

		for _, id := range ids {
			rec, err := tb.Update(ctx, model.Record{"id": id, "category_id": categoryID})
			if err != nil {
				return fmt.Errorf("moving article %v: %w", id, err)
			}
			moved = append(moved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}
