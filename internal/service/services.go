// Package service contains the business logic.
//
// It sits between the handler and repository layers. Every resource service
// embeds Base, which resolves the service's model from the registry and
// carries the CRUD operations and transaction helpers.
package service

import (
	"context"

	"github.com/deppfellow/start-service/internal/repository"
	"github.com/deppfellow/start-service/internal/server"
)

type Services struct {
	Auth     *AuthService
	Category *CategoryService
	Article  *ArticleService
}

// NewServices builds every service against the models in repos.
func NewServices(ctx context.Context, s *server.Server, repos *repository.Repositories) (*Services, error) {
	c := &Container{
		Models: repos.Models,
		DB:     repos.DB,
		Logger: s.Logger,
	}
	if s.Config.Observability != nil {
		c.SlowThreshold = s.Config.Observability.Logging.SlowQueryThreshold
	}

	categories, err := NewCategoryService(ctx, c)
	if err != nil {
		return nil, err
	}
	articles, err := NewArticleService(ctx, c, categories)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:     NewAuthService(s),
		Category: categories,
		Article:  articles,
	}, nil
}

// Resources returns the CRUD services served over HTTP, keyed by route segment.
func (s *Services) Resources() map[string]Resource {
	return map[string]Resource{
		"categories": s.Category,
		"articles":   s.Article,
	}
}
