package service

import (
	"context"
	"testing"

	"github.com/deppfellow/start-service/internal/config"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/model/memory"
	"github.com/deppfellow/start-service/internal/repository"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticles(t *testing.T) (*ArticleService, *CategoryService, *countingStore) {
	t.Helper()
	ctx := context.Background()
	c, store := newContainer(t)

	categories, err := NewCategoryService(ctx, c)
	require.NoError(t, err)
	articles, err := NewArticleService(ctx, c, categories)
	require.NoError(t, err)
	return articles, categories, store
}

func TestArticleService_InitializeRequiresCategoryRelation(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry("app")
	reg.MustRegister("Article", memory.NewStore().Factory(&model.Schema{
		Table:   "articles",
		Columns: []model.Column{{Name: "id", Type: model.TypeInt}},
	}))

	_, err := NewArticleService(ctx, &Container{Models: reg}, nil)
	assert.ErrorIs(t, err, model.ErrUnknownRelation)

	_, err = NewArticleService(ctx, &Container{Models: model.NewRegistry("app")}, nil)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestArticleService_Publish(t *testing.T) {
	ctx := context.Background()
	articles, _, _ := newArticles(t)

	_, err := articles.Create(ctx, model.Record{"title": "Draft", "published": false})
	require.NoError(t, err)

	rec, err := articles.Publish(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, true, rec["published"])
}

func TestArticleService_Move(t *testing.T) {
	ctx := context.Background()
	articles, categories, _ := newArticles(t)

	seedCategories(t, categories, "go")
	for _, title := range []string{"one", "two"} {
		_, err := articles.Create(ctx, model.Record{"title": title})
		require.NoError(t, err)
	}

	moved, err := articles.Move(ctx, []any{1, 2}, 1)
	require.NoError(t, err)
	require.Len(t, moved, 2)

	info, err := categories.BySlug(ctx, "go", "articles")
	require.NoError(t, err)
	assert.Len(t, info["articles"], 2)
}

func TestArticleService_MoveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	articles, categories, _ := newArticles(t)

	seedCategories(t, categories, "go")
	_, err := articles.Create(ctx, model.Record{"title": "one"})
	require.NoError(t, err)

	_, err = articles.Move(ctx, []any{1}, 42)
	assert.ErrorIs(t, err, model.ErrNotFound, "unknown category")

	_, err = articles.Move(ctx, []any{1, 9}, 1)
	assert.ErrorIs(t, err, model.ErrNotFound, "unknown article")

	rec, err := articles.GetInfo(ctx, model.Filter{"id": 1}, nil)
	require.NoError(t, err)
	assert.Nil(t, rec["category_id"], "the first move was rolled back")
}

func TestNewServices(t *testing.T) {
	log := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			App:           config.AppConfig{Namespace: "blog", Driver: config.DriverMemory},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &log,
	}
	repos, err := repository.NewRepositories(s)
	require.NoError(t, err)

	services, err := NewServices(context.Background(), s, repos)
	require.NoError(t, err)

	assert.True(t, services.Category.Resolved())
	assert.True(t, services.Article.Resolved())
	assert.False(t, services.Auth.Enabled())
	assert.Len(t, services.Resources(), 2)
}
