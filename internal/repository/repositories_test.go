package repository

import (
	"context"
	"testing"

	"github.com/deppfellow/start-service/internal/config"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryServer(namespace string) *server.Server {
	log := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{App: config.AppConfig{Namespace: namespace, Driver: config.DriverMemory}},
		Logger: &log,
	}
}

func TestNewRepositories_Memory(t *testing.T) {
	repos, err := NewRepositories(memoryServer("blog"))
	require.NoError(t, err)

	assert.Equal(t, []string{"blog.model.Article", "blog.model.Category"}, repos.Models.Names())
	assert.NotNil(t, repos.Memory)
	assert.Same(t, repos.Memory, repos.DB)
}

func TestNewRepositories_PostgresNeedsDatabase(t *testing.T) {
	s := memoryServer("blog")
	s.Config.App.Driver = config.DriverPostgres

	_, err := NewRepositories(s)
	assert.Error(t, err)
}

func TestNewRepositories_UnknownDriver(t *testing.T) {
	s := memoryServer("blog")
	s.Config.App.Driver = "sqlite"

	_, err := NewRepositories(s)
	assert.Error(t, err)
}

func TestRelations_ResolveAcrossModels(t *testing.T) {
	ctx := context.Background()
	repos, err := NewRepositories(memoryServer("blog"))
	require.NoError(t, err)

	categories, ok := repos.Models.Lookup("blog.model.Category")
	require.True(t, ok)
	articles, ok := repos.Models.Lookup("blog.model.Article")
	require.True(t, ok)

	cat, err := categories().Insert(ctx, repos.DB, model.Record{"name": "Go", "slug": "go"})
	require.NoError(t, err)
	_, err = articles().Insert(ctx, repos.DB, model.Record{"title": "Generics", "category_id": cat["id"]})
	require.NoError(t, err)
	_, err = articles().Insert(ctx, repos.DB, model.Record{"title": "Orphan"})
	require.NoError(t, err)

	info, err := categories().Info(ctx, repos.DB, model.Filter{"slug": "go"}, []string{"articles"})
	require.NoError(t, err)
	require.Len(t, info["articles"], 1)
	assert.Equal(t, "Generics", info["articles"].([]model.Record)[0]["title"])

	orphan, err := articles().Info(ctx, repos.DB, model.Filter{"title": "Orphan"}, []string{"category"})
	require.NoError(t, err)
	assert.Nil(t, orphan["category"])

	withCat, err := articles().Info(ctx, repos.DB, model.Filter{"title": "Generics"}, []string{"category"})
	require.NoError(t, err)
	assert.Equal(t, "Go", withCat["category"].(model.Record)["name"])
}
