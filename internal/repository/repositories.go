// Package repository registers the application's models and picks the
// driver that stores them.
//
// Services never talk to a driver directly. They resolve their model from
// the registry built here and run it on the transactor chosen here.
package repository

import (
	"fmt"

	"github.com/deppfellow/start-service/internal/config"
	"github.com/deppfellow/start-service/internal/database"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/model/memory"
	"github.com/deppfellow/start-service/internal/model/pgmodel"
	"github.com/deppfellow/start-service/internal/server"
)

// Repositories is the model registry plus the transactor its models run on.
type Repositories struct {
	Models *model.Registry
	DB     database.Transactor

	// Memory is set when the memory driver is in use.
	Memory *memory.Store
}

// NewRepositories registers every model of the application for the driver
// named in s.Config.App.Driver.
func NewRepositories(s *server.Server) (*Repositories, error) {
	reg := model.NewRegistry(s.Config.App.Namespace)
	repos := &Repositories{Models: reg}

	var factory func(*model.Schema) model.Factory

	switch s.Config.App.Driver {
	case config.DriverPostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("driver %s needs a database connection", config.DriverPostgres)
		}
		repos.DB = s.DB
		factory = pgmodel.Factory

	case config.DriverMemory:
		store := memory.NewStore()
		repos.DB = store
		repos.Memory = store
		factory = store.Factory

	default:
		return nil, fmt.Errorf("unknown driver %q", s.Config.App.Driver)
	}

	if err := Register(reg, factory); err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("driver", s.Config.App.Driver).
		Strs("models", reg.Names()).
		Msg("models registered")

	return repos, nil
}

// Register adds the application's models to reg, each built by factory.
func Register(reg *model.Registry, factory func(*model.Schema) model.Factory) error {
	schemas := map[string]*model.Schema{
		CategoryModel: CategorySchema(reg),
		ArticleModel:  ArticleSchema(reg),
	}
	for name, schema := range schemas {
		if err := reg.Register(name, factory(schema)); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return nil
}
