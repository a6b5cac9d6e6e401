package handler

import (
	"github.com/deppfellow/start-service/internal/server"
	"github.com/deppfellow/start-service/internal/service"
)

// Handlers groups every HTTP handler of the application.
type Handlers struct {
	Health *HealthHandler

	// Resources maps a route segment ("categories") to its handler.
	Resources map[string]*CRUDHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	resources := make(map[string]*CRUDHandler)
	for segment, resource := range services.Resources() {
		resources[segment] = NewCRUDHandler(s, resource)
	}

	return &Handlers{
		Health:    NewHealthHandler(s),
		Resources: resources,
	}
}
