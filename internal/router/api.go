package router

import (
	"sort"

	"github.com/deppfellow/start-service/internal/handler"
	"github.com/deppfellow/start-service/internal/middleware"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/labstack/echo/v4"
)

// registerResourceRoutes mounts one CRUD group per resource at
// /api/v1/<segment>. Groups require a Clerk session when a secret key is set.
func registerResourceRoutes(v1 *echo.Group, s *server.Server, h *handler.Handlers, m *middleware.Middlewares) {
	var groupMiddleware []echo.MiddlewareFunc
	if s.Config.Auth.SecretKey != "" {
		groupMiddleware = append(groupMiddleware, m.Auth.RequireAuth)
	}

	segments := make([]string, 0, len(h.Resources))
	for segment := range h.Resources {
		segments = append(segments, segment)
	}
	sort.Strings(segments)

	for _, segment := range segments {
		h.Resources[segment].Register(v1.Group("/"+segment, groupMiddleware...))
		s.Logger.Debug().Str("resource", segment).Msg("routes registered")
	}
}
