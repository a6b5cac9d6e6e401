// Package router builds the echo instance: global middleware, the error
// handler, system routes and the /api/v1 resource routes.
package router

import (
	"github.com/deppfellow/start-service/internal/handler"
	"github.com/deppfellow/start-service/internal/middleware"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, m *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = m.Global.GlobalErrorHandler

	router.Use(
		m.RateLimit.Limit(),
		m.Global.CORS(),
		m.Global.Secure(),
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerResourceRoutes(v1, s, h, m)

	return router
}
