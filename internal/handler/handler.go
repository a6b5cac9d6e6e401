// Package handler is the HTTP layer. It binds and validates requests, calls
// the service layer and writes JSON responses.
package handler

import (
	"github.com/deppfellow/start-service/internal/server"
)

// Handler carries the shared dependencies of every concrete handler.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}
