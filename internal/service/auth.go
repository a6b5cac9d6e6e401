package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/start-service/internal/server"
)

// AuthService initializes Clerk with the configured secret key.
type AuthService struct {
	server *server.Server
}

// NewAuthService sets the Clerk key when one is configured.
func NewAuthService(s *server.Server) *AuthService {
	if s.Config.Auth.SecretKey != "" {
		clerk.SetKey(s.Config.Auth.SecretKey)
	}
	return &AuthService{
		server: s,
	}
}

// Enabled reports whether requests must carry a Clerk session.
func (a *AuthService) Enabled() bool {
	return a.server.Config.Auth.SecretKey != ""
}
