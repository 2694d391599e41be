package api

import (
	"context"
	"net/http"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/store"
)

// Authenticator resolves API tokens into users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// TokenAuthenticator authenticates against the users table.
type TokenAuthenticator struct {
	store store.Store
}

func NewTokenAuthenticator(st store.Store) *TokenAuthenticator {
	return &TokenAuthenticator{store: st}
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	return a.store.GetUserByToken(ctx, token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}
