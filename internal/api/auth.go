package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

// RegisterHandler handles POST /api/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.Users.Register(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.respondWithToken(w, r, http.StatusCreated, user)
}

// LoginHandler handles POST /api/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.Users.Authenticate(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.respondWithToken(w, r, http.StatusOK, user)
}

func (a *App) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := a.Tokens.Issue(user)
	if err != nil {
		a.writeError(w, r, apperr.Upstream("api.login", err))
		return
	}
	writeData(w, status, models.LoginResponse{User: user, Token: token})
}

// MeHandler handles GET /api/me
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	if err := policy.RequireCaller("api.me", caller); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.Users.GetUser(r.Context(), caller.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}
