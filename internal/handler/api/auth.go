// Package api implements the JSON HTTP handlers.
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/handler"
	"github.com/rgoyal/smartbasket/internal/middleware"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	users domain.UserService
}

func NewAuthHandler(users domain.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, map[string]userResponse{"user": toUserResponse(user)})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	token := ""
	if len(auth) > len(prefix) {
		token = auth[len(prefix):]
	}

	if err := h.users.Logout(r.Context(), token); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.ErrorResponse(w, r, domain.Unauthorized("auth.me", "Authentication required"))
		return
	}

	handler.JSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}
