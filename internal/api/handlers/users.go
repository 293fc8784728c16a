package handlers

import (
	"errors"
	"net/http"

	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/domain/users"
)

// UsersHandler serves the authenticated user's profile.
type UsersHandler struct {
	users *users.Service
	env   string
}

func NewUsersHandler(usersService *users.Service, env string) *UsersHandler {
	return &UsersHandler{users: usersService, env: env}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}

	user, err := h.users.Profile(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "User Not Found", err, h.env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal Server Error", err, h.env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}
