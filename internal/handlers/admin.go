package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/contacts-backend/internal/auth"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

type roleRequest struct {
	Role models.Role `json:"role"`
}

// authorize resolves the caller and checks it holds one of the roles.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, allowed ...models.Role) (*models.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if _, err := auth.Authorize(user, allowed...); err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return user, true
}

// ListUsers is open to admins and moderators.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, models.RoleAdmin, models.RoleModerator); !ok {
		return
	}
	skip, limit, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.accounts.List(r.Context(), skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badBody(w)
		return
	}

	username := chi.URLParam(r, "username")
	user, err := h.accounts.SetRole(r.Context(), username, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("role changed", "username", username, "role", user.Role, "by", admin.Username)
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes the account and, through the foreign key, its contacts.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.accounts.Delete(r.Context(), username); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("user deleted", "username", username, "by", admin.Username)
	w.WriteHeader(http.StatusNoContent)
}
