package handlers

import (
	"net/http"

	"github.com/AnshRaj112/contacts-backend/internal/middleware"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

// currentUser returns the user RequireUser put on the context. Routes
// registered without it answer 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	}
	return user, ok
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateAvatar uploads the multipart "file" field and stores its URL.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "File too large or invalid form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "No file provided")
		return
	}
	defer file.Close()

	updated, err := h.auth.UpdateAvatar(r.Context(), user, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("avatar updated", "username", updated.Username)
	writeJSON(w, http.StatusOK, updated)
}
