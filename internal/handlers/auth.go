package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/services"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// SignUp registers an account and mails the confirmation link.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in models.NewUserInput
	if err := decodeJSON(r, &in); err != nil {
		h.badBody(w)
		return
	}

	user, err := h.auth.Register(r.Context(), in, h.publicURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login takes form-encoded credentials and answers with a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badBody(w)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	pair, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		h.badBody(w)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	msg, err := h.auth.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, msg)
}

func (h *Handler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badBody(w)
		return
	}

	msg, err := h.auth.RequestConfirmation(r.Context(), req.Email, h.publicURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, msg)
}

func (h *Handler) RequestResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badBody(w)
		return
	}

	msg, err := h.auth.RequestPasswordReset(r.Context(), req.Email, h.publicURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, msg)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badBody(w)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, services.MsgPasswordSaved)
}
