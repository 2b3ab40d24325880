// Package handlers implements the HTTP endpoints of the contacts API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/database"
	"github.com/AnshRaj112/contacts-backend/internal/services"
)

// maxUploadSize bounds multipart avatar uploads (10MB).
const maxUploadSize = 10 << 20

type Handler struct {
	auth      *services.AuthService
	accounts  *services.AccountService
	contacts  *services.ContactService
	db        database.DBTX
	// publicURL is the configured base of links in outgoing mail. The
	// request's Host is never used for them.
	publicURL string
	logger    *slog.Logger
	now       func() time.Time
}

func New(authSvc *services.AuthService, accounts *services.AccountService, contacts *services.ContactService,
	db database.DBTX, publicURL string, logger *slog.Logger) *Handler {
	return &Handler{
		auth:      authSvc,
		accounts:  accounts,
		contacts:  contacts,
		db:        db,
		publicURL: publicURL,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for birthday lookups.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError answers with the status and public message of err. Server
// errors are logged and their details withheld.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		apperr.Log(h.logger, "request failed", err, "method", r.Method, "path", r.URL.Path)
	}
	writeDetail(w, status, apperr.PublicMessage(err))
}

var errMalformedBody = errors.New("malformed request body")

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errMalformedBody
	}
	return nil
}

func (h *Handler) badBody(w http.ResponseWriter) {
	writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return n, nil
}

// pagination reads skip and limit from the query string.
func pagination(r *http.Request) (int, int, error) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit", services.DefaultContactLimit)
	if err != nil {
		return 0, 0, err
	}
	if skip < 0 || limit < 0 {
		return 0, 0, apperr.Validation("skip and limit must not be negative")
	}
	return skip, limit, nil
}
