package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/contacts-backend/internal/models"
)

func contactID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	return id, err == nil && id > 0
}

// ListContacts supports first_name, last_name, email and phone_number
// filters plus skip/limit paging.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	skip, limit, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := models.ContactFilter{
		FirstName:   q.Get("first_name"),
		LastName:    q.Get("last_name"),
		Email:       q.Get("email"),
		PhoneNumber: q.Get("phone_number"),
	}

	contacts, err := h.contacts.List(r.Context(), user, filter, skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	contacts, err := h.contacts.UpcomingBirthdays(r.Context(), user, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(r)
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}

	contact, err := h.contacts.Get(r.Context(), user, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.ContactInput
	if err := decodeJSON(r, &in); err != nil {
		h.badBody(w)
		return
	}

	contact, err := h.contacts.Create(r.Context(), user, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(r)
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}
	var in models.ContactInput
	if err := decodeJSON(r, &in); err != nil {
		h.badBody(w)
		return
	}

	contact, err := h.contacts.Update(r.Context(), user, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact answers with the removed contact.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(r)
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}

	contact, err := h.contacts.Delete(r.Context(), user, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}
