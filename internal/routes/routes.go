package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/contacts-backend/internal/handlers"
)

// Guards are the middlewares applied to protected route groups.
type Guards struct {
	// RequireUser rejects requests without a valid access token.
	RequireUser func(http.Handler) http.Handler
	// MeLimit rate limits GET /api/users/me. Optional.
	MeLimit func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, h *handlers.Handler, g Guards) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthchecker", h.HealthChecker)

		r.Post("/auth/sign_up", h.SignUp)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh_token", h.RefreshToken)
		r.Get("/auth/confirmed_email/{token}", h.ConfirmedEmail)
		r.Post("/auth/request_email", h.RequestEmail)
		r.Post("/auth/request_reset_password", h.RequestResetPassword)
		r.Post("/auth/reset_password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(g.RequireUser)

			if g.MeLimit != nil {
				r.With(g.MeLimit).Get("/users/me", h.Me)
			} else {
				r.Get("/users/me", h.Me)
			}
			r.Patch("/users/avatar", h.UpdateAvatar)

			r.Get("/contacts", h.ListContacts)
			r.Post("/contacts", h.CreateContact)
			r.Get("/contacts/upcoming_birthdays", h.UpcomingBirthdays)
			r.Get("/contacts/{contactID}", h.GetContact)
			r.Put("/contacts/{contactID}", h.UpdateContact)
			r.Delete("/contacts/{contactID}", h.DeleteContact)

			// role checks happen in the handlers
			r.Get("/admin/users", h.ListUsers)
			r.Patch("/admin/users/{username}/role", h.SetUserRole)
			r.Delete("/admin/users/{username}", h.DeleteUser)
		})
	})
}
