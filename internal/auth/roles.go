package auth

import (
	"slices"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

// Authorize returns user when its role is one of allowed and Forbidden
// otherwise.
func Authorize(user *models.User, allowed ...models.Role) (*models.User, error) {
	if user == nil || !slices.Contains(allowed, user.Role) {
		return nil, apperr.Forbidden("Operation forbidden")
	}
	return user, nil
}
