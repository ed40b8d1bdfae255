package auth

import (
	"errors"

	"github.com/tudu-app/tudu-api/internal/models"
)

// ErrForbidden is returned when a requester fails an authorization policy.
var ErrForbidden = errors.New("forbidden")

// RequireOwner allows access only when the requester owns the resource.
// This is the default policy for every task and user mutation.
func RequireOwner(resourceOwnerID uint64, requester *models.User) error {
	if requester == nil || requester.ID != resourceOwnerID {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin allows access based on the admin flag alone, independent of
// ownership. Only the user-creation endpoint uses this policy.
func RequireAdmin(requester *models.User) error {
	if requester == nil || !requester.IsAdmin {
		return ErrForbidden
	}
	return nil
}
