package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tudu-app/tudu-api/internal/constants"
	apierrors "github.com/tudu-app/tudu-api/internal/errors"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/services"
)

// RequireAuth resolves the Authorization bearer token to a user and stores
// it in the request context. The lookup runs on every request; a token whose
// subject was deleted or disabled after issuance is rejected here.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))

		user, err := authService.CurrentUser(token)
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

// GetCurrentUser retrieves the authenticated user from context.
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, false
	}
	return user, true
}

// GetUserID retrieves the current user ID from context.
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint64)
	if !ok {
		return 0, false
	}
	return id, true
}
