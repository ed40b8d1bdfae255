package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/dto"
	apierrors "github.com/tudu-app/tudu-api/internal/errors"
	"github.com/tudu-app/tudu-api/internal/middleware"
	"github.com/tudu-app/tudu-api/internal/services"
	"github.com/tudu-app/tudu-api/internal/utils"
)

// UserHandler coordinates user CRUD HTTP handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUser creates a user with explicit flags. Admin-only; this is the one
// endpoint governed by the admin policy instead of ownership.
func (h *UserHandler) CreateUser(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}
	if err := auth.RequireAdmin(requester); err != nil {
		apierrors.Forbidden(c, "")
		return
	}

	type CreateUserRequest struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Disabled bool   `json:"disabled"`
		IsAdmin  bool   `json:"is_admin"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Create(services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Disabled: req.Disabled,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// GetUser returns a user by ID.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ListUsers returns users in insertion order with pagination.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.List(params.Offset, params.Limit)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, params.Limit, total))
}

// UpdateUser applies a partial update to a user record. Fields absent from
// the body stay untouched; an explicit false or empty string is applied.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Username *string `json:"username"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password"`
		Disabled *bool   `json:"disabled"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Update(id, services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Disabled: req.Disabled,
	}, requester)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user and all tasks it owns.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(id, requester); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrEmptyUpdate):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateIdentity):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}

// parseIDParam reads the :id path parameter; on failure it writes the 400
// response itself.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}
