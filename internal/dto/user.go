package dto

import (
	"time"

	"github.com/tudu-app/tudu-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash is never
// part of any response shape.
type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Disabled  bool      `json:"disabled"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO `json:"users"`
	Pagination Paging    `json:"pagination"`
}

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Paging carries pagination metadata in list responses.
type Paging struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Disabled:  user.Disabled,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserListResponse converts a slice of users to UserListResponse
func ToUserListResponse(users []models.User, page, limit int, total int64) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListResponse{
		Users: items,
		Pagination: Paging{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}
}
