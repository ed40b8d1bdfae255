package constants

// Context keys set by the auth middleware.
const (
	ContextKeyUser   = "current_user"
	ContextKeyUserID = "user_id"
)

// Credential limits.
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// Pagination limits.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
