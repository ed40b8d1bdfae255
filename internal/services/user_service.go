package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/constants"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrDuplicateIdentity    = errors.New("username or email already in use")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmptyUpdate          = errors.New("no fields provided for update")
	ErrInvalidUsername      = errors.New("username must be 3-32 characters of letters, digits, '_', '.' or '-'")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// UserService handles user identity business logic.
type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, hasher *auth.PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// CreateUserInput represents the required information to create a new user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Disabled bool
	IsAdmin  bool
}

// UpdateUserInput carries a partial update. Nil fields were omitted from the
// request and are left untouched; a non-nil pointer to a zero value (e.g.
// disabled=false) is applied.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Disabled *bool
}

// IsEmpty reports whether the patch touches no fields at all.
func (i UpdateUserInput) IsEmpty() bool {
	return i.Username == nil && i.Email == nil && i.Password == nil && i.Disabled == nil
}

// Create validates credentials, enforces identity uniqueness and persists a
// new user with a hashed password.
func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := s.ensureIdentityAvailable(username, input.Email, 0); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        input.Email,
		PasswordHash: hashed,
		Disabled:     input.Disabled,
		IsAdmin:      input.IsAdmin,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// List returns users in insertion order.
func (s *UserService) List(offset, limit int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update applies a partial update to a user. Only the requester themselves
// may update their record. Uniqueness is re-validated when username or email
// change.
func (s *UserService) Update(id uint64, input UpdateUserInput, requester *models.User) (*models.User, error) {
	if input.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := auth.RequireOwner(user.ID, requester); err != nil {
		return nil, err
	}

	username := user.Username
	email := user.Email
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		email = *input.Email
	}
	if username != user.Username || !strings.EqualFold(email, user.Email) {
		if err := s.ensureIdentityAvailable(username, email, user.ID); err != nil {
			return nil, err
		}
	}

	user.Username = username
	user.Email = email

	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = hashed
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes a user and all tasks it owns. Only the requester themselves
// may delete their record.
func (s *UserService) Delete(id uint64, requester *models.User) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := auth.RequireOwner(user.ID, requester); err != nil {
		return err
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// ensureIdentityAvailable rejects usernames (case-sensitive) and emails
// (case-insensitive) already held by another user. excludeID skips the user
// being updated.
func (s *UserService) ensureIdentityAvailable(username, email string, excludeID uint64) error {
	existing, err := s.userRepo.FindByUsername(username)
	if err == nil {
		if existing.ID != excludeID {
			return ErrDuplicateIdentity
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	existing, err = s.userRepo.FindByEmail(email)
	if err == nil {
		if existing.ID != excludeID {
			return ErrDuplicateIdentity
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}

func validateUsername(username string) error {
	if len(username) < constants.MinUsernameLength || len(username) > constants.MaxUsernameLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
