package services

import (
	"errors"
	"fmt"

	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrFailedToIssueToken = errors.New("failed to issue token")
)

// AuthService handles credential verification and bearer-token resolution.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues a bearer token. Unknown usernames,
// disabled accounts and wrong passwords all collapse into the same error so
// the response does not leak which part failed.
func (s *AuthService) Login(input LoginInput) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.Disabled {
		return "", nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", nil, ErrFailedToIssueToken
	}

	return token, user, nil
}

// CurrentUser resolves a bearer token to the user it was issued for. Tokens
// are not proactively revoked, so the per-request subject lookup is the only
// server-side revocation check: a token for a deleted or disabled user stops
// working here.
func (s *AuthService) CurrentUser(token string) (*models.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByUsername(subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.Disabled {
		return nil, ErrUnauthenticated
	}

	return user, nil
}
