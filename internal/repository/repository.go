package repository

import (
	"github.com/tudu-app/tudu-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create persists a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by exact username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(email string) (*models.User, error)

	// List returns users in insertion order (by id)
	List(offset, limit int) ([]models.User, int64, error)

	// Update saves the full user record
	Update(user *models.User) error

	// Delete removes the user and all tasks it owns in one transaction
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create persists a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// List returns tasks matching the filter in insertion order (by id)
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves the full task record
	Update(task *models.Task) error

	// Delete removes a task
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks. Nil fields are not
// applied.
type TaskFilter struct {
	OwnerID *uint64
	Status  *models.TaskStatus
	Offset  int
	Limit   int
}
