package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrOwnerNotFound = errors.New("owner not found")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrTitleRequired = errors.New("title is required")
)

// TaskService handles task business logic. Every mutation goes through the
// ownership guard; the requester must own the task.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	OwnerID     uint64
}

// UpdateTaskInput carries a partial update; nil fields were omitted.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

// IsEmpty reports whether the patch touches no fields at all.
func (i UpdateTaskInput) IsEmpty() bool {
	return i.Title == nil && i.Description == nil && i.Status == nil
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
	OwnerID *uint64
	Status  *models.TaskStatus
	Offset  int
	Limit   int
}

// Create persists a new task after verifying the owner exists. An empty
// status defaults to pending.
func (s *TaskService) Create(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	if _, err := s.userRepo.FindByID(input.OwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to verify owner: %w", err)
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		OwnerID:     input.OwnerID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// Get returns a task. Reads are owner-scoped like mutations.
func (s *TaskService) Get(id uint64, requester *models.User) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := auth.RequireOwner(task.OwnerID, requester); err != nil {
		return nil, err
	}

	return task, nil
}

// List returns tasks matching the filters. A supplied status must be one of
// the enumerated values.
func (s *TaskService) List(input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}

	filter := repository.TaskFilter{
		OwnerID: input.OwnerID,
		Status:  input.Status,
		Offset:  input.Offset,
		Limit:   input.Limit,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Update applies a partial update to a task owned by the requester.
func (s *TaskService) Update(id uint64, input UpdateTaskInput, requester *models.User) (*models.Task, error) {
	if input.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := auth.RequireOwner(task.OwnerID, requester); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete removes a task owned by the requester.
func (s *TaskService) Delete(id uint64, requester *models.User) error {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := auth.RequireOwner(task.OwnerID, requester); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}
