package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/dto"
	apierrors "github.com/tudu-app/tudu-api/internal/errors"
	"github.com/tudu-app/tudu-api/internal/middleware"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/services"
	"github.com/tudu-app/tudu-api/internal/utils"
)

// TaskHandler coordinates task CRUD HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the caller's tasks, optionally filtered by status.
// Admins may pass ?all=true to list across owners.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Offset: params.Offset,
		Limit:  params.Limit,
	}

	if c.Query("all") == "true" && requester.IsAdmin {
		// unscoped listing
	} else {
		ownerID := requester.ID
		input.OwnerID = &ownerID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}

	tasks, total, err := h.taskService.List(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// CreateTask creates a new task owned by the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string            `json:"title" binding:"required"`
		Description string            `json:"description"`
		Status      models.TaskStatus `json:"status"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     requester.ID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns one of the caller's tasks by ID.
func (h *TaskHandler) GetTask(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(id, requester)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to a task owned by the caller.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Status      *models.TaskStatus `json:"status"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Update(id, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, requester)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task owned by the caller.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	requester, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(id, requester); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrEmptyUpdate):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrOwnerNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
