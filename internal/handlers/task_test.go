package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/dto"
	"github.com/tudu-app/tudu-api/internal/middleware"
	"github.com/tudu-app/tudu-api/internal/models"
	"github.com/tudu-app/tudu-api/internal/repository"
	"github.com/tudu-app/tudu-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite exercises the task endpoints through the full
// router, auth middleware included.
type TaskHandlerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	router      *gin.Engine
	userService *services.UserService
	authService *services.AuthService
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	userRepo := repository.NewUserRepository(suite.db)
	taskRepo := repository.NewTaskRepository(suite.db)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	suite.userService = services.NewUserService(userRepo, hasher)
	suite.authService = services.NewAuthService(userRepo, hasher, tokens)
	taskService := services.NewTaskService(taskRepo, userRepo)
	handler := NewTaskHandler(taskService)

	gin.SetMode(gin.TestMode)

	suite.router = gin.New()
	tasks := suite.router.Group("/api/tasks")
	tasks.Use(middleware.RequireAuth(suite.authService))
	{
		tasks.GET("", handler.ListTasks)
		tasks.POST("", handler.CreateTask)
		tasks.GET("/:id", handler.GetTask)
		tasks.PATCH("/:id", handler.UpdateTask)
		tasks.DELETE("/:id", handler.DeleteTask)
	}
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper: creates a user and returns a valid token for it.
func (suite *TaskHandlerTestSuite) signupAndLogin(username string) (*models.User, string) {
	user, err := suite.userService.Create(services.CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	token, _, err := suite.authService.Login(services.LoginInput{
		Username: username,
		Password: "password123",
	})
	suite.Require().NoError(err)

	return user, token
}

func (suite *TaskHandlerTestSuite) request(method, url, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) createTask(token, title string) dto.TaskDTO {
	w := suite.request(http.MethodPost, "/api/tasks", token, map[string]any{
		"title": title,
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	alice, token := suite.signupAndLogin("alice")

	w := suite.request(http.MethodPost, "/api/tasks", token, map[string]any{
		"title":       "Write report",
		"description": "quarterly numbers",
	})
	suite.Equal(http.StatusCreated, w.Code)

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	suite.Equal("Write report", task.Title)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(alice.ID, task.OwnerID)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidStatus() {
	_, token := suite.signupAndLogin("alice")

	w := suite.request(http.MethodPost, "/api/tasks", token, map[string]any{
		"title":  "T",
		"status": "done",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Unauthenticated() {
	w := suite.request(http.MethodPost, "/api/tasks", "", map[string]any{
		"title": "T",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_OwnerScoped() {
	_, aliceToken := suite.signupAndLogin("alice")
	_, bobToken := suite.signupAndLogin("bob")

	suite.createTask(aliceToken, "a1")
	suite.createTask(aliceToken, "a2")
	suite.createTask(bobToken, "b1")

	w := suite.request(http.MethodGet, "/api/tasks", aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.EqualValues(2, response.Pagination.Total)
	suite.Len(response.Tasks, 2)
	suite.Equal("a1", response.Tasks[0].Title)
	suite.Equal("a2", response.Tasks[1].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_StatusFilter() {
	_, token := suite.signupAndLogin("alice")

	suite.createTask(token, "open")
	done := suite.createTask(token, "done")

	completed := string(models.TaskStatusCompleted)
	w := suite.request(http.MethodPatch, "/api/tasks/"+itoa(done.ID), token, map[string]any{
		"status": completed,
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks?status=completed", token, nil)
	suite.Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.EqualValues(1, response.Pagination.Total)
	suite.Equal(done.ID, response.Tasks[0].ID)

	w = suite.request(http.MethodGet, "/api/tasks?status=archived", token, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_AdminAll() {
	_, aliceToken := suite.signupAndLogin("alice")
	_, bobToken := suite.signupAndLogin("bob")

	suite.createTask(aliceToken, "a1")
	suite.createTask(bobToken, "b1")

	_, err := suite.userService.Create(services.CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "password123",
		IsAdmin:  true,
	})
	suite.Require().NoError(err)
	adminToken, _, err := suite.authService.Login(services.LoginInput{
		Username: "admin",
		Password: "password123",
	})
	suite.Require().NoError(err)

	w := suite.request(http.MethodGet, "/api/tasks?all=true", adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.EqualValues(2, response.Pagination.Total)

	// A non-admin asking for all still sees only their own tasks.
	w = suite.request(http.MethodGet, "/api/tasks?all=true", aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.EqualValues(1, response.Pagination.Total)
}

func (suite *TaskHandlerTestSuite) TestGetTask_Forbidden() {
	_, aliceToken := suite.signupAndLogin("alice")
	_, bobToken := suite.signupAndLogin("bob")

	task := suite.createTask(aliceToken, "private")

	w := suite.request(http.MethodGet, "/api/tasks/"+itoa(task.ID), bobToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/"+itoa(task.ID), aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	_, token := suite.signupAndLogin("alice")
	task := suite.createTask(token, "T")

	w := suite.request(http.MethodPatch, "/api/tasks/"+itoa(task.ID), token, map[string]any{
		"status": "in-progress",
	})
	suite.Equal(http.StatusOK, w.Code)

	var updated dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal("T", updated.Title)

	// Empty patch body is rejected.
	w = suite.request(http.MethodPatch, "/api/tasks/"+itoa(task.ID), token, map[string]any{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_Forbidden() {
	_, aliceToken := suite.signupAndLogin("alice")
	_, bobToken := suite.signupAndLogin("bob")

	task := suite.createTask(aliceToken, "T")

	w := suite.request(http.MethodPatch, "/api/tasks/"+itoa(task.ID), bobToken, map[string]any{
		"status": "completed",
	})
	suite.Equal(http.StatusForbidden, w.Code)

	// The record is unchanged.
	w = suite.request(http.MethodGet, "/api/tasks/"+itoa(task.ID), aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var got dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(models.TaskStatusPending, got.Status)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	_, aliceToken := suite.signupAndLogin("alice")
	_, bobToken := suite.signupAndLogin("bob")

	task := suite.createTask(aliceToken, "T")

	w := suite.request(http.MethodDelete, "/api/tasks/"+itoa(task.ID), bobToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/tasks/"+itoa(task.ID), aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/"+itoa(task.ID), aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
