package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/tudu-app/tudu-api/internal/auth"
	"github.com/tudu-app/tudu-api/internal/config"
	"github.com/tudu-app/tudu-api/internal/database"
	"github.com/tudu-app/tudu-api/internal/handlers"
	"github.com/tudu-app/tudu-api/internal/middleware"
	"github.com/tudu-app/tudu-api/internal/repository"
	"github.com/tudu-app/tudu-api/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	if cfg.GinMode == "release" && cfg.UsingDefaultSecret() {
		log.Println("WARNING: JWT_SECRET is the development default; set a real secret in production")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Wire components: repositories -> services -> handlers. Everything is
	// constructed here once and injected; no package-level state.
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo, hasher, tokens)
	userService := services.NewUserService(userRepo, hasher)
	taskService := services.NewTaskService(taskRepo, userRepo)

	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "tudu API is running",
		})
	})

	requireAuth := middleware.RequireAuth(authService)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/token", authHandler.Login)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}

	// Start server
	addr := ":" + cfg.ServerPort
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
