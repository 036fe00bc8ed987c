package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/DGEmiljoe/qfieldcloud/internal/config"
	"github.com/DGEmiljoe/qfieldcloud/internal/constants"
	"github.com/DGEmiljoe/qfieldcloud/internal/database"
	"github.com/DGEmiljoe/qfieldcloud/internal/handlers"
	"github.com/DGEmiljoe/qfieldcloud/internal/middleware"
	"github.com/DGEmiljoe/qfieldcloud/internal/permissions"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/services"
	"github.com/DGEmiljoe/qfieldcloud/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories and services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	files := storage.NewFileStorage(afero.NewOsFs(), cfg.StorageRoot)

	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo, orgRepo, files)
	collaboratorService := services.NewCollaboratorService(projectRepo, userRepo, orgRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	fileHandler := handlers.NewFileHandler(files)
	collaboratorHandler := handlers.NewCollaboratorHandler(collaboratorService)
	orgHandler := handlers.NewOrganizationHandler(orgService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "QFieldCloud API is running",
		})
	})

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/:organization/members", orgHandler.ListMembers)
			orgs.POST("/:organization/members", orgHandler.AddMember)
			orgs.DELETE("/:organization/members/:username", orgHandler.RemoveMember)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/public", projectHandler.ListPublicProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:projectid", middleware.RequireProjectAction(permissions.ActionRetrieve), projectHandler.GetProject)
			projects.PATCH("/:projectid", middleware.RequireProjectAction(permissions.ActionPartialUpdate), projectHandler.UpdateProject)
			projects.DELETE("/:projectid", middleware.RequireProjectAction(permissions.ActionDestroy), projectHandler.DeleteProject)

			// Collaborator routes
			projects.GET("/:projectid/collaborators", middleware.RequireProjectAction(permissions.ActionManageCollaborators), collaboratorHandler.ListCollaborators)
			projects.POST("/:projectid/collaborators", middleware.RequireProjectAction(permissions.ActionManageCollaborators), collaboratorHandler.AddCollaborator)
			projects.PATCH("/:projectid/collaborators/:username", middleware.RequireProjectAction(permissions.ActionManageCollaborators), collaboratorHandler.UpdateCollaborator)
			projects.DELETE("/:projectid/collaborators/:username", middleware.RequireProjectAction(permissions.ActionManageCollaborators), collaboratorHandler.RemoveCollaborator)
		}

		// File routes (protected)
		projectFiles := api.Group("/files")
		projectFiles.Use(middleware.RequireAuth())
		{
			projectFiles.GET("/:projectid", middleware.RequireProjectAction(permissions.ActionListFiles), fileHandler.ListFiles)
			projectFiles.POST("/:projectid/*filename", middleware.RequireProjectAction(permissions.ActionPushFile), fileHandler.PushFile)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
