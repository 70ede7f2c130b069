package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openhire/jobboard/internal/api/handlers"
	"github.com/openhire/jobboard/internal/api/middleware"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Jobs         *handlers.JobHandler
	Applications *handlers.ApplicationHandler
	Admin        *handlers.AdminHandler

	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/api")

	// Public
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/forgot-password", d.Auth.ForgotPassword)
	api.POST("/auth/reset-password", d.Auth.ResetPassword)

	api.GET("/jobs", d.Jobs.List)
	api.GET("/jobs/stats/categories", d.Jobs.CategoryStats)
	api.GET("/jobs/:id", d.Jobs.Get)

	// Protected routes (JWT)
	auth := api.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/auth/me", d.Auth.Me)
	auth.PUT("/auth/password", d.Auth.ChangePassword)
	auth.PUT("/users/profile", d.Users.Update)

	// Candidate
	candidate := auth.Group("/")
	candidate.Use(middleware.RequireCandidate())
	candidate.POST("/jobs/:id/apply", d.Applications.Submit)
	candidate.GET("/applications/me", d.Applications.Mine)

	auth.GET("/applications/:id", d.Applications.Get)

	// Employer
	employer := auth.Group("/")
	employer.Use(middleware.RequireEmployer())
	employer.POST("/jobs", d.Jobs.Create)
	employer.PUT("/jobs/:id", d.Jobs.Update)
	employer.DELETE("/jobs/:id", d.Jobs.Delete)
	employer.GET("/jobs/:id/applications", d.Applications.ListForJob)
	employer.PATCH("/applications/:id/status", d.Applications.UpdateStatus)
	employer.GET("/employer/stats", d.Users.EmployerStats)

	// Admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/stats", d.Admin.Stats)
	admin.GET("/users", d.Admin.ListUsers)
	admin.PATCH("/users/:id/status", d.Admin.SetUserActive)
}
