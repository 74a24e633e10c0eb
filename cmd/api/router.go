package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupBookRoutes(v1, c)
		setupLoanRoutes(v1, c)
		setupCheckoutRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupRoleRoutes(v1, c)
	}

	return router
}

func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.AuthHandler.Register)
		auth.POST("/login", c.AuthHandler.Login)
		auth.POST("/refresh", c.AuthHandler.Refresh)
	}
}

func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		// Catalog reads are public.
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/:id", c.BookHandler.GetBook)
	}

	admin := v1.Group("/books")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.POST("", c.BookHandler.CreateBook)
		admin.PUT("/:id", c.BookHandler.UpdateBook)
		admin.DELETE("/:id", c.BookHandler.DeleteBook)
		admin.POST("/:id/cover", c.BookHandler.UploadCover)
	}
}

func setupLoanRoutes(v1 *gin.RouterGroup, c *container.Container) {
	loans := v1.Group("/loans")
	loans.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		loans.GET("", c.LoanHandler.ListLoans)
		loans.POST("", c.LoanHandler.CreateLoan)
		loans.GET("/:id", c.LoanHandler.GetLoan)
		loans.POST("/:id/return", c.LoanHandler.ReturnLoan)
	}

	admin := v1.Group("/loans")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.GET("/export", c.LoanHandler.ExportLoans)
		admin.PUT("/:id", c.LoanHandler.UpdateLoan)
		admin.DELETE("/:id", c.LoanHandler.DeleteLoan)
	}
}

func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container) {
	checkout := v1.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		checkout.POST("", c.CheckoutHandler.Checkout)
	}
}

func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/:id", c.UserHandler.GetUser)
		users.POST("/:id/avatar", c.UserHandler.UploadAvatar)
	}

	admin := v1.Group("/users")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.GET("", c.UserHandler.ListUsers)
		admin.PUT("/:id/role", c.UserHandler.AssignRole)
	}
}

func setupRoleRoutes(v1 *gin.RouterGroup, c *container.Container) {
	roles := v1.Group("/roles")
	roles.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		roles.GET("", c.RoleHandler.ListRoles)
		roles.POST("", c.RoleHandler.CreateRole)
		roles.GET("/:id", c.RoleHandler.GetRole)
		roles.PUT("/:id", c.RoleHandler.UpdateRole)
		roles.DELETE("/:id", c.RoleHandler.DeleteRole)
	}

	perms := v1.Group("/permissions")
	perms.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		perms.GET("", c.RoleHandler.ListPermissions)
	}
}

// healthCheckHandler reports liveness plus database and cache
// connectivity.
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "up"
		if err := c.DB.Ping(checkCtx); err != nil {
			dbStatus = "down"
			status = http.StatusServiceUnavailable
		}

		cacheStatus := "up"
		if err := c.Cache.Ping(checkCtx); err != nil {
			cacheStatus = "down"
			status = http.StatusServiceUnavailable
		}

		ctx.JSON(status, gin.H{
			"status":   "up",
			"database": dbStatus,
			"redis":    cacheStatus,
			"version":  c.Config.App.Version,
		})
	}
}
