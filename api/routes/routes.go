package routes

import (
	"net/http"
	"time"

	"catalance/api/handler"
	"catalance/api/middleware"
	"catalance/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Users          *handler.UserHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       middleware.Limiter
}

// NewRouter falls back to an in-process limiter when authRate is nil.
func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, userHandler *handler.UserHandler, authMiddleware middleware.AuthMiddleware, authRate middleware.Limiter) *Router {
	if authRate == nil {
		authRate = middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute)
	}
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Users:          userHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       authRate,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := e.Group("/api/auth")
	limited := middleware.LimitByIP(r.AuthRate, "auth")
	auth.POST("/register", r.Auth.Register, limited)
	auth.POST("/login", r.Auth.Login, limited)
	auth.POST("/forgot-password", r.Auth.ForgotPassword, limited)
	auth.GET("/verify-reset-token", r.Auth.VerifyResetToken, limited)
	auth.POST("/reset-password", r.Auth.ResetPassword, limited)
	auth.POST("/change-password", r.Auth.ChangePassword, r.AuthMiddleware.RequireAuth)
	auth.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	users := e.Group("/api/users", r.AuthMiddleware.RequireAuth)
	admin := middleware.RequireRole(string(entity.UserRoleAdmin))
	users.GET("", r.Users.List, admin)
	users.POST("", r.Users.Create, admin)
	users.GET("/:id", r.Users.Get)
}
