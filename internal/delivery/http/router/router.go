// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"arcana/internal/delivery/http/middleware"
	"arcana/internal/delivery/http/router/handler"
	"arcana/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	TokenHandler       *handler.TokenHandler
	AuthHandler        *handler.AuthHandler
	SessionHandler     *handler.SessionHandler
	ClientAdminHandler *handler.ClientAdminHandler
	AuthMiddleware     *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	tokenHandler       *handler.TokenHandler
	authHandler        *handler.AuthHandler
	sessionHandler     *handler.SessionHandler
	clientAdminHandler *handler.ClientAdminHandler
	authMiddleware     *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		tokenHandler:       params.TokenHandler,
		authHandler:        params.AuthHandler,
		sessionHandler:     params.SessionHandler,
		clientAdminHandler: params.ClientAdminHandler,
		authMiddleware:     params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// OAuth-shaped machine-to-machine token endpoint
	e.POST("/oauth/token", r.tokenHandler.Token)

	// Email-code signup and login flows
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.InitiateSignup)
		authGroup.POST("/signup/verify", r.authHandler.CompleteSignup)
		authGroup.POST("/login", r.authHandler.InitiateLogin)
		authGroup.POST("/login/verify", r.authHandler.CompleteLogin)
	}

	// Session routes; refresh authenticates by refresh token alone, the rest
	// require a valid session envelope.
	e.POST("/sessions/refresh", r.sessionHandler.Refresh)

	sessionGroup := e.Group("/sessions")
	sessionGroup.Use(r.authMiddleware.AuthenticateSession)
	{
		sessionGroup.GET("", r.sessionHandler.ListSessions)
		sessionGroup.GET("/current", r.sessionHandler.Current)
		sessionGroup.POST("/logout", r.sessionHandler.Logout)
		sessionGroup.DELETE("/:id", r.sessionHandler.Terminate)
		sessionGroup.DELETE("", r.sessionHandler.TerminateAll)
	}

	// Client administration, gated on the admin scope
	adminGroup := e.Group("/admin/clients")
	adminGroup.Use(r.authMiddleware.AuthenticateClient)
	adminGroup.Use(r.authMiddleware.RequireScope(entity.ScopeAdmin))
	{
		adminGroup.POST("", r.clientAdminHandler.Create)
		adminGroup.GET("", r.clientAdminHandler.List)
		adminGroup.POST("/:id/rotate", r.clientAdminHandler.RotateSecret)
		adminGroup.POST("/:id/deactivate", r.clientAdminHandler.Deactivate)
		adminGroup.DELETE("/:id", r.clientAdminHandler.Delete)
	}
}
