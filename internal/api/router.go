// Package api - Router setup
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aethra/steward/internal/auth"
)

// SetupRouter creates and configures the Gin router. Every registered
// entity gets the same route family under its path prefix.
func SetupRouter(handler *Handler, authHandler *AuthHandler, jwtService *auth.JWTService, corsOrigins []string) *gin.Engine {
	r := gin.Default()

	// CORS configuration - when credentials are used, specific origins
	// must be provided (not *)
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsOrigins) > 0 {
		corsConfig.AllowOrigins = corsOrigins
	} else {
		// Development defaults - in production, set CORS_ALLOWED_ORIGINS
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8080",
		}
	}
	r.Use(cors.New(corsConfig))

	// Health check (no auth required)
	r.GET("/api/health", handler.Health)

	// ==========================================================================
	// AUTH API - Authentication endpoints
	// ==========================================================================
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
	}

	authProtected := r.Group("/auth")
	authProtected.Use(AuthMiddleware(jwtService))
	{
		authProtected.GET("/me", authHandler.GetMe)
		authProtected.POST("/change-password", authHandler.ChangePassword)
		authProtected.POST("/logout", authHandler.Logout)
	}

	// ==========================================================================
	// ENTITY API - The generic route family per registered entity
	// ==========================================================================
	protected := r.Group("")
	protected.Use(AuthMiddleware(jwtService))

	// Mutations additionally require the admin role; viewers get the
	// read-side routes (list, get, dropdown, export) only.
	mutating := protected.Group("")
	mutating.Use(RequireAdmin())
	{
		protected.GET("/api/schema", handler.GetSchema)

		for _, entity := range handler.engine.Registry().All() {
			prefix := entity.PathPrefix

			protected.GET(prefix, handler.List(entity))
			protected.GET(prefix+"/:uuid", handler.Get(entity))
			mutating.POST(prefix, handler.Create(entity))
			mutating.PUT(prefix+"/:uuid", handler.Update(entity))
			mutating.DELETE(prefix+"/:id", handler.Delete(entity))
			protected.GET(prefix+"-dropdown", handler.Dropdown(entity, entity.DropdownLabel()))
			mutating.POST(prefix+"-import", handler.Import(entity))
			protected.POST(prefix+"-export", handler.Export(entity))
		}
	}

	return r
}

