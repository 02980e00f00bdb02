package server

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mmcrisostomo/lrt-density/backend/internal/crowd"
	"github.com/mmcrisostomo/lrt-density/backend/internal/database"
	"github.com/mmcrisostomo/lrt-density/backend/internal/handlers"
	"github.com/mmcrisostomo/lrt-density/backend/internal/middleware"
	"github.com/mmcrisostomo/lrt-density/backend/internal/notify"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Live crowd cache is optional; without Redis we serve historical
	// estimates only
	var live *crowd.LiveStore
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		store, err := crowd.NewLiveStore(redisURL)
		if err != nil {
			log.Printf("Live crowd cache unavailable: %v", err)
		} else {
			live = store
			log.Println("✅ Live crowd cache connected")
		}
	}

	alerts := notify.NewAlertNotifierFromEnv()
	if alerts != nil {
		log.Println("✅ SMS alerts enabled")
	}

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB(), live, alerts)

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads carry the viewer identity when a token is present so
		// comment permission flags render per viewer
		public := api.Group("")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/stations", s.handler.Station.GetStations)
			public.GET("/stations/search", s.handler.Station.SearchStations)
			public.GET("/stations/:id", s.handler.Station.GetStation)
			public.GET("/users/:id", s.handler.User.GetUserProfile)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			// Station admin routes
			protected.PUT("/stations/:id/status", s.handler.Station.UpdateStationStatus)

			// Comment routes
			protected.POST("/stations/:id/comments", s.handler.Comment.CreateComment)
			protected.POST("/comments/:commentId/vote", s.handler.Comment.VoteComment)
			protected.PUT("/comments/:commentId", s.handler.Comment.EditComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)

			// User routes
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
			protected.DELETE("/users/:id", s.handler.User.DeleteAccount)
		}
	}

	return r
}
