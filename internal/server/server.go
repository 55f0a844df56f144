package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"classbook/internal/booking"
	"classbook/internal/class"
	"classbook/internal/config"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	classHandler := class.NewHandler(db, cfg)
	bookingHandler := booking.NewHandler(db, cfg)

	router.POST("/classes", classHandler.CreateClass)
	router.GET("/classes", classHandler.ListClasses)
	router.PUT("/classes/:classID", classHandler.UpdateClass)
	router.DELETE("/classes/:classID", classHandler.DeleteClass)
	router.GET("/classes/availability/:classID", bookingHandler.CheckAvailability)

	router.POST("/book", bookingHandler.BookClass)
	router.GET("/bookings", bookingHandler.ListBookings)
	router.DELETE("/bookings/:bookingID", bookingHandler.CancelBooking)
	// Kept as an alias for callers that cannot send DELETE.
	router.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
