package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/config"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/handlers"
	"github.com/routelink/bus-booking-backend/internal/middleware"
	"github.com/routelink/bus-booking-backend/internal/services"
	"github.com/routelink/bus-booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RouteLink Bus Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db.DB)
	busRepo := database.NewBusRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	paymentRepo := database.NewPaymentRepository(db.DB)
	restorationRepo := database.NewRestorationRepository(db.DB)
	auditRepo := database.NewPaymentAuditRepository(db.DB, logger)
	feedbackRepo := database.NewFeedbackRepository(db.DB)

	// Initialize services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, logger)
	busService := services.NewBusService(busRepo, logger)
	reservationService := services.NewReservationService(busRepo, bookingRepo, logger)
	settlementService := services.NewSettlementService(paymentRepo, bookingRepo, auditRepo, cfg.Security.BcryptCost, logger)
	cancellationService := services.NewCancellationService(busRepo, bookingRepo, restorationRepo, auditRepo, logger)
	feedbackService := services.NewFeedbackService(feedbackRepo, logger)

	// Initialize background jobs
	cronService := services.NewCronService(bookingRepo, restorationRepo, cancellationService, cfg.Booking.PaymentTimeout, cfg.Booking.RestorationSweepLimit, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	// Drain any restorations a previous run left behind before serving.
	cronService.RunRestorationSweepNow()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	busHandler := handlers.NewBusHandler(busService)
	bookingHandler := handlers.NewBookingHandler(reservationService, cancellationService, bookingRepo)
	paymentHandler := handlers.NewPaymentHandler(settlementService, bookingRepo, auditRepo)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		v1.GET("/buses/:id", busHandler.GetBus)
		v1.GET("/buses/:id/feedback", feedbackHandler.ListFeedback)
		v1.POST("/trips/search", busHandler.SearchTrips)

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtService))
		{
			authed.POST("/buses", middleware.RequireAdmin(), busHandler.RegisterBus)

			authed.GET("/bookings", bookingHandler.MyBookings)
			authed.GET("/bookings/:reference", bookingHandler.GetBooking)
			authed.POST("/bookings/reserve", bookingHandler.ReserveSeats)
			authed.POST("/bookings/cancel", bookingHandler.CancelBooking)

			authed.POST("/payments/settle", paymentHandler.SettlePayment)
			authed.GET("/payments/:reference/history", middleware.RequireAdmin(), paymentHandler.PaymentHistory)

			authed.POST("/feedback", feedbackHandler.SubmitFeedback)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("Request completed")
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db *database.PostgresDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	}
}
