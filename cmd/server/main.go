package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/staffval/backend/internal/db"
	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/middleware"
	"github.com/staffval/backend/internal/routes"
	"github.com/staffval/backend/internal/services"
)

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := "http://localhost:5173"
		if os.Getenv("ENV") != "local" && os.Getenv("ENV") != "" {
			if corsOrigin := os.Getenv("CORS_ORIGIN"); corsOrigin != "" {
				origin = corsOrigin
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	// Initialize logger first
	logger.Initialize()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables", nil)
	}

	// Connect to database
	db.Connect()
	db.AutoMigrate()

	// Setup graceful shutdown
	stopChan := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		logger.Warn("Received shutdown signal, stopping background workers...", nil)
		close(stopChan)
	}()

	// Initialize services
	queue := services.NewQueueService(db.DB)
	comparison := services.NewComparisonService(db.DB)
	accuracy := services.NewAccuracyService(db.DB)
	failures := services.NewFailureService(db.DB)
	trends := services.NewTrendService(db.DB)

	// Start the executor workers pulling job batches
	hostname, _ := os.Hostname()
	workerCount := envInt("WORKER_COUNT", 2)
	batchSize := envInt("WORKER_BATCH_SIZE", 5)
	pollInterval := time.Duration(envInt("WORKER_POLL_SECONDS", 5)) * time.Second
	for i := 0; i < workerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", hostname, i)
		executor := services.NewExecutorService(db.DB, queue, comparison, accuracy, workerID)
		go executor.RunLoop(stopChan, pollInterval, batchSize)
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	r := gin.New()

	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// Use our custom logging middleware instead of gin.Default()
	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		var dbStatus string
		var dbError error

		if db.DB != nil {
			sqlDB, err := db.DB.DB()
			if err != nil {
				dbStatus = "error"
				dbError = err
			} else if err = sqlDB.Ping(); err != nil {
				dbStatus = "error"
				dbError = err
			} else {
				dbStatus = "ok"
			}
		} else {
			dbStatus = "error"
			dbError = fmt.Errorf("database connection not initialized")
		}

		overallStatus := "ok"
		statusCode := 200
		if dbStatus != "ok" {
			overallStatus = "error"
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   "1.0.0",
			"services": gin.H{
				"database": gin.H{
					"status": dbStatus,
					"error":  dbError,
				},
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(r, db.DB, queue, comparison, accuracy, failures, trends)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	logger.Info("Starting StaffVal backend server", map[string]interface{}{
		"port":     port,
		"gin_mode": gin.Mode(),
		"workers":  workerCount,
	})

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for shutdown signal
	<-stopChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}
