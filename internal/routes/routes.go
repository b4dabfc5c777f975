package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/staffval/backend/internal/controllers"
	"github.com/staffval/backend/internal/middleware"
	"github.com/staffval/backend/internal/services"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, db *gorm.DB, queue *services.QueueService, comparison *services.ComparisonService, accuracy *services.AccuracyService, failures *services.FailureService, trends *services.TrendService) {
	// Initialize controllers
	authController := controllers.NewAuthController(db)
	jobController := controllers.NewJobController(queue, comparison)
	accuracyController := controllers.NewAccuracyController(accuracy)
	failureController := controllers.NewFailureController(failures)
	trendController := controllers.NewTrendController(trends)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/auth/refresh", authController.RefreshToken)

			// Jobs
			jobs := protected.Group("/jobs")
			{
				jobs.POST("", jobController.SubmitJob)
				jobs.GET("", jobController.ListJobs)
				jobs.GET("/:id", jobController.GetJob)
				jobs.GET("/:id/comparison", jobController.GetComparison)
				jobs.POST("/:id/resubmit", jobController.ResubmitJob)
			}

			// Accuracy tracking
			accuracyGroup := protected.Group("/accuracy")
			{
				accuracyGroup.GET("/metrics", accuracyController.ListMetrics)
				accuracyGroup.GET("/deviations", accuracyController.ListDeviations)
				accuracyGroup.GET("/confidence", accuracyController.GetConfidence)
			}

			// Failure patterns
			failuresGroup := protected.Group("/failures")
			{
				failuresGroup.GET("", failureController.ListActive)
				failuresGroup.PUT("/:id/resolve", failureController.Resolve)
			}

			// Trends and forecasts
			trendsGroup := protected.Group("/trends")
			{
				trendsGroup.GET("", trendController.ListTrends)
				trendsGroup.GET("/forecast", trendController.GetForecast)
				trendsGroup.GET("/correlations", trendController.GetCorrelations)
			}
		}
	}
}
