package db

import (
	"fmt"
	"log"
	"os"

	"github.com/staffval/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect initializes the database connection
func Connect() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})

	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("✅ Database connected successfully")
}

// AutoMigrate runs database migrations
func AutoMigrate() {
	migrations := []struct {
		name  string
		model interface{}
	}{
		{"User", &models.User{}},
		{"Job", &models.Job{}},
		{"CalculationResult", &models.CalculationResult{}},
		{"ComparisonResult", &models.ComparisonResult{}},
		{"AccuracyMetric", &models.AccuracyMetric{}},
		{"DeviationPattern", &models.DeviationPattern{}},
		{"FailurePattern", &models.FailurePattern{}},
		{"HistoricalTrend", &models.HistoricalTrend{}},
		{"PerformanceSample", &models.PerformanceSample{}},
		{"DataQualityIssue", &models.DataQualityIssue{}},
	}

	for _, m := range migrations {
		if err := DB.AutoMigrate(m.model); err != nil {
			log.Printf("%s migration failed: %v", m.name, err)
			return
		}
		log.Printf("✅ %s table migrated successfully", m.name)
	}

	log.Println("✅ All database migrations completed successfully")
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
