package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/staffval/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory store and migrates every model, so
// service tests can exercise the real query paths.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.CalculationResult{},
		&models.ComparisonResult{},
		&models.AccuracyMetric{},
		&models.DeviationPattern{},
		&models.FailurePattern{},
		&models.HistoricalTrend{},
		&models.PerformanceSample{},
		&models.DataQualityIssue{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
