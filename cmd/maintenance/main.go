package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/staffval/backend/internal/db"
	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/services"
)

// The maintenance entrypoint is invoked by an external scheduler (cron or
// similar). Task errors exit non-zero so the scheduler decides on retry.
func main() {
	tasks := flag.String("tasks", "reap,mine,trends,cleanup", "comma-separated tasks to run")
	trendDays := flag.Int("trend-days", 7, "length of the trend period ending now")
	flag.Parse()

	logger.Initialize()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	db.Connect()

	queue := services.NewQueueService(db.DB)
	failures := services.NewFailureService(db.DB)
	trends := services.NewTrendService(db.DB)
	maintenance := services.NewMaintenanceService(db.DB)

	now := time.Now()
	for _, task := range strings.Split(*tasks, ",") {
		switch strings.TrimSpace(task) {
		case "reap":
			reaped, err := queue.ReapExpiredLeases()
			if err != nil {
				log.Fatalf("Lease reaper failed: %v", err)
			}
			log.Printf("✅ Reaped %d expired leases", reaped)

		case "mine":
			if err := failures.MinePatterns(now); err != nil {
				log.Fatalf("Failure mining failed: %v", err)
			}
			log.Println("✅ Failure pattern mining completed")

		case "trends":
			periodStart := now.AddDate(0, 0, -*trendDays)
			if err := trends.GenerateTrends(periodStart, now); err != nil {
				log.Fatalf("Trend generation failed: %v", err)
			}
			log.Printf("✅ Trends generated for %s to %s",
				periodStart.Format(time.RFC3339), now.Format(time.RFC3339))

		case "cleanup":
			report, err := maintenance.Cleanup(now)
			if err != nil {
				log.Fatalf("Retention cleanup failed: %v", err)
			}
			log.Printf("✅ Cleanup purged %d metrics, %d samples, %d resolved patterns",
				report.AccuracyMetrics, report.PerformanceSamples, report.ResolvedPatterns)

		default:
			log.Fatalf("Unknown maintenance task %q", task)
		}
	}
}
