package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/staffval/backend/internal/db"
	"github.com/staffval/backend/internal/models"
	"github.com/staffval/backend/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Connect to database
	db.Connect()

	// Run migrations first
	log.Println("Running database migrations...")
	db.AutoMigrate()

	log.Println("Seeding database with sample data...")

	if err := seedUsers(); err != nil {
		log.Printf("Error seeding users: %v", err)
	}
	if err := seedJobs(); err != nil {
		log.Printf("Error seeding jobs: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers() error {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []models.User{
		{Email: "admin@staffval.local", Password: string(hashedPassword), FirstName: "Admin", LastName: "User", Role: models.RoleAdmin},
		{Email: "analyst@staffval.local", Password: string(hashedPassword), FirstName: "Validation", LastName: "Analyst", Role: models.RoleAnalyst},
	}

	for _, user := range users {
		var existing models.User
		if err := db.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			continue
		}
		if err := db.DB.Create(&user).Error; err != nil {
			log.Printf("Error creating user %s: %v", user.Email, err)
			continue
		}
		log.Printf("Created user %s (%s)", user.Email, user.Role)
	}
	return nil
}

func seedJobs() error {
	queue := services.NewQueueService(db.DB)

	demos := []services.SubmitRequest{
		{
			Target:          "support-tier1",
			CalculationDate: time.Now().Truncate(24 * time.Hour),
			IntervalType:    "30min",
			Priority:        5,
			InputParameters: map[string]interface{}{
				"offered_calls":        1000.0,
				"avg_handle_time":      240.0,
				"interval_seconds":     1800.0,
				"target_service_level": 80.0,
				"target_answer_time":   20.0,
				"shrinkage":            15.0,
			},
		},
		{
			Target:          "billing",
			CalculationDate: time.Now().Truncate(24 * time.Hour),
			IntervalType:    "30min",
			Priority:        3,
			InputParameters: map[string]interface{}{
				"offered_calls":        240.0,
				"avg_handle_time":      360.0,
				"interval_seconds":     1800.0,
				"target_service_level": 90.0,
				"target_answer_time":   15.0,
				"abandon_rate":         4.0,
				"skill_demand": map[string]interface{}{
					"invoicing": 10.0,
					"refunds":   6.0,
				},
			},
		},
	}

	for _, req := range demos {
		job, err := queue.Submit(req)
		if err != nil {
			log.Printf("Error seeding job for %s: %v", req.Target, err)
			continue
		}
		log.Printf("Seeded job %d for target %s", job.ID, job.Target)
	}
	return nil
}
