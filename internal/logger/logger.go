package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// Initialize sets up the logger with proper configuration
func Initialize() {
	Logger = logrus.New()

	// Set log level based on environment
	logLevel := os.Getenv("LOG_LEVEL")
	var level logrus.Level
	switch logLevel {
	case "DEBUG":
		level = logrus.DebugLevel
	case "INFO":
		level = logrus.InfoLevel
	case "WARN":
		level = logrus.WarnLevel
	case "ERROR":
		level = logrus.ErrorLevel
	default:
		level = logrus.InfoLevel
	}

	Logger.SetLevel(level)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})

	// Application logs go to a file when LOG_DIR is set, stdout otherwise
	logsDir := os.Getenv("LOG_DIR")
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			fmt.Printf("Failed to create logs directory: %v\n", err)
			return
		}
		logFile, err := os.OpenFile(
			fmt.Sprintf("%s/staffval.log", logsDir),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0666,
		)
		if err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
			return
		}
		Logger.SetOutput(logFile)
	}

	Logger.WithFields(logrus.Fields{
		"log_level": level.String(),
	}).Info("Logging system initialized")
}

// GetLogger returns the configured logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Initialize()
	}
	return Logger
}

// WithContext creates a logger with additional context fields
func WithContext(fields map[string]interface{}) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithJob creates a logger with job context for the named component
func WithJob(jobID uint, jobType, component string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"job_id":    jobID,
		"job_type":  jobType,
		"component": component,
	})
}

// WithEngine creates a logger with calculation engine context
func WithEngine(jobID uint, engine string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"job_id":    jobID,
		"engine":    engine,
		"component": "executor",
	})
}

// WithTracker creates a logger with accuracy tracker context
func WithTracker(businessUnit, metricType string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"business_unit": businessUnit,
		"metric_type":   metricType,
		"component":     "accuracy_tracker",
	})
}

// Log levels convenience functions (with fields)
func Debug(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	GetLogger().WithFields(fields).Fatal(msg)
}
