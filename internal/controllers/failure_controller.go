package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/staffval/backend/internal/services"
	"gorm.io/gorm"
)

type FailureController struct {
	failures *services.FailureService
}

func NewFailureController(failures *services.FailureService) *FailureController {
	return &FailureController{failures: failures}
}

// ListActive returns open failure patterns ranked by severity.
func (fc *FailureController) ListActive(c *gin.Context) {
	patterns, err := fc.failures.ActivePatterns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list failure patterns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns, "count": len(patterns)})
}

// Resolve marks a failure pattern as resolved.
func (fc *FailureController) Resolve(c *gin.Context) {
	patternID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pattern ID"})
		return
	}

	if err := fc.failures.Resolve(patternID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pattern not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve pattern"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
