package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// ValidateInput checks a generation payload for the structural problems that
// would abort or degrade a run, without running the pipeline
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Publishers) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one publisher is required",
		})
		return
	}

	if len(input.Parts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one meeting part is required",
		})
		return
	}

	// Check for duplicate IDs
	pubIDs := make(map[string]bool)
	for _, p := range input.Publishers {
		if pubIDs[p.PublisherID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate publisher ID: " + p.PublisherID})
			return
		}
		pubIDs[p.PublisherID] = true
	}

	partIDs := make(map[string]bool)
	for _, p := range input.Parts {
		if partIDs[p.PartID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate part ID: " + p.PartID})
			return
		}
		partIDs[p.PartID] = true

		// A missing duration is fatal at generation time, flag it here
		if p.Duration == nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Part without duration: " + p.PartID})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"publisher_count": len(input.Publishers),
			"part_count":      len(input.Parts),
			"history_count":   len(input.History),
		},
	})
}
