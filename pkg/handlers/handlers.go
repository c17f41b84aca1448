package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vmsouza/congregation-scheduler-api/pkg/auth"
	"github.com/vmsouza/congregation-scheduler-api/pkg/database"
	"github.com/vmsouza/congregation-scheduler-api/pkg/dataset"
	"github.com/vmsouza/congregation-scheduler-api/pkg/engine"
	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Engine  *engine.Engine
	Dataset *dataset.Provider
}

// NewHandler wires a handler with the production engine and dataset provider
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:      db,
		Engine:  engine.New(),
		Dataset: dataset.NewProvider(db),
	}
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for scheduler routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		if len(key) > 7 && key[:7] == "Bearer " {
			key = key[7:]
		}

		userID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      userID,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// GenerateAssignments runs the assignment pipeline over the posted dataset.
// Collections left empty in the payload fall back to the stored dataset, so a
// bare POST regenerates the current week's schedule.
func (h *Handler) GenerateAssignments(c *gin.Context) {
	var input models.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var fallbackWarnings []models.AssignmentWarning
	if len(input.Parts) == 0 || len(input.Publishers) == 0 {
		ds, fellBack, err := h.Dataset.Load()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no dataset available: " + err.Error()})
			return
		}
		if fellBack {
			log.Warn("dataset read failed, generating from last-known-good snapshot")
			fallbackWarnings = append(fallbackWarnings, models.AssignmentWarning{
				Type:    models.WarningAPIFallback,
				Message: "dataset store unreachable; generated from the last loaded snapshot",
			})
		}
		if len(input.Parts) == 0 {
			input.Parts = ds.Parts
		}
		if len(input.Publishers) == 0 {
			input.Publishers = ds.Publishers
		}
		if len(input.History) == 0 {
			input.History = ds.History
		}
		if input.MeetingDate == "" {
			input.MeetingDate = ds.MeetingDate
		}
	}

	if input.MeetingDate == "" && len(input.Parts) > 0 {
		input.MeetingDate = input.Parts[0].Week
	}

	result, err := h.Engine.GenerateWithStart(input.Parts, input.Publishers, input.History, input.MeetingDate, input.MeetingStartTime)
	if err != nil {
		// The only engine error is the missing-duration precondition: a
		// configuration problem in the posted agenda, not a server fault.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.RecordUsage(c, len(input.Parts), len(input.Publishers))

	warnings := make([]models.AssignmentWarning, 0, len(fallbackWarnings)+len(result.Warnings))
	warnings = append(warnings, fallbackWarnings...)
	warnings = append(warnings, result.Warnings...)

	c.JSON(http.StatusOK, models.GenerateResponse{
		Assignments: result.Assignments,
		Warnings:    warnings,
	})
}

// MeetingData serves the dataset snapshot used by schedule editors
func (h *Handler) MeetingData(c *gin.Context) {
	ds, fellBack, err := h.Dataset.Load()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	payload := *ds
	if fellBack {
		log.Warn("dataset read failed, serving last-known-good snapshot")
		payload.Warnings = append(payload.Warnings, models.AssignmentWarning{
			Type:    models.WarningAPIFallback,
			Message: "dataset store unreachable; serving the last loaded snapshot",
		})
	}

	c.JSON(http.StatusOK, payload)
}

// ReplacePublishers swaps the stored publisher pool (admin)
func (h *Handler) ReplacePublishers(c *gin.Context) {
	var publishers []models.Publisher
	if err := c.ShouldBindJSON(&publishers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Dataset.ReplacePublishers(publishers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store publishers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": len(publishers)})
}

// ReplaceParts swaps the stored agenda (admin)
func (h *Handler) ReplaceParts(c *gin.Context) {
	var parts []models.MeetingPart
	if err := c.ShouldBindJSON(&parts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Dataset.ReplaceParts(parts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store meeting parts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": len(parts)})
}

// AppendHistory records past participations for rotation scoring (admin)
func (h *Handler) AppendHistory(c *gin.Context) {
	var entries []models.AssignmentHistory
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Dataset.AppendHistory(entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": len(entries)})
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, partCount, publisherCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	// OnConflict gives a single-query upsert on both Postgres and SQLite
	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":    gorm.Expr("request_count + ?", 1),
			"total_parts":      gorm.Expr("total_parts + ?", partCount),
			"total_publishers": gorm.Expr("total_publishers + ?", publisherCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:           apiKey.ID,
		Date:            today,
		RequestCount:    1,
		TotalParts:      partCount,
		TotalPublishers: publisherCount,
	})
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := auth.GenerateHMACKey(req.Name)

	// Preview shown in key listings (e.g. abc...wxyz)
	preview := "****"
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	}

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview,
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	h.DB.Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage)
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
