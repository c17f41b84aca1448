package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vmsouza/congregation-scheduler-api/pkg/auth"
	"github.com/vmsouza/congregation-scheduler-api/pkg/database"
	"github.com/vmsouza/congregation-scheduler-api/pkg/handlers"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	// Initialize DB
	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)
	h := handlers.NewHandler(db)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Congregation Meeting Scheduler API (Vercel)",
			"version": "1.2.0",
		})
	})

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)

		admin.PUT("/dataset/publishers", h.ReplacePublishers)
		admin.PUT("/dataset/parts", h.ReplaceParts)
		admin.POST("/dataset/history", h.AppendHistory)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/meetingData", h.MeetingData)
		api.POST("/generateAssignments", h.GenerateAssignments)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)

		api.GET("/assignmentApprovals", h.ListApprovals)
		api.POST("/assignmentApprovals", h.UpsertApproval)
		api.POST("/assignmentApprovals/bulk", h.BulkUpsertApprovals)
	}
}

// Handler is the Vercel serverless entry point
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
