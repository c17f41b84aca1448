package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/vmsouza/congregation-scheduler-api/pkg/database"
	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

type approvalUpdate struct {
	AssignmentID      string                `json:"assignmentId"`
	MeetingPartID     string                `json:"meetingPartId"`
	MeetingDate       string                `json:"meetingDate"`
	Status            models.ApprovalStatus `json:"status"`
	ApprovedByElderID string                `json:"approvedByElderId"`
}

func validApprovalStatus(s models.ApprovalStatus) bool {
	switch s {
	case models.StatusDraft, models.StatusPendingApproval, models.StatusApproved, models.StatusRejected:
		return true
	}
	return false
}

// ListApprovals returns stored approval records, optionally filtered by
// meeting date
func (h *Handler) ListApprovals(c *gin.Context) {
	query := h.DB.Order("meeting_date, meeting_part_id")
	if meetingDate := c.Query("meetingDate"); meetingDate != "" {
		query = query.Where("meeting_date = ?", meetingDate)
	}

	var records []database.ApprovalRecord
	if err := query.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch approval records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// UpsertApproval stores one approval decision, replacing any previous record
// for the same meeting date and part
func (h *Handler) UpsertApproval(c *gin.Context) {
	var req approvalUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MeetingPartID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meetingPartId and status are required"})
		return
	}
	if !validApprovalStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + string(req.Status)})
		return
	}

	record, err := h.persistApproval(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist approval"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

// BulkUpsertApprovals stores a batch of decisions for one meeting date
func (h *Handler) BulkUpsertApprovals(c *gin.Context) {
	var req struct {
		MeetingDate string           `json:"meetingDate"`
		Updates     []approvalUpdate `json:"updates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := make([]database.ApprovalRecord, 0, len(req.Updates))
	for _, update := range req.Updates {
		if update.MeetingDate == "" {
			update.MeetingDate = req.MeetingDate
		}
		if update.MeetingPartID == "" || !validApprovalStatus(update.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every update needs meetingPartId and a valid status"})
			return
		}

		record, err := h.persistApproval(update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist approvals"})
			return
		}
		records = append(records, *record)
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) persistApproval(update approvalUpdate) (*database.ApprovalRecord, error) {
	record := database.ApprovalRecord{
		AssignmentID:      update.AssignmentID,
		MeetingPartID:     update.MeetingPartID,
		MeetingDate:       update.MeetingDate,
		Status:            string(update.Status),
		ApprovedByElderID: update.ApprovedByElderID,
	}

	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meeting_part_id"}, {Name: "meeting_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"assignment_id", "status", "approved_by_elder_id", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
