package database

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ApprovalRecord represents the assignment_approvals table. One row per
// (meeting date, part); upserts replace the previous decision.
type ApprovalRecord struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	AssignmentID      string    `json:"assignmentId,omitempty"`
	MeetingPartID     string    `gorm:"uniqueIndex:idx_date_part;not null" json:"meetingPartId"`
	MeetingDate       string    `gorm:"uniqueIndex:idx_date_part;not null" json:"meetingDate"`
	Status            string    `gorm:"not null" json:"status"`
	ApprovedByElderID string    `json:"approvedByElderId,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	KeyID           uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date            string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount    int    `gorm:"default:0" json:"request_count"`
	TotalParts      int    `gorm:"default:0" json:"total_parts"`
	TotalPublishers int    `gorm:"default:0" json:"total_publishers"`
}

// MasterUser represents the master_users table (elder/admin logins)
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublisherRecord represents the publishers table (dataset rows; list-valued
// fields are stored JSON-encoded, see pkg/dataset)
type PublisherRecord struct {
	PublisherID               string `gorm:"primaryKey" json:"publisherId"`
	Name                      string `gorm:"not null" json:"name"`
	Gender                    string `json:"gender"`
	Privileges                string `json:"privileges"`
	AuthorityLevel            string `json:"authorityLevel"`
	IsApprovedForTreasures    bool   `json:"isApprovedForTreasures"`
	IsApprovedForEBCDirigente bool   `json:"isApprovedForEbcDirigente"`
	IsApprovedForEBCLeitor    bool   `json:"isApprovedForEbcLeitor"`
	ApprovalNeeded            bool   `json:"approvalNeeded"`
	CanBeHelper               bool   `json:"canBeHelper"`
	UnavailableWeeks          string `json:"unavailableWeeks"`
}

// MeetingPartRecord represents the meeting_parts table
type MeetingPartRecord struct {
	PartID                  string `gorm:"primaryKey" json:"partId"`
	Week                    string `gorm:"index;not null" json:"week"`
	Position                int    `gorm:"default:0" json:"position"`
	PartType                string `gorm:"not null" json:"partType"`
	Section                 string `json:"section"`
	SpecialTag              string `json:"specialTag"`
	TeachingCategory        string `json:"teachingCategory"`
	RequiredPrivileges      string `json:"requiredPrivileges"`
	RequiredGender          string `json:"requiredGender"`
	RequiresHelper          bool   `json:"requiresHelper"`
	HelperRequirements      string `json:"helperRequirements"`
	RequiresApprovalByElder bool   `json:"requiresApprovalByElder"`
	AllowsPendingApproval   *bool  `json:"allowsPendingApproval"`
	Duration                *int   `json:"duration"`
	CooldownGroup           string `json:"cooldownGroup"`
}

// HistoryRecord represents the assignment_history table
type HistoryRecord struct {
	HistoryID      string `gorm:"primaryKey" json:"historyId"`
	PublisherID    string `gorm:"index;not null" json:"publisherId"`
	Date           string `gorm:"index;not null" json:"date"`
	AssignmentType string `json:"assignmentType"`
	PartType       string `json:"partType"`
	CooldownGroup  string `json:"cooldownGroup"`
}

// InitDB initializes the database connection and migrates the schema.
// Postgres when DATABASE_URL is set, otherwise a local sqlite file.
func InitDB() *gorm.DB {
	var db *gorm.DB
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := os.Getenv("DATA_PATH")
		if dbPath == "" {
			dbPath = "scheduler.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto Migration
	db.AutoMigrate(
		&ApprovalRecord{},
		&APIKey{},
		&APIUsage{},
		&MasterUser{},
		&PublisherRecord{},
		&MeetingPartRecord{},
		&HistoryRecord{},
	)

	return db
}
