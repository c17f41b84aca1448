package models

// Gender restricts who may take a part. OTHER acts as a wildcard.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "OTHER"
)

// AuthorityLevel is the publisher's access-control tier. The assignment
// pipeline never reads it; it is carried for the admin layer.
type AuthorityLevel string

const (
	AuthorityElder     AuthorityLevel = "ELDER"
	AuthoritySM        AuthorityLevel = "SM"
	AuthorityPublisher AuthorityLevel = "PUBLISHER"
)

// TeachingCategory weights a part for rotation purposes.
type TeachingCategory string

const (
	CategoryTeaching TeachingCategory = "TEACHING"
	CategoryStudent  TeachingCategory = "STUDENT"
	CategoryHelper   TeachingCategory = "HELPER"
)

// ApprovalStatus tracks an assignment through elder review. The engine only
// ever produces DRAFT and PENDING_APPROVAL; the other two are set downstream.
type ApprovalStatus string

const (
	StatusDraft           ApprovalStatus = "DRAFT"
	StatusPendingApproval ApprovalStatus = "PENDING_APPROVAL"
	StatusApproved        ApprovalStatus = "APPROVED"
	StatusRejected        ApprovalStatus = "REJECTED"
)

// SpecialTag marks the congregation Bible study sub-roles that carry their
// own approvals.
type SpecialTag string

const (
	TagEBCDirigente SpecialTag = "EBC_DIRIGENTE"
	TagEBCLeitor    SpecialTag = "EBC_LEITOR"
)

// WarningType classifies the diagnostics emitted while generating a schedule.
type WarningType string

const (
	WarningNoCandidate   WarningType = "NO_CANDIDATE"
	WarningHelperMissing WarningType = "HELPER_MISSING"
	WarningAPIFallback   WarningType = "API_FALLBACK"
)

// Publisher represents a person available for meeting parts
type Publisher struct {
	PublisherID               string         `json:"publisherId"`
	Name                      string         `json:"name"`
	Gender                    Gender         `json:"gender"`
	Privileges                []string       `json:"privileges"`
	AuthorityLevel            AuthorityLevel `json:"authorityLevel"`
	IsApprovedForTreasures    bool           `json:"isApprovedForTreasures"`
	IsApprovedForEBCDirigente bool           `json:"isApprovedForEBC_Dirigente"`
	IsApprovedForEBCLeitor    bool           `json:"isApprovedForEBC_Leitor"`
	ApprovalNeeded            bool           `json:"approvalNeeded"`
	CanBeHelper               bool           `json:"canBeHelper"`
	UnavailableWeeks          []string       `json:"unavailableWeeks"`
}

// HelperRequirements overrides gender/privilege constraints for the helper
// role of a part. Unset fields fall through to the part's own requirements.
type HelperRequirements struct {
	RequiredGender     *Gender  `json:"requiredGender,omitempty"`
	RequiredPrivileges []string `json:"requiredPrivileges,omitempty"`
}

// MeetingPart represents an agenda slot that needs filling
type MeetingPart struct {
	PartID                  string              `json:"partId"`
	Week                    string              `json:"week"`
	PartType                string              `json:"partType"`
	Section                 string              `json:"section,omitempty"`
	SpecialTag              SpecialTag          `json:"specialTag,omitempty"`
	TeachingCategory        TeachingCategory    `json:"teachingCategory"`
	RequiredPrivileges      []string            `json:"requiredPrivileges"`
	RequiredGender          Gender              `json:"requiredGender"`
	RequiresHelper          bool                `json:"requiresHelper"`
	HelperRequirements      *HelperRequirements `json:"helperRequirements,omitempty"`
	RequiresApprovalByElder bool                `json:"requiresApprovalByElder"`
	// nil means permissive; only an explicit false blocks approval-needed
	// publishers from the part.
	AllowsPendingApproval *bool `json:"allowsPendingApproval,omitempty"`
	// Duration is mandatory for generation; a nil value aborts the run.
	Duration      *int   `json:"duration,omitempty"`
	CooldownGroup string `json:"cooldownGroup,omitempty"`
}

// AssignmentHistory is a past participation record used for rotation scoring
type AssignmentHistory struct {
	HistoryID      string           `json:"historyId"`
	PublisherID    string           `json:"publisherId"`
	Date           string           `json:"date"`
	AssignmentType TeachingCategory `json:"assignmentType"`
	PartType       string           `json:"partType"`
	CooldownGroup  string           `json:"cooldownGroup,omitempty"`
}

// Assignment pairs a part with its selected publishers
type Assignment struct {
	AssignmentID         string         `json:"assignmentId"`
	MeetingPartID        string         `json:"meetingPartId"`
	PrincipalPublisherID string         `json:"principalPublisherId"`
	SecondaryPublisherID string         `json:"secondaryPublisherId,omitempty"`
	ApprovalStatus       ApprovalStatus `json:"approvalStatus"`
	ApprovedByElderID    string         `json:"approvedByElderId,omitempty"`
	StartTime            string         `json:"startTime,omitempty"`
	EndTime              string         `json:"endTime,omitempty"`
}

// AssignmentWarning is a non-fatal diagnostic attached to a generation run
type AssignmentWarning struct {
	Type          WarningType `json:"type"`
	MeetingPartID string      `json:"meetingPartId,omitempty"`
	Message       string      `json:"message"`
}

// GenerateInput is the payload for the generation endpoint. Collections left
// empty fall back to the stored dataset.
type GenerateInput struct {
	Parts            []MeetingPart       `json:"parts"`
	Publishers       []Publisher         `json:"publishers"`
	History          []AssignmentHistory `json:"history"`
	MeetingDate      string              `json:"meetingDate"`
	MeetingStartTime string              `json:"meetingStartTime,omitempty"`
}

// GenerateResponse is the generation endpoint's result
type GenerateResponse struct {
	Assignments []Assignment        `json:"assignments"`
	Warnings    []AssignmentWarning `json:"warnings"`
}

// MeetingDataset is the snapshot served to schedule editors
type MeetingDataset struct {
	MeetingDate string              `json:"meetingDate"`
	Parts       []MeetingPart       `json:"parts"`
	Publishers  []Publisher         `json:"publishers"`
	History     []AssignmentHistory `json:"history"`
	Warnings    []AssignmentWarning `json:"warnings,omitempty"`
}
