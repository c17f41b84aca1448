package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// seqIDs hands out predictable identifiers so test output is stable
type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("assg-%d", s.n)
}

func newTestEngine() *Engine {
	return &Engine{IDs: &seqIDs{}}
}

func TestGenerate_OneAssignmentPerFillablePart(t *testing.T) {
	pubs := []models.Publisher{basePublisher("pub-1"), basePublisher("pub-2")}
	parts := []models.MeetingPart{basePart("part-1"), basePart("part-2")}

	result, err := newTestEngine().Generate(parts, pubs, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(result.Assignments))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	for i, a := range result.Assignments {
		if a.MeetingPartID != parts[i].PartID {
			t.Errorf("Expected assignment %d for %s, got %s", i, parts[i].PartID, a.MeetingPartID)
		}
		if a.AssignmentID == "" {
			t.Errorf("Expected a generated assignment id")
		}
	}
}

func TestGenerate_NoPublisherAssignedTwice(t *testing.T) {
	pubs := []models.Publisher{basePublisher("pub-1"), basePublisher("pub-2"), basePublisher("pub-3")}

	var parts []models.MeetingPart
	for i := 1; i <= 3; i++ {
		part := basePart(fmt.Sprintf("part-%d", i))
		parts = append(parts, part)
	}
	parts[0].RequiresHelper = true

	result, err := newTestEngine().Generate(parts, pubs, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, a := range result.Assignments {
		if seen[a.PrincipalPublisherID] {
			t.Errorf("Publisher %s assigned twice", a.PrincipalPublisherID)
		}
		seen[a.PrincipalPublisherID] = true

		if a.SecondaryPublisherID != "" {
			if seen[a.SecondaryPublisherID] {
				t.Errorf("Publisher %s assigned twice", a.SecondaryPublisherID)
			}
			seen[a.SecondaryPublisherID] = true

			if a.SecondaryPublisherID == a.PrincipalPublisherID {
				t.Errorf("Helper equals principal on %s", a.MeetingPartID)
			}
		}
	}
}

func TestGenerate_NoCandidateSkipsPartWithWarning(t *testing.T) {
	male := basePublisher("pub-m")

	partF := basePart("part-f")
	partF.RequiredGender = models.GenderFemale
	partOK := basePart("part-ok")

	result, err := newTestEngine().Generate([]models.MeetingPart{partF, partOK}, []models.Publisher{male}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Assignments) != 1 || result.Assignments[0].MeetingPartID != "part-ok" {
		t.Fatalf("Expected only part-ok filled, got %+v", result.Assignments)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Expected one warning, got %v", result.Warnings)
	}
	w := result.Warnings[0]
	if w.Type != models.WarningNoCandidate || w.MeetingPartID != "part-f" {
		t.Errorf("Expected NO_CANDIDATE for part-f, got %+v", w)
	}

	// The skipped part contributes no elapsed time
	if result.Assignments[0].StartTime != DefaultMeetingStart {
		t.Errorf("Expected part-ok to start at %s, got %s", DefaultMeetingStart, result.Assignments[0].StartTime)
	}
}

func TestGenerate_HelperMissingKeepsPrincipal(t *testing.T) {
	solo := basePublisher("pub-solo")
	solo.CanBeHelper = false

	part := basePart("part-1")
	part.RequiresHelper = true

	result, err := newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{solo}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Assignments) != 1 {
		t.Fatalf("Expected one assignment, got %d", len(result.Assignments))
	}
	a := result.Assignments[0]
	if a.PrincipalPublisherID != "pub-solo" || a.SecondaryPublisherID != "" {
		t.Errorf("Expected principal-only assignment, got %+v", a)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Type != models.WarningHelperMissing {
		t.Errorf("Expected HELPER_MISSING warning, got %v", result.Warnings)
	}
}

func TestGenerate_ApprovalStatusDerivation(t *testing.T) {
	watched := basePublisher("pub-watched")
	watched.ApprovalNeeded = true

	part := basePart("part-1")

	// Principal under observation -> PENDING_APPROVAL
	result, err := newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{watched}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Assignments[0].ApprovalStatus != models.StatusPendingApproval {
		t.Errorf("Expected PENDING_APPROVAL, got %s", result.Assignments[0].ApprovalStatus)
	}

	// Part requiring elder review -> PENDING_APPROVAL even for a clear publisher
	clear := basePublisher("pub-clear")
	part.RequiresApprovalByElder = true
	result, err = newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{clear}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Assignments[0].ApprovalStatus != models.StatusPendingApproval {
		t.Errorf("Expected PENDING_APPROVAL, got %s", result.Assignments[0].ApprovalStatus)
	}

	// Neither flag -> DRAFT
	part.RequiresApprovalByElder = false
	result, err = newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{clear}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Assignments[0].ApprovalStatus != models.StatusDraft {
		t.Errorf("Expected DRAFT, got %s", result.Assignments[0].ApprovalStatus)
	}
	if result.Assignments[0].ApprovedByElderID != "" {
		t.Errorf("Engine must never set the approving elder")
	}
}

func TestGenerate_HelperApprovalFlagIgnoredForStatus(t *testing.T) {
	principal := basePublisher("pub-principal")
	principal.CanBeHelper = false

	watchedHelper := basePublisher("pub-helper")
	watchedHelper.ApprovalNeeded = true

	part := basePart("part-1")
	part.RequiresHelper = true

	result, err := newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{principal, watchedHelper}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	a := result.Assignments[0]
	if a.PrincipalPublisherID != "pub-principal" || a.SecondaryPublisherID != "pub-helper" {
		t.Fatalf("Unexpected selection: %+v", a)
	}
	if a.ApprovalStatus != models.StatusDraft {
		t.Errorf("Helper's approvalNeeded must not affect status, got %s", a.ApprovalStatus)
	}
}

func TestGenerate_TreasuresScenario(t *testing.T) {
	elder := basePublisher("pub-elder")
	elder.Privileges = []string{"ANCIÃO"}
	elder.IsApprovedForTreasures = true

	nonElder := basePublisher("pub-regular")

	part := basePart("part-1")
	part.PartType = "Discurso Tesouros"
	part.Section = "TESOUROS"
	part.TeachingCategory = models.CategoryTeaching
	part.RequiredPrivileges = []string{"ANCIÃO"}
	part.RequiredGender = models.GenderMale

	result, err := newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{nonElder, elder}, nil, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Assignments) != 1 {
		t.Fatalf("Expected one assignment, got %d", len(result.Assignments))
	}
	a := result.Assignments[0]
	if a.PrincipalPublisherID != "pub-elder" {
		t.Errorf("Expected the elder, got %s", a.PrincipalPublisherID)
	}
	if a.ApprovalStatus != models.StatusDraft {
		t.Errorf("Expected DRAFT with no approval flags, got %s", a.ApprovalStatus)
	}
}

func TestGenerate_MissingDurationIsFatal(t *testing.T) {
	good := basePart("part-good")
	bad := basePart("part-bad")
	bad.PartType = "Parte sem duração"
	bad.Duration = nil

	result, err := newTestEngine().Generate([]models.MeetingPart{good, bad}, []models.Publisher{basePublisher("pub-1")}, nil, "2025-12-01")
	if err == nil {
		t.Fatalf("Expected an error for the missing duration")
	}
	if result != nil {
		t.Errorf("Expected no partial result, got %+v", result)
	}
	if !strings.Contains(err.Error(), "Parte sem duração") {
		t.Errorf("Expected the part name in the error, got %q", err.Error())
	}
}

func TestGenerate_RotationPrefersLeastRecent(t *testing.T) {
	recent := basePublisher("pub-recent")
	rested := basePublisher("pub-rested")

	history := []models.AssignmentHistory{
		{HistoryID: "h1", PublisherID: "pub-recent", Date: "2025-11-28", AssignmentType: models.CategoryStudent, PartType: "Outra Parte"},
		{HistoryID: "h2", PublisherID: "pub-rested", Date: "2025-09-01", AssignmentType: models.CategoryStudent, PartType: "Outra Parte"},
	}

	part := basePart("part-1")
	result, err := newTestEngine().Generate([]models.MeetingPart{part}, []models.Publisher{recent, rested}, history, "2025-12-01")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Assignments[0].PrincipalPublisherID != "pub-rested" {
		t.Errorf("Expected the longer-rested publisher, got %s", result.Assignments[0].PrincipalPublisherID)
	}
}

func TestGenerate_TimingsAreGapFree(t *testing.T) {
	pubs := []models.Publisher{
		basePublisher("pub-1"), basePublisher("pub-2"), basePublisher("pub-3"),
	}
	parts := []models.MeetingPart{
		timedPart("part-1", 10),
		timedPart("part-2", 5),
		timedPart("part-3", 15),
	}

	result, err := newTestEngine().GenerateWithStart(parts, pubs, nil, "2025-12-01", "19:30")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Assignments[0].StartTime != "19:30" {
		t.Errorf("Expected first slot at 19:30, got %s", result.Assignments[0].StartTime)
	}
	for i := 1; i < len(result.Assignments); i++ {
		prev, curr := result.Assignments[i-1], result.Assignments[i]
		if prev.EndTime != curr.StartTime {
			t.Errorf("Gap between %s and %s: %s != %s", prev.MeetingPartID, curr.MeetingPartID, prev.EndTime, curr.StartTime)
		}
	}
	if last := result.Assignments[2]; last.EndTime != "20:00" {
		t.Errorf("Expected meeting to end 20:00, got %s", last.EndTime)
	}
}
