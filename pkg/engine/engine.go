package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// IDGenerator produces identifiers for new assignments. Injected so tests can
// use a deterministic sequence.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production generator.
type UUIDGenerator struct{}

// NewID returns a random v4 UUID.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Result carries one generation run's output.
type Result struct {
	Assignments []models.Assignment
	Warnings    []models.AssignmentWarning
}

// Engine runs the assignment pipeline: filter eligible candidates, rank them
// by rotation fairness, pick the principal and optional helper, derive the
// initial approval status, then lay the schedule out on a clock.
type Engine struct {
	IDs IDGenerator
}

// New returns an engine with random UUID identifiers.
func New() *Engine {
	return &Engine{IDs: UUIDGenerator{}}
}

// Generate builds assignments for every part in input order. A part with no
// eligible principal is skipped with a NO_CANDIDATE warning; a part whose
// helper slot cannot be filled keeps its principal and gets a HELPER_MISSING
// warning. The only fatal condition is a part without a duration, which
// aborts the run before any selection happens.
func (e *Engine) Generate(parts []models.MeetingPart, publishers []models.Publisher, history []models.AssignmentHistory, meetingDate string) (*Result, error) {
	if err := assertPartDurations(parts); err != nil {
		return nil, err
	}
	return e.generate(parts, publishers, history, meetingDate, DefaultMeetingStart)
}

// GenerateWithStart is Generate with an explicit meeting start time ("HH:mm").
func (e *Engine) GenerateWithStart(parts []models.MeetingPart, publishers []models.Publisher, history []models.AssignmentHistory, meetingDate, meetingStartTime string) (*Result, error) {
	if err := assertPartDurations(parts); err != nil {
		return nil, err
	}
	return e.generate(parts, publishers, history, meetingDate, meetingStartTime)
}

func (e *Engine) generate(parts []models.MeetingPart, publishers []models.Publisher, history []models.AssignmentHistory, meetingDate, meetingStartTime string) (*Result, error) {
	assignments := []models.Assignment{}
	warnings := []models.AssignmentWarning{}

	for _, part := range parts {
		principal, found := e.selectBestCandidate(part, publishers, assignments, history, meetingDate, ModePrincipal, "")
		if !found {
			warnings = append(warnings, models.AssignmentWarning{
				Type:          models.WarningNoCandidate,
				MeetingPartID: part.PartID,
				Message:       fmt.Sprintf("no eligible candidate for %q", part.PartType),
			})
			continue
		}

		var secondary string
		if part.RequiresHelper {
			helper, ok := e.selectBestCandidate(part, publishers, assignments, history, meetingDate, ModeHelper, principal.PublisherID)
			if ok {
				secondary = helper.PublisherID
			} else {
				warnings = append(warnings, models.AssignmentWarning{
					Type:          models.WarningHelperMissing,
					MeetingPartID: part.PartID,
					Message:       fmt.Sprintf("no eligible helper for %q", part.PartType),
				})
			}
		}

		status := models.StatusDraft
		if part.RequiresApprovalByElder || principal.ApprovalNeeded {
			status = models.StatusPendingApproval
		}

		assignments = append(assignments, models.Assignment{
			AssignmentID:         e.IDs.NewID(),
			MeetingPartID:        part.PartID,
			PrincipalPublisherID: principal.PublisherID,
			SecondaryPublisherID: secondary,
			ApprovalStatus:       status,
		})
	}

	return &Result{
		Assignments: ComputeTimings(assignments, parts, meetingStartTime),
		Warnings:    warnings,
	}, nil
}

// selectBestCandidate filters, ranks, and takes the top candidate for a role.
// exclude removes one extra publisher up front (the principal, when filling
// the helper slot).
func (e *Engine) selectBestCandidate(part models.MeetingPart, publishers []models.Publisher, current []models.Assignment, history []models.AssignmentHistory, meetingDate string, mode SelectionMode, exclude string) (models.Publisher, bool) {
	eligible := EligibleCandidates(part, publishers, current, mode)

	if exclude != "" {
		kept := eligible[:0]
		for _, pub := range eligible {
			if pub.PublisherID != exclude {
				kept = append(kept, pub)
			}
		}
		eligible = kept
	}

	if len(eligible) == 0 {
		return models.Publisher{}, false
	}

	ranked := RankCandidates(eligible, part, history, meetingDate)
	return ranked[0].Publisher, true
}

func assertPartDurations(parts []models.MeetingPart) error {
	for _, part := range parts {
		if part.Duration == nil {
			return fmt.Errorf("part %q has no duration configured", part.PartType)
		}
	}
	return nil
}
