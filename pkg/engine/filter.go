package engine

import (
	"strings"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// SelectionMode distinguishes the role being filled
type SelectionMode string

const (
	ModePrincipal SelectionMode = "principal"
	ModeHelper    SelectionMode = "helper"
)

// EligibleCandidates returns the publishers that satisfy every hard rule for
// a part. The current slice holds the assignments already created in this run
// so the same publisher is never picked twice for one meeting. An empty
// result is a normal outcome signaled upward by the caller.
func EligibleCandidates(part models.MeetingPart, publishers []models.Publisher, current []models.Assignment, mode SelectionMode) []models.Publisher {
	requiredGender := part.RequiredGender
	requiredPrivileges := part.RequiredPrivileges
	if mode == ModeHelper && part.HelperRequirements != nil {
		if part.HelperRequirements.RequiredGender != nil {
			requiredGender = *part.HelperRequirements.RequiredGender
		}
		if part.HelperRequirements.RequiredPrivileges != nil {
			requiredPrivileges = part.HelperRequirements.RequiredPrivileges
		}
	}

	var eligible []models.Publisher
	for _, pub := range publishers {
		if isUnavailable(pub, part.Week) {
			continue
		}
		if hasWrongGender(pub, requiredGender) {
			continue
		}
		if !hasRequiredPrivileges(pub, part, requiredPrivileges) {
			continue
		}
		if isApprovalBlocked(pub, part) {
			continue
		}
		if mode == ModeHelper && !pub.CanBeHelper {
			continue
		}
		if isAlreadyAssigned(pub, current) {
			continue
		}
		eligible = append(eligible, pub)
	}
	return eligible
}

func isUnavailable(pub models.Publisher, week string) bool {
	for _, w := range pub.UnavailableWeeks {
		if w == week {
			return true
		}
	}
	return false
}

func hasWrongGender(pub models.Publisher, required models.Gender) bool {
	if required == models.GenderOther {
		return false
	}
	return pub.Gender != required
}

// hasRequiredPrivileges checks the privilege gate plus the category-specific
// approvals (treasures teaching, congregation-study roles).
func hasRequiredPrivileges(pub models.Publisher, part models.MeetingPart, required []string) bool {
	if len(required) > 0 && !holdsAny(pub, required) {
		return false
	}

	if part.TeachingCategory == models.CategoryTeaching && part.Section == "TESOUROS" {
		if !pub.IsApprovedForTreasures {
			return false
		}
	}

	switch part.SpecialTag {
	case models.TagEBCLeitor:
		if !pub.IsApprovedForEBCLeitor {
			return false
		}
	case models.TagEBCDirigente:
		if !pub.IsApprovedForEBCDirigente {
			return false
		}
	default:
		if looksLikeCongregationStudy(part) {
			title := strings.ToLower(part.PartType)
			if strings.Contains(title, "leitor") {
				if !pub.IsApprovedForEBCLeitor {
					return false
				}
			} else if strings.Contains(title, "estudo") || strings.Contains(title, "ebc") {
				if !pub.IsApprovedForEBCDirigente {
					return false
				}
			}
		}
	}

	return true
}

func holdsAny(pub models.Publisher, required []string) bool {
	for _, req := range required {
		for _, priv := range pub.Privileges {
			if priv == req {
				return true
			}
		}
	}
	return false
}

// looksLikeCongregationStudy is a legacy fallback for parts imported without
// an explicit SpecialTag. It matches the Portuguese titles the original data
// carries; differently-localized titles won't trigger it and must rely on the
// tag. Delete once every part declares its tag.
func looksLikeCongregationStudy(part models.MeetingPart) bool {
	title := strings.ToLower(part.PartType)
	return part.Section == "VIDA_CRISTA" ||
		strings.Contains(title, "estudo bíblico") ||
		strings.Contains(title, "ebc")
}

func isApprovalBlocked(pub models.Publisher, part models.MeetingPart) bool {
	return pub.ApprovalNeeded && part.AllowsPendingApproval != nil && !*part.AllowsPendingApproval
}

func isAlreadyAssigned(pub models.Publisher, current []models.Assignment) bool {
	for _, a := range current {
		if a.PrincipalPublisherID == pub.PublisherID || a.SecondaryPublisherID == pub.PublisherID {
			return true
		}
	}
	return false
}
