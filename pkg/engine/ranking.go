package engine

import (
	"math"
	"sort"
	"time"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

const (
	// Score granted to publishers with no history at all, putting them ahead
	// of anyone assigned in the last ~3 months.
	neverAssignedScore = 100

	// Window and penalty for repeating a part from the same cooldown bucket.
	cooldownDays    = 56
	cooldownPenalty = 500
)

// ScoredCandidate pairs a publisher with its rotation-fairness score.
type ScoredCandidate struct {
	Publisher models.Publisher
	Score     int
}

// RankCandidates orders candidates by rotation priority, highest score first.
// The sort is stable: candidates with equal scores keep their input order, so
// selection stays deterministic for identical inputs.
func RankCandidates(candidates []models.Publisher, part models.MeetingPart, history []models.AssignmentHistory, meetingDate string) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, pub := range candidates {
		scored = append(scored, ScoredCandidate{
			Publisher: pub,
			Score:     calculateScore(pub, part, history, meetingDate),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func calculateScore(pub models.Publisher, part models.MeetingPart, history []models.AssignmentHistory, meetingDate string) int {
	var own []models.AssignmentHistory
	for _, h := range history {
		if h.PublisherID == pub.PublisherID {
			own = append(own, h)
		}
	}

	// Most recent first; ties keep input order.
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Date > own[j].Date
	})

	score := neverAssignedScore
	if len(own) > 0 {
		score = daysBetween(meetingDate, own[0].Date)
	}

	bucket := part.CooldownGroup
	if bucket == "" {
		bucket = part.PartType
	}
	for _, h := range own {
		entryBucket := h.CooldownGroup
		if entryBucket == "" {
			entryBucket = h.PartType
		}
		if entryBucket == bucket && daysBetween(meetingDate, h.Date) <= cooldownDays {
			score -= cooldownPenalty
			break
		}
	}

	return score
}

// daysBetween returns the calendar days from "to" up to "from", rounded up.
// Unparseable dates count as zero days apart.
func daysBetween(from, to string) int {
	a, errA := time.Parse("2006-01-02", from)
	b, errB := time.Parse("2006-01-02", to)
	if errA != nil || errB != nil {
		return 0
	}
	return int(math.Ceil(a.Sub(b).Hours() / 24))
}
