package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// DefaultMeetingStart is used when the caller does not override the start.
const DefaultMeetingStart = "19:30"

// ComputeTimings fills startTime/endTime on each assignment by walking a
// running clock in input order. Parts that produced no assignment contribute
// no elapsed time. The clock wraps at midnight when formatted.
func ComputeTimings(assignments []models.Assignment, parts []models.MeetingPart, meetingStartTime string) []models.Assignment {
	if meetingStartTime == "" {
		meetingStartTime = DefaultMeetingStart
	}
	clock := clockToMinutes(meetingStartTime)

	partsByID := make(map[string]models.MeetingPart, len(parts))
	for _, p := range parts {
		partsByID[p.PartID] = p
	}

	timed := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		duration := 0
		if part, ok := partsByID[a.MeetingPartID]; ok && part.Duration != nil {
			duration = *part.Duration
		}

		a.StartTime = minutesToClock(clock)
		a.EndTime = minutesToClock(clock + duration)
		clock += duration

		timed = append(timed, a)
	}
	return timed
}

func clockToMinutes(t string) int {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	return hours*60 + minutes
}

func minutesToClock(total int) string {
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60)
}
