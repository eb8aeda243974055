package study

import (
	"sort"
	"time"

	"github.com/example/ankular/pkg/models"
)

// Streaks holds the daily-study streak counters derived from the score log.
type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// activeDays projects each score's epoch-ms date to a local-midnight day in
// now's location, deduplicates and sorts ascending.
func activeDays(scores []models.TopicScore, now time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(scores))
	var days []time.Time
	for _, s := range scores {
		day := localMidnight(time.UnixMilli(s.Date).In(now.Location()))
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ComputeStreaks walks the deduplicated study days and counts consecutive-day
// runs. A gap of exactly one calendar day extends the current run; any larger
// gap resets it to 1. The current streak reports 0 unless the most recent
// active day is today, since the streak stays broken until today's study
// happens. The longest keeps the historical maximum. An empty log yields zeros.
func ComputeStreaks(scores []models.TopicScore, now time.Time) Streaks {
	days := activeDays(scores, now)
	if len(days) == 0 {
		return Streaks{}
	}

	current, longest := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}

	if !days[len(days)-1].Equal(localMidnight(now)) {
		current = 0
	}
	return Streaks{Current: current, Longest: longest}
}

// WeeklyMask reports, for the Sunday-started week containing now, which of
// the seven days have at least one score entry. An empty log yields an
// all-false mask.
func WeeklyMask(scores []models.TopicScore, now time.Time) [7]bool {
	var mask [7]bool
	days := activeDays(scores, now)
	if len(days) == 0 {
		return mask
	}

	active := make(map[time.Time]bool, len(days))
	for _, d := range days {
		active[d] = true
	}

	today := localMidnight(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	for i := 0; i < 7; i++ {
		mask[i] = active[weekStart.AddDate(0, 0, i)]
	}
	return mask
}

// FilterByTopic returns the scores recorded for a single topic, so per-topic
// streaks share the same algorithm as the global ones.
func FilterByTopic(scores []models.TopicScore, topicID string) []models.TopicScore {
	var out []models.TopicScore
	for _, s := range scores {
		if s.TopicID == topicID {
			out = append(out, s)
		}
	}
	return out
}
