package study

import (
	"time"

	"github.com/example/ankular/pkg/models"
)

// Review intervals are a fixed lookup by rating, not an adaptive schedule:
// the four ratings map to 1, 3, 6 and 10 days.
var reviewIntervals = map[int]int{
	1: 1,
	2: 3,
	3: 6,
	4: 10,
}

const dayMillis = 86_400_000

// ValidRating reports whether r is one of the four accepted ratings.
func ValidRating(r int) bool {
	_, ok := reviewIntervals[r]
	return ok
}

// NextReviewDate computes the due date for a card rated r at time now:
// now plus the fixed interval for that rating, serialized as RFC 3339 UTC.
func NextReviewDate(now time.Time, r int) string {
	days := reviewIntervals[r]
	next := time.UnixMilli(now.UnixMilli() + int64(days)*dayMillis)
	return next.UTC().Format(time.RFC3339)
}

// ApplyRating validates the rating and the card, stamps the card's next
// review date and returns it. The card is mutated in place so the active
// session sees the new due date immediately; persistence is the caller's job.
func ApplyRating(card *models.Flashcard, r int, now time.Time) (string, error) {
	if !ValidRating(r) {
		return "", ErrInvalidRating
	}
	if card == nil || card.ID == "" || card.TopicID == "" {
		return "", ErrMalformedCard
	}
	next := NextReviewDate(now, r)
	card.NextReviewDate = next
	return next, nil
}

// reviewEpoch returns the card's due date as a millisecond epoch for
// comparisons. An absent or unparseable date counts as maximally overdue.
func reviewEpoch(card models.Flashcard) int64 {
	if card.NextReviewDate == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, card.NextReviewDate)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// IsDue reports whether the card is due for review at time now. Cards that
// were never studied are always due.
func IsDue(card models.Flashcard, now time.Time) bool {
	return reviewEpoch(card) <= now.UnixMilli()
}

// Feedback returns the transient per-rating message shown after each answer.
// It is purely presentational and never persisted.
func Feedback(r int) string {
	switch r {
	case 1:
		return "You'll get it next time!"
	case 2:
		return "Keep it up!"
	case 3:
		return "Great job!"
	case 4:
		return "Perfect recall!"
	}
	return ""
}

// FinalMessage picks the end-of-session message tier from the score percent:
// 90 and up is the excellent tier, 70 and up encouraging, anything below that
// the practice tier.
func FinalMessage(scorePercent float64) string {
	switch {
	case scorePercent >= 90:
		return "Excellent work! You really know your stuff."
	case scorePercent >= 70:
		return "Nice job! Keep reviewing for mastery."
	default:
		return "Keep practicing, you're improving every time!"
	}
}
