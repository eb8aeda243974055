package study

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ankular/pkg/models"
)

func TestNextReviewDateIntervals(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		rating int
		want   string
	}{
		{1, "2024-01-02T00:00:00Z"},
		{2, "2024-01-04T00:00:00Z"},
		{3, "2024-01-07T00:00:00Z"},
		{4, "2024-01-11T00:00:00Z"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NextReviewDate(now, tc.rating), "rating %d", tc.rating)
	}
}

func TestNextReviewDateMonotonic(t *testing.T) {
	now := time.Now()
	var prev int64
	for r := 1; r <= 4; r++ {
		d, err := time.Parse(time.RFC3339, NextReviewDate(now, r))
		require.NoError(t, err)
		assert.Greater(t, d.UnixMilli(), prev, "rating %d must be due later than rating %d", r, r-1)
		prev = d.UnixMilli()
	}
}

func TestApplyRating(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	card := models.Flashcard{ID: "c1", TopicID: "math", Front: "2+2", Back: "4"}

	next, err := ApplyRating(&card, 3, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07T00:00:00Z", next)
	assert.Equal(t, next, card.NextReviewDate)
}

func TestApplyRatingInvalid(t *testing.T) {
	now := time.Now()
	card := models.Flashcard{ID: "c1", TopicID: "math"}

	for _, r := range []int{0, 5, -1, 42} {
		_, err := ApplyRating(&card, r, now)
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", r)
	}
	assert.Empty(t, card.NextReviewDate)
}

func TestApplyRatingMalformedCard(t *testing.T) {
	now := time.Now()

	noID := models.Flashcard{TopicID: "math"}
	_, err := ApplyRating(&noID, 3, now)
	assert.ErrorIs(t, err, ErrMalformedCard)
	assert.Empty(t, noID.NextReviewDate)

	noTopic := models.Flashcard{ID: "c1"}
	_, err = ApplyRating(&noTopic, 3, now)
	assert.ErrorIs(t, err, ErrMalformedCard)
}

func TestReviewEpoch(t *testing.T) {
	assert.EqualValues(t, 0, reviewEpoch(models.Flashcard{}), "never studied counts as most overdue")
	assert.EqualValues(t, 0, reviewEpoch(models.Flashcard{NextReviewDate: "garbage"}))

	card := models.Flashcard{NextReviewDate: "2024-01-01T00:00:00Z"}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, reviewEpoch(card))
}

func TestFeedback(t *testing.T) {
	for r := 1; r <= 4; r++ {
		assert.NotEmpty(t, Feedback(r))
	}
	assert.Empty(t, Feedback(0))
}

func TestFinalMessageTiers(t *testing.T) {
	excellent := FinalMessage(95)
	encouraging := FinalMessage(75)
	practice := FinalMessage(50)

	assert.NotEqual(t, excellent, encouraging)
	assert.NotEqual(t, encouraging, practice)

	// Boundary values select the higher tier.
	assert.Equal(t, excellent, FinalMessage(90))
	assert.Equal(t, encouraging, FinalMessage(70))
	assert.Equal(t, practice, FinalMessage(69.99))
}
