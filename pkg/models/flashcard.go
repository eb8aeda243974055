package models

// Flashcard is a single study card belonging to a topic.
//
// NextReviewDate is an RFC 3339 timestamp; the empty string means the card has
// never been studied and counts as maximally overdue. Comparisons always happen
// on the parsed epoch value, never on the string itself.
//
// Options holds up to two distractor variants for multiple-choice display: same
// front, different back. A card never appears in its own Options.
type Flashcard struct {
	ID             string      `json:"id" db:"id"`
	TopicID        string      `json:"topicId" db:"topic_id"`
	Front          string      `json:"front" db:"front"`
	Back           string      `json:"back" db:"back"`
	NextReviewDate string      `json:"nextReviewDate,omitempty" db:"next_review_date"`
	Options        []Flashcard `json:"options,omitempty" db:"-"`

	// Media and notes are opaque to the study engine.
	ImageURL string `json:"imageUrl,omitempty" db:"image_url"`
	AudioURL string `json:"audioUrl,omitempty" db:"audio_url"`
	Notes    string `json:"notes,omitempty" db:"notes"`
}
