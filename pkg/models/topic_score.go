package models

// TopicScore is one append-only history entry, produced once per completed
// study session. Date is a millisecond epoch timestamp.
type TopicScore struct {
	ID            string  `json:"id" db:"id"`
	TopicID       string  `json:"topic_id" db:"topic_id"`
	Date          int64   `json:"date" db:"date"`
	TotalCards    int     `json:"total_cards" db:"total_cards"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	ScorePercent  float64 `json:"score_percent" db:"score_percent"`
}
