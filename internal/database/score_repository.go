package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/ankular/internal/study"
	"github.com/example/ankular/pkg/models"
)

// LogTopicScore appends one score history entry for a completed session.
// Entries are append-only and never mutated afterwards.
func (s *Store) LogTopicScore(ctx context.Context, topicID string, totalCards int, averageRating, scorePercent float64) error {
	query := s.rebind(`INSERT INTO topic_scores
		(id, topic_id, date, total_cards, average_rating, score_percent)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), topicID, time.Now().UnixMilli(),
		totalCards, averageRating, scorePercent)
	return errors.Wrap(err, "log topic score")
}

// GetTopicScores returns the score log, filtered to one topic when topicID
// is non-empty, oldest first.
func (s *Store) GetTopicScores(ctx context.Context, topicID string) ([]models.TopicScore, error) {
	scores := []models.TopicScore{}
	if topicID == "" {
		query := "SELECT id, topic_id, date, total_cards, average_rating, score_percent FROM topic_scores ORDER BY date"
		if err := s.db.SelectContext(ctx, &scores, query); err != nil {
			return nil, errors.Wrap(err, "get topic scores")
		}
		return scores, nil
	}

	query := s.rebind("SELECT id, topic_id, date, total_cards, average_rating, score_percent FROM topic_scores WHERE topic_id = ? ORDER BY date")
	if err := s.db.SelectContext(ctx, &scores, query, topicID); err != nil {
		return nil, errors.Wrap(err, "get topic scores by topic")
	}
	return scores, nil
}

// GetAverageScorePercent averages the recorded score percent for a topic.
// A topic with no history averages to 0.
func (s *Store) GetAverageScorePercent(ctx context.Context, topicID string) (float64, error) {
	var avg sql.NullFloat64
	query := s.rebind("SELECT AVG(score_percent) FROM topic_scores WHERE topic_id = ?")
	if err := s.db.GetContext(ctx, &avg, query, topicID); err != nil {
		return 0, errors.Wrap(err, "get average score percent")
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// GetGlobalStreaks derives the daily-study streaks across all topics.
func (s *Store) GetGlobalStreaks(ctx context.Context) (study.Streaks, error) {
	scores, err := s.GetTopicScores(ctx, "")
	if err != nil {
		return study.Streaks{}, err
	}
	return study.ComputeStreaks(scores, time.Now()), nil
}

// GetTopicStreaks derives the streaks for a single topic; same algorithm as
// the global variant over a filtered log.
func (s *Store) GetTopicStreaks(ctx context.Context, topicID string) (study.Streaks, error) {
	scores, err := s.GetTopicScores(ctx, topicID)
	if err != nil {
		return study.Streaks{}, err
	}
	return study.ComputeStreaks(scores, time.Now()), nil
}

// GetWeeklyStreak reports which days of the current Sunday-started week have
// at least one score entry.
func (s *Store) GetWeeklyStreak(ctx context.Context) ([7]bool, error) {
	scores, err := s.GetTopicScores(ctx, "")
	if err != nil {
		return [7]bool{}, err
	}
	return study.WeeklyMask(scores, time.Now()), nil
}
