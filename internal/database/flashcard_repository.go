package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/ankular/pkg/models"
)

// flashcardRow is the flat table shape; Options travels as a JSON column.
type flashcardRow struct {
	ID             string `db:"id"`
	TopicID        string `db:"topic_id"`
	Front          string `db:"front"`
	Back           string `db:"back"`
	NextReviewDate string `db:"next_review_date"`
	Options        string `db:"options"`
	ImageURL       string `db:"image_url"`
	AudioURL       string `db:"audio_url"`
	Notes          string `db:"notes"`
}

const flashcardColumns = "id, topic_id, front, back, next_review_date, options, image_url, audio_url, notes"

func (r flashcardRow) toModel() (models.Flashcard, error) {
	card := models.Flashcard{
		ID:             r.ID,
		TopicID:        r.TopicID,
		Front:          r.Front,
		Back:           r.Back,
		NextReviewDate: r.NextReviewDate,
		ImageURL:       r.ImageURL,
		AudioURL:       r.AudioURL,
		Notes:          r.Notes,
	}
	if r.Options != "" && r.Options != "[]" {
		if err := json.Unmarshal([]byte(r.Options), &card.Options); err != nil {
			return card, errors.Wrapf(err, "decode options for card %s", r.ID)
		}
	}
	return card, nil
}

func rowFromModel(card models.Flashcard) (flashcardRow, error) {
	opts := "[]"
	if len(card.Options) > 0 {
		raw, err := json.Marshal(card.Options)
		if err != nil {
			return flashcardRow{}, errors.Wrapf(err, "encode options for card %s", card.ID)
		}
		opts = string(raw)
	}
	return flashcardRow{
		ID:             card.ID,
		TopicID:        card.TopicID,
		Front:          card.Front,
		Back:           card.Back,
		NextReviewDate: card.NextReviewDate,
		Options:        opts,
		ImageURL:       card.ImageURL,
		AudioURL:       card.AudioURL,
		Notes:          card.Notes,
	}, nil
}

func rowsToModels(rows []flashcardRow) ([]models.Flashcard, error) {
	cards := make([]models.Flashcard, 0, len(rows))
	for _, r := range rows {
		card, err := r.toModel()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// GetFlashcards returns all cards, or only the cards directly tagged with
// topicID when it is non-empty (no descendant expansion).
func (s *Store) GetFlashcards(ctx context.Context, topicID string) ([]models.Flashcard, error) {
	var rows []flashcardRow
	if topicID == "" {
		query := "SELECT " + flashcardColumns + " FROM flashcards ORDER BY created_at"
		if err := s.db.SelectContext(ctx, &rows, query); err != nil {
			return nil, errors.Wrap(err, "get flashcards")
		}
	} else {
		query := s.rebind("SELECT " + flashcardColumns + " FROM flashcards WHERE topic_id = ? ORDER BY created_at")
		if err := s.db.SelectContext(ctx, &rows, query, topicID); err != nil {
			return nil, errors.Wrap(err, "get flashcards by topic")
		}
	}
	return rowsToModels(rows)
}

// GetFlashcardsForTopic returns every card in the topic's subtree: the topic
// itself plus all transitive descendants.
func (s *Store) GetFlashcardsForTopic(ctx context.Context, topicID string) ([]models.Flashcard, error) {
	ix, err := s.TopicIndex(ctx)
	if err != nil {
		return nil, err
	}
	ids := ix.DescendantIDs(topicID)

	query, args, err := sqlx.In("SELECT "+flashcardColumns+" FROM flashcards WHERE topic_id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "build subtree query")
	}
	var rows []flashcardRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "get flashcards for topic subtree")
	}
	return rowsToModels(rows)
}

// AddFlashcard inserts a card, assigning an id when the caller left it empty.
// The stored card is returned.
func (s *Store) AddFlashcard(ctx context.Context, card models.Flashcard) (models.Flashcard, error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	row, err := rowFromModel(card)
	if err != nil {
		return card, err
	}

	query := s.rebind(`INSERT INTO flashcards
		(id, topic_id, front, back, next_review_date, options, image_url, audio_url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		row.ID, row.TopicID, row.Front, row.Back, row.NextReviewDate,
		row.Options, row.ImageURL, row.AudioURL, row.Notes)
	if err != nil {
		return card, errors.Wrap(err, "add flashcard")
	}
	return card, nil
}

// UpdateFlashcard overwrites a card by id. The review scheduler calls this
// synchronously on every rating, so a card's new due date is durable before
// it could ever be reselected into another session.
func (s *Store) UpdateFlashcard(ctx context.Context, card *models.Flashcard) error {
	row, err := rowFromModel(*card)
	if err != nil {
		return err
	}

	query := s.rebind(`UPDATE flashcards SET
		topic_id = ?, front = ?, back = ?, next_review_date = ?,
		options = ?, image_url = ?, audio_url = ?, notes = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		row.TopicID, row.Front, row.Back, row.NextReviewDate,
		row.Options, row.ImageURL, row.AudioURL, row.Notes, row.ID)
	if err != nil {
		return errors.Wrap(err, "update flashcard")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("flashcard %s not found", card.ID)
	}
	return nil
}

// DeleteFlashcard removes a card by id.
func (s *Store) DeleteFlashcard(ctx context.Context, id string) error {
	query := s.rebind("DELETE FROM flashcards WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return errors.Wrap(err, "delete flashcard")
	}
	return nil
}

// SaveFlashcardsAndTopics replaces the full topic and card inventory in one
// transaction. Import/restore goes through here; a partial replacement is
// never observable.
func (s *Store) SaveFlashcardsAndTopics(ctx context.Context, topics []models.Topic, cards []models.Flashcard) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin replace transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM flashcards"); err != nil {
		return errors.Wrap(err, "clear flashcards")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM topics"); err != nil {
		return errors.Wrap(err, "clear topics")
	}

	topicInsert := s.rebind("INSERT INTO topics (id, name, parent) VALUES (?, ?, ?)")
	for _, t := range topics {
		if _, err := tx.ExecContext(ctx, topicInsert, t.ID, t.Name, t.Parent); err != nil {
			return errors.Wrapf(err, "insert topic %s", t.ID)
		}
	}

	cardInsert := s.rebind(`INSERT INTO flashcards
		(id, topic_id, front, back, next_review_date, options, image_url, audio_url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, c := range cards {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		row, err := rowFromModel(c)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, cardInsert,
			row.ID, row.TopicID, row.Front, row.Back, row.NextReviewDate,
			row.Options, row.ImageURL, row.AudioURL, row.Notes); err != nil {
			return errors.Wrapf(err, "insert flashcard %s", row.ID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit replace transaction")
}
