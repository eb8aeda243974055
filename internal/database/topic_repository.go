package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/example/ankular/internal/study"
	"github.com/example/ankular/pkg/models"
)

// GetTopics returns all topics.
func (s *Store) GetTopics(ctx context.Context) ([]models.Topic, error) {
	topics := []models.Topic{}
	query := "SELECT id, name, parent FROM topics ORDER BY id"
	if err := s.db.SelectContext(ctx, &topics, query); err != nil {
		return nil, errors.Wrap(err, "get topics")
	}
	return topics, nil
}

// TopicIndex loads the current topic forest into a study.TopicIndex snapshot.
func (s *Store) TopicIndex(ctx context.Context) (*study.TopicIndex, error) {
	topics, err := s.GetTopics(ctx)
	if err != nil {
		return nil, err
	}
	return study.NewTopicIndex(topics), nil
}

// AddTopic inserts a new topic. It fails with study.ErrDuplicateTopic when
// the id already exists and with study.ErrDanglingParent when the parent
// reference does not resolve; missing ancestors are never created here.
func (s *Store) AddTopic(ctx context.Context, topic models.Topic) error {
	ix, err := s.TopicIndex(ctx)
	if err != nil {
		return err
	}
	if err := ix.ValidateNew(topic); err != nil {
		return err
	}

	query := s.rebind("INSERT INTO topics (id, name, parent) VALUES (?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, topic.ID, topic.Name, topic.Parent); err != nil {
		return errors.Wrap(err, "add topic")
	}
	return nil
}

// GetFullTopicPath returns the topic's root-to-leaf name path. A broken
// parent chain degrades to the partial path discovered so far.
func (s *Store) GetFullTopicPath(ctx context.Context, topicID string) ([]string, error) {
	ix, err := s.TopicIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.FullPath(topicID), nil
}
