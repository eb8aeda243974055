package study

import (
	"github.com/example/ankular/pkg/models"
)

// TopicIndex holds a snapshot of the topic forest: an arena of topic records
// plus a parent-id to child-id index. It is rebuilt from the flat topic list
// on load, so insertion order of parents and children never matters.
type TopicIndex struct {
	byID     map[string]models.Topic
	children map[string][]string
}

// NewTopicIndex builds an index over the given topics.
func NewTopicIndex(topics []models.Topic) *TopicIndex {
	ix := &TopicIndex{
		byID:     make(map[string]models.Topic, len(topics)),
		children: make(map[string][]string),
	}
	for _, t := range topics {
		ix.byID[t.ID] = t
	}
	for _, t := range topics {
		if t.Parent != "" {
			ix.children[t.Parent] = append(ix.children[t.Parent], t.ID)
		}
	}
	return ix
}

// Topic returns the topic with the given id.
func (ix *TopicIndex) Topic(id string) (models.Topic, bool) {
	t, ok := ix.byID[id]
	return t, ok
}

// Len returns the number of indexed topics.
func (ix *TopicIndex) Len() int {
	return len(ix.byID)
}

// DescendantIDs returns the given topic id plus every transitive descendant,
// in depth-first order. An unknown id yields just the singleton. A study
// request on a parent topic covers all of its descendants' cards through this
// closure.
func (ix *TopicIndex) DescendantIDs(topicID string) []string {
	visited := make(map[string]bool)
	var out []string

	var collect func(id string)
	collect = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		out = append(out, id)
		for _, child := range ix.children[id] {
			collect(child)
		}
	}
	collect(topicID)
	return out
}

// FullPath walks parent pointers from the topic up to its root and returns
// the names in root-to-leaf order. A missing parent reference or a broken
// chain ends the walk with the partial path discovered so far. An unknown
// topic id yields nil.
func (ix *TopicIndex) FullPath(topicID string) []string {
	var names []string
	visited := make(map[string]bool)

	id := topicID
	for id != "" && !visited[id] {
		visited[id] = true
		t, ok := ix.byID[id]
		if !ok {
			break
		}
		names = append(names, t.Name)
		id = t.Parent
	}

	// Collected leaf-first, reverse to root-first.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// ValidateNew checks a topic about to be added against the snapshot. It
// returns ErrDuplicateTopic or ErrDanglingParent; parents are never created
// implicitly at this layer.
func (ix *TopicIndex) ValidateNew(t models.Topic) error {
	if _, ok := ix.byID[t.ID]; ok {
		return ErrDuplicateTopic
	}
	if t.Parent != "" {
		if _, ok := ix.byID[t.Parent]; !ok {
			return ErrDanglingParent
		}
	}
	return nil
}
