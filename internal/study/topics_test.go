package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ankular/pkg/models"
)

func topicForest() []models.Topic {
	return []models.Topic{
		{ID: "science", Name: "science"},
		{ID: "science/physics", Name: "physics", Parent: "science"},
		{ID: "science/physics/optics", Name: "optics", Parent: "science/physics"},
		{ID: "science/biology", Name: "biology", Parent: "science"},
		{ID: "history", Name: "history"},
	}
}

func TestDescendantIDs(t *testing.T) {
	ix := NewTopicIndex(topicForest())

	ids := ix.DescendantIDs("science")
	assert.ElementsMatch(t, []string{
		"science", "science/physics", "science/physics/optics", "science/biology",
	}, ids)
	assert.NotContains(t, ids, "history")
}

func TestDescendantIDsLeaf(t *testing.T) {
	ix := NewTopicIndex(topicForest())
	assert.Equal(t, []string{"science/biology"}, ix.DescendantIDs("science/biology"))
}

func TestDescendantIDsUnknownTopic(t *testing.T) {
	ix := NewTopicIndex(topicForest())
	assert.Equal(t, []string{"nope"}, ix.DescendantIDs("nope"))
}

func TestDescendantIDsChildrenOutOfOrder(t *testing.T) {
	// Children listed before their parents, as bulk import produces them.
	topics := []models.Topic{
		{ID: "a/b/c", Name: "c", Parent: "a/b"},
		{ID: "a/b", Name: "b", Parent: "a"},
		{ID: "a", Name: "a"},
	}
	ix := NewTopicIndex(topics)
	assert.ElementsMatch(t, []string{"a", "a/b", "a/b/c"}, ix.DescendantIDs("a"))
}

func TestFullPath(t *testing.T) {
	ix := NewTopicIndex(topicForest())
	assert.Equal(t, []string{"science", "physics", "optics"}, ix.FullPath("science/physics/optics"))
	assert.Equal(t, []string{"history"}, ix.FullPath("history"))
}

func TestFullPathBrokenChain(t *testing.T) {
	topics := []models.Topic{
		{ID: "x/y", Name: "y", Parent: "x"}, // parent "x" was never created
	}
	ix := NewTopicIndex(topics)
	assert.Equal(t, []string{"y"}, ix.FullPath("x/y"))
	assert.Nil(t, ix.FullPath("x"))
}

func TestValidateNew(t *testing.T) {
	ix := NewTopicIndex(topicForest())

	require.NoError(t, ix.ValidateNew(models.Topic{ID: "science/chemistry", Name: "chemistry", Parent: "science"}))
	require.NoError(t, ix.ValidateNew(models.Topic{ID: "music", Name: "music"}))

	err := ix.ValidateNew(models.Topic{ID: "science", Name: "science"})
	assert.ErrorIs(t, err, ErrDuplicateTopic)

	err = ix.ValidateNew(models.Topic{ID: "art/painting", Name: "painting", Parent: "art"})
	assert.ErrorIs(t, err, ErrDanglingParent)
}
