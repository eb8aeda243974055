package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ankular/internal/database"
	"github.com/example/ankular/pkg/models"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := database.Open(database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(":0", store).Handler
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestTopicRoutes(t *testing.T) {
	h := testHandler(t)

	rec := do(t, h, http.MethodPost, "/api/topics", models.Topic{ID: "science", Name: "science"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Method and path are matched together; a bare GET must not 404.
	rec = do(t, h, http.MethodGet, "/api/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var topics []models.Topic
	decodeInto(t, rec, &topics)
	require.Len(t, topics, 1)
	assert.Equal(t, "science", topics[0].ID)

	rec = do(t, h, http.MethodPost, "/api/topics", models.Topic{ID: "science", Name: "science"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/topics", models.Topic{ID: "art/painting", Name: "painting", Parent: "art"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFlashcardRoutes(t *testing.T) {
	h := testHandler(t)
	rec := do(t, h, http.MethodPost, "/api/topics", models.Topic{ID: "math", Name: "math"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/flashcards", models.Flashcard{TopicID: "math", Front: "2+2", Back: "4"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var card models.Flashcard
	decodeInto(t, rec, &card)
	require.NotEmpty(t, card.ID)

	// The card id is a path segment, read back through the route wildcard.
	card.NextReviewDate = "2024-01-07T00:00:00Z"
	rec = do(t, h, http.MethodPut, "/api/flashcards/"+card.ID, card)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/flashcards?topic=math", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []models.Flashcard
	decodeInto(t, rec, &cards)
	require.Len(t, cards, 1)
	assert.Equal(t, "2024-01-07T00:00:00Z", cards[0].NextReviewDate)

	rec = do(t, h, http.MethodDelete, "/api/flashcards/"+card.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/flashcards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cards = nil
	decodeInto(t, rec, &cards)
	assert.Empty(t, cards)
}

func TestSubtreeRoute(t *testing.T) {
	h := testHandler(t)
	for _, topic := range []models.Topic{
		{ID: "science", Name: "science"},
		{ID: "science/physics", Name: "physics", Parent: "science"},
	} {
		rec := do(t, h, http.MethodPost, "/api/topics", topic)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/flashcards", models.Flashcard{TopicID: "science/physics", Front: "f", Back: "b"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/flashcards/subtree?topic=science", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []models.Flashcard
	decodeInto(t, rec, &cards)
	assert.Len(t, cards, 1, "parent topic covers descendant cards")
}

func TestRestoreRoute(t *testing.T) {
	h := testHandler(t)
	rec := do(t, h, http.MethodPost, "/api/restore", map[string]any{
		"topics": []models.Topic{{ID: "geo", Name: "geo"}},
		"cards":  []models.Flashcard{{ID: "g1", TopicID: "geo", Front: "f", Back: "b"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var counts map[string]int
	decodeInto(t, rec, &counts)
	assert.Equal(t, map[string]int{"topics": 1, "cards": 1}, counts)
}

func TestStreakRoutes(t *testing.T) {
	h := testHandler(t)

	rec := do(t, h, http.MethodGet, "/api/streaks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var streaks struct {
		Current int `json:"current"`
		Longest int `json:"longest"`
	}
	decodeInto(t, rec, &streaks)
	assert.Zero(t, streaks.Current)

	rec = do(t, h, http.MethodGet, "/api/streaks/weekly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mask [7]bool
	decodeInto(t, rec, &mask)
	assert.Equal(t, [7]bool{}, mask)
}
