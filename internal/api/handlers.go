package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ankular/internal/database"
	"github.com/example/ankular/internal/study"
	"github.com/example/ankular/pkg/models"
)

// Handler serves the JSON API over the store.
type Handler struct {
	Store *database.Store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.Store.GetTopics(r.Context())
	if err != nil {
		http.Error(w, "Could not load topics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) AddTopic(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := json.NewDecoder(r.Body).Decode(&topic); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}
	if topic.ID == "" || topic.Name == "" {
		http.Error(w, "Topic id and name are required", http.StatusBadRequest)
		return
	}

	err := h.Store.AddTopic(r.Context(), topic)
	switch {
	case errors.Is(err, study.ErrDuplicateTopic):
		http.Error(w, "Topic already exists", http.StatusConflict)
	case errors.Is(err, study.ErrDanglingParent):
		http.Error(w, "Parent topic does not exist", http.StatusUnprocessableEntity)
	case err != nil:
		http.Error(w, "Could not create topic", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, topic)
	}
}

func (h *Handler) GetFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Store.GetFlashcards(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		http.Error(w, "Could not load flashcards", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) GetFlashcardsForTopic(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topic")
	if topicID == "" {
		http.Error(w, "Topic is required", http.StatusBadRequest)
		return
	}
	cards, err := h.Store.GetFlashcardsForTopic(r.Context(), topicID)
	if err != nil {
		http.Error(w, "Could not load flashcards", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) AddFlashcard(w http.ResponseWriter, r *http.Request) {
	var card models.Flashcard
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}
	if card.TopicID == "" || card.Front == "" || card.Back == "" {
		http.Error(w, "Topic, front and back are required", http.StatusBadRequest)
		return
	}

	created, err := h.Store.AddFlashcard(r.Context(), card)
	if err != nil {
		http.Error(w, "Could not create flashcard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("cardID")
	if cardID == "" {
		http.Error(w, "Flashcard id is required", http.StatusBadRequest)
		return
	}

	var card models.Flashcard
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}
	card.ID = cardID

	if err := h.Store.UpdateFlashcard(r.Context(), &card); err != nil {
		http.Error(w, "Could not update flashcard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("cardID")
	if cardID == "" {
		http.Error(w, "Flashcard id is required", http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteFlashcard(r.Context(), cardID); err != nil {
		http.Error(w, "Could not delete flashcard", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.Store.GetTopicScores(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		http.Error(w, "Could not load scores", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *Handler) GetAverageScore(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topic")
	if topicID == "" {
		http.Error(w, "Topic is required", http.StatusBadRequest)
		return
	}
	avg, err := h.Store.GetAverageScorePercent(r.Context(), topicID)
	if err != nil {
		http.Error(w, "Could not load scores", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"averageScorePercent": avg})
}

func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topic")

	var (
		streaks study.Streaks
		err     error
	)
	if topicID == "" {
		streaks, err = h.Store.GetGlobalStreaks(r.Context())
	} else {
		streaks, err = h.Store.GetTopicStreaks(r.Context(), topicID)
	}
	if err != nil {
		http.Error(w, "Could not load streaks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}

func (h *Handler) GetWeeklyStreak(w http.ResponseWriter, r *http.Request) {
	mask, err := h.Store.GetWeeklyStreak(r.Context())
	if err != nil {
		http.Error(w, "Could not load streaks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mask)
}

type restoreRequest struct {
	Topics []models.Topic     `json:"topics"`
	Cards  []models.Flashcard `json:"cards"`
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}

	if err := h.Store.SaveFlashcardsAndTopics(r.Context(), req.Topics, req.Cards); err != nil {
		http.Error(w, "Restore failed; no changes were applied", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"topics": len(req.Topics),
		"cards":  len(req.Cards),
	})
}
