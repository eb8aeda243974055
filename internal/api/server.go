package api

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/example/ankular/internal/database"
)

// NewServer builds the HTTP server exposing the storage surface as JSON.
// Interactive study sessions live in the Telegram front end; this API covers
// topic and card management plus score and streak queries.
func NewServer(addr string, store *database.Store) *http.Server {
	h := &Handler{Store: store}
	mux := http.NewServeMux()

	// Topics
	mux.HandleFunc("GET /api/topics", h.GetTopics)
	mux.HandleFunc("POST /api/topics", h.AddTopic)

	// Flashcards. Topic ids contain slashes, so topics travel as a query
	// parameter rather than a path segment.
	mux.HandleFunc("GET /api/flashcards", h.GetFlashcards)
	mux.HandleFunc("GET /api/flashcards/subtree", h.GetFlashcardsForTopic)
	mux.HandleFunc("POST /api/flashcards", h.AddFlashcard)
	mux.HandleFunc("PUT /api/flashcards/{cardID}", h.UpdateFlashcard)
	mux.HandleFunc("DELETE /api/flashcards/{cardID}", h.DeleteFlashcard)

	// Scores and streaks
	mux.HandleFunc("GET /api/scores", h.GetScores)
	mux.HandleFunc("GET /api/scores/average", h.GetAverageScore)
	mux.HandleFunc("GET /api/streaks", h.GetStreaks)
	mux.HandleFunc("GET /api/streaks/weekly", h.GetWeeklyStreak)

	// Bulk replace for restore; atomic on the storage side.
	mux.HandleFunc("POST /api/restore", h.Restore)

	corsHandler := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin"},
		MaxAge:         86400,
	}).Handler(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
