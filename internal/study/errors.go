package study

import "errors"

// Sentinel errors for the study engine. Check with errors.Is; the storage
// layer wraps them but keeps them matchable.
var (
	// ErrDuplicateTopic is returned when adding a topic whose id already exists.
	ErrDuplicateTopic = errors.New("study: duplicate topic")
	// ErrDanglingParent is returned when a new topic references a parent that
	// does not exist. Ancestors must be created first.
	ErrDanglingParent = errors.New("study: parent topic does not exist")
	// ErrMalformedCard is returned when rating a card with no id or topic id.
	// The rating is a no-op and the session can continue.
	ErrMalformedCard = errors.New("study: card is missing id or topic id")
	// ErrNotFlipped is returned when a rating arrives while the card still
	// shows its front. Callers normally ignore it.
	ErrNotFlipped = errors.New("study: card back is not showing")
	// ErrSessionDone is returned for input after the session completed.
	ErrSessionDone = errors.New("study: session already completed")
	// ErrInvalidRating is returned for ratings outside 1..4.
	ErrInvalidRating = errors.New("study: rating must be between 1 and 4")
)
