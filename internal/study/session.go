package study

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/example/ankular/pkg/models"
)

// SessionLimit bounds a study session to a fixed batch of cards.
const SessionLimit = 15

// Store is the storage surface the engine depends on. The concrete
// implementation lives in internal/database; tests supply a fake.
type Store interface {
	GetFlashcardsForTopic(ctx context.Context, topicID string) ([]models.Flashcard, error)
	UpdateFlashcard(ctx context.Context, card *models.Flashcard) error
	LogTopicScore(ctx context.Context, topicID string, totalCards int, averageRating, scorePercent float64) error
}

// Engine builds and drives study sessions over a Store.
type Engine struct {
	store Store
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the randomness source used for shuffling, so tests can be
// deterministic. Production uses a time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// NewEngine creates a study engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Review is one accumulated rating during a session.
type Review struct {
	Card           models.Flashcard
	Rating         int
	Date           time.Time
	NextReviewDate string
}

// ReviewItem is a low-rated card surfaced in the end-of-session summary.
type ReviewItem struct {
	Front  string
	Rating int
}

// Summary is the aggregate produced when a session reaches the end of its deck.
type Summary struct {
	TopicID       string
	TotalCards    int
	AverageRating float64
	ScorePercent  float64
	RatingCounts  map[int]int
	NeedsReview   []ReviewItem
	Message       string
}

// Session is the ephemeral state of one study run: the deck, the cursor, the
// shown-side flag and the rating history. It is never persisted; only the
// derived TopicScore survives completion.
type Session struct {
	engine  *Engine
	topicID string

	deck     []models.Flashcard
	index    int
	showBack bool
	choices  []models.Flashcard

	history      []Review
	ratingCounts map[int]int

	done    bool
	logged  bool
	summary *Summary
}

// BuildSession selects a bounded, shuffled deck for the topic subtree.
//
// A pool of at most SessionLimit cards is returned whole. A larger pool is
// sorted by due epoch ascending (absent date first) and partitioned: when at
// least SessionLimit cards are due, the earliest-due SessionLimit win;
// otherwise the first SessionLimit of the full sorted pool top the session up
// with not-yet-due cards in due order. The selection is shuffled either way.
func (e *Engine) BuildSession(ctx context.Context, topicID string, now time.Time) (*Session, error) {
	pool, err := e.store.GetFlashcardsForTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	deck := e.selectDeck(pool, now)
	return &Session{
		engine:       e,
		topicID:      topicID,
		deck:         deck,
		ratingCounts: make(map[int]int),
	}, nil
}

func (e *Engine) selectDeck(pool []models.Flashcard, now time.Time) []models.Flashcard {
	deck := make([]models.Flashcard, len(pool))
	copy(deck, pool)

	if len(deck) <= SessionLimit {
		e.shuffle(deck)
		return deck
	}

	sort.SliceStable(deck, func(i, j int) bool {
		return reviewEpoch(deck[i]) < reviewEpoch(deck[j])
	})

	nowMs := now.UnixMilli()
	var dueCards []models.Flashcard
	for _, c := range deck {
		if reviewEpoch(c) <= nowMs {
			dueCards = append(dueCards, c)
		}
	}

	var selected []models.Flashcard
	if len(dueCards) >= SessionLimit {
		selected = dueCards[:SessionLimit]
	} else {
		// Too few overdue cards: top up with not-yet-due cards in due order.
		selected = deck[:SessionLimit]
	}
	e.shuffle(selected)
	return selected
}

func (e *Engine) shuffle(cards []models.Flashcard) {
	e.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// TopicID returns the topic the session was built for.
func (s *Session) TopicID() string { return s.topicID }

// Size returns the deck length.
func (s *Session) Size() int { return len(s.deck) }

// Index returns the zero-based cursor position.
func (s *Session) Index() int { return s.index }

// Done reports whether the deck has been exhausted.
func (s *Session) Done() bool { return s.done }

// ShowingBack reports whether the current card shows its back side.
func (s *Session) ShowingBack() bool { return s.showBack }

// History returns the accumulated reviews so far.
func (s *Session) History() []Review { return s.history }

// Current returns the card under the cursor, or nil past the end of the deck.
// The pointer aliases the deck, so a rating is visible on re-display.
func (s *Session) Current() *models.Flashcard {
	if s.index < 0 || s.index >= len(s.deck) {
		return nil
	}
	return &s.deck[s.index]
}

// Flip toggles between the front and back of the current card.
func (s *Session) Flip() {
	if s.done || s.Current() == nil {
		return
	}
	s.showBack = !s.showBack
}

// Choices returns the multiple-choice option set for the current card: the
// card itself plus its distractor variants, shuffled once and cached until
// the session advances. Repeated calls within one display return the same
// order, so the answer layout stays stable.
func (s *Session) Choices() []models.Flashcard {
	card := s.Current()
	if card == nil {
		return nil
	}
	if s.choices == nil {
		all := make([]models.Flashcard, 0, len(card.Options)+1)
		all = append(all, *card)
		all = append(all, card.Options...)
		s.engine.shuffle(all)
		s.choices = all
	}
	return s.choices
}

// Rate records a rating for the current card, stamps and persists its next
// review date, and returns the per-rating feedback message.
//
// Ratings are only accepted while the back is showing; otherwise ErrNotFlipped
// is returned and nothing changes. A malformed card yields ErrMalformedCard
// and persists nothing, leaving the session able to continue. A storage
// failure is propagated before anything is recorded: the history and shown
// side stay untouched, so the same rating can simply be retried.
func (s *Session) Rate(ctx context.Context, rating int, now time.Time) (string, error) {
	if s.done {
		return "", ErrSessionDone
	}
	if !s.showBack {
		return "", ErrNotFlipped
	}
	card := s.Current()
	if card == nil {
		return "", ErrSessionDone
	}

	next, err := ApplyRating(card, rating, now)
	if err != nil {
		return "", err
	}
	if err := s.engine.store.UpdateFlashcard(ctx, card); err != nil {
		return "", err
	}

	s.history = append(s.history, Review{
		Card:           *card,
		Rating:         rating,
		Date:           now,
		NextReviewDate: next,
	})
	s.ratingCounts[rating]++
	s.showBack = false
	return Feedback(rating), nil
}

// Advance moves to the next card, invalidating the cached choice set. When
// the cursor passes the end of the deck the session completes: the summary is
// computed and exactly one TopicScore entry is logged. Subsequent calls
// return the same summary without logging again. Before completion it
// returns nil.
func (s *Session) Advance(ctx context.Context) (*Summary, error) {
	if s.done {
		return s.summary, nil
	}

	s.choices = nil
	s.showBack = false
	s.index++
	if s.index < len(s.deck) {
		return nil, nil
	}

	s.done = true
	s.summary = s.aggregate()
	if !s.logged {
		s.logged = true
		err := s.engine.store.LogTopicScore(ctx, s.topicID,
			s.summary.TotalCards, s.summary.AverageRating, s.summary.ScorePercent)
		if err != nil {
			return s.summary, err
		}
	}
	return s.summary, nil
}

func (s *Session) aggregate() *Summary {
	total := len(s.history)
	sum := 0
	for _, r := range s.history {
		sum += r.Rating
	}

	avg := 0.0
	if total > 0 {
		avg = float64(sum) / float64(total)
	}
	percent := avg / 4 * 100

	var needsReview []ReviewItem
	for _, r := range s.history {
		if r.Rating <= 2 {
			needsReview = append(needsReview, ReviewItem{Front: r.Card.Front, Rating: r.Rating})
		}
	}

	counts := make(map[int]int, len(s.ratingCounts))
	for k, v := range s.ratingCounts {
		counts[k] = v
	}

	return &Summary{
		TopicID:       s.topicID,
		TotalCards:    total,
		AverageRating: avg,
		ScorePercent:  percent,
		RatingCounts:  counts,
		NeedsReview:   needsReview,
		Message:       FinalMessage(percent),
	}
}

// Summary returns the end-of-session aggregate, or nil while studying.
func (s *Session) Summary() *Summary { return s.summary }

// Restart rebuilds the deck and resets all session state. Abandoning a
// session this way never emits a TopicScore entry; ratings already committed
// stay committed.
func (s *Session) Restart(ctx context.Context, now time.Time) error {
	fresh, err := s.engine.BuildSession(ctx, s.topicID, now)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}
