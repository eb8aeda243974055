package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ankular/internal/study"
	"github.com/example/ankular/pkg/models"
)

// stubStore is a minimal in-memory study.Store for session tests.
type stubStore struct {
	cards []models.Flashcard
}

func (s *stubStore) GetFlashcardsForTopic(_ context.Context, _ string) ([]models.Flashcard, error) {
	return s.cards, nil
}

func (s *stubStore) UpdateFlashcard(context.Context, *models.Flashcard) error { return nil }

func (s *stubStore) LogTopicScore(context.Context, string, int, float64, float64) error {
	return nil
}

func testBot() *Bot {
	return &Bot{
		cfg:      DefaultConfig(),
		sessions: make(map[int64]*study.Session),
		locks:    make(map[int64]*sync.Mutex),
		chats:    make(map[int64]bool),
	}
}

func buildSession(t *testing.T, n int) *study.Session {
	t.Helper()
	cards := make([]models.Flashcard, n)
	for i := range cards {
		cards[i] = models.Flashcard{
			ID:      fmt.Sprintf("math-%d", i),
			TopicID: "math",
			Front:   fmt.Sprintf("front %d", i),
			Back:    fmt.Sprintf("back %d", i),
		}
	}
	engine := study.NewEngine(&stubStore{cards: cards})
	s, err := engine.BuildSession(context.Background(), "math", time.Now())
	require.NoError(t, err)
	return s
}

func TestWithSessionSerializesAccess(t *testing.T) {
	b := testBot()
	b.setSession(1, buildSession(t, 4))

	var active, overlaps int32
	var wg sync.WaitGroup
	op := func(fn func(*study.Session)) {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.withSession(1, func(s *study.Session) {
				if atomic.AddInt32(&active, 1) != 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				fn(s)
				atomic.AddInt32(&active, -1)
			})
		}
	}

	wg.Add(2)
	go op(func(s *study.Session) { s.Flip() })
	go op(func(s *study.Session) {
		if _, err := s.Advance(context.Background()); err != nil {
			t.Error(err)
		}
	})
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps), "session operations must not interleave")
}

func TestDelayedAdvanceSkipsReplacedSession(t *testing.T) {
	b := testBot()
	old := buildSession(t, 3)
	b.setSession(1, old)

	// The session is replaced while a zero-delay advance is pending.
	replacement := buildSession(t, 3)
	b.setSession(1, replacement)
	b.advanceAfterDelay(1, old, 0)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, old.Index(), "a superseded timer must not advance anything")
	assert.Equal(t, 0, replacement.Index())
}

func TestDelayedAdvanceSkipsCancelledSession(t *testing.T) {
	b := testBot()
	session := buildSession(t, 3)
	b.setSession(1, session)

	b.setSession(1, nil)
	b.advanceAfterDelay(1, session, 0)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, session.Index())
}

func TestCallbackWithoutMessageIsIgnored(t *testing.T) {
	b := testBot()
	assert.NotPanics(t, func() {
		b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{ID: "q1", Data: "flip"})
	})
}
