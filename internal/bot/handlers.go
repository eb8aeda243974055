package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ankular/internal/study"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	b.registerChat(chatID)

	switch message.Command() {
	case "start":
		b.reply(chatID, "Welcome to Ankular! Use /topics to pick a topic and start a study session.\n"+
			"/stats <topic> shows your score history, /streak your daily streaks.")
	case "topics":
		b.handleTopics(ctx, chatID)
	case "study":
		b.startSession(ctx, chatID, strings.TrimSpace(message.CommandArguments()))
	case "stats":
		b.handleStats(ctx, chatID, strings.TrimSpace(message.CommandArguments()))
	case "streak":
		b.handleStreak(ctx, chatID)
	case "cancel":
		b.handleCancel(chatID)
	default:
		b.reply(chatID, "Unknown command. Try /topics, /study <topic>, /stats, /streak or /cancel.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Old or inaccessible messages arrive with no Message attached.
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	data := query.Data

	// Acknowledge the tap; specific handlers may send a second answer with text.
	defer b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	switch {
	case strings.HasPrefix(data, "study:"):
		b.startSession(ctx, chatID, strings.TrimPrefix(data, "study:"))
	case data == "flip":
		b.handleFlip(chatID)
	case strings.HasPrefix(data, "rate:"):
		rating, err := strconv.Atoi(strings.TrimPrefix(data, "rate:"))
		if err != nil {
			return
		}
		b.handleRate(ctx, chatID, rating)
	case strings.HasPrefix(data, "choice:"):
		b.handleChoice(query, strings.TrimPrefix(data, "choice:"))
	case data == "restart":
		b.handleRestart(ctx, chatID)
	}
}

func (b *Bot) handleTopics(ctx context.Context, chatID int64) {
	topics, err := b.store.GetTopics(ctx)
	if err != nil {
		b.reply(chatID, "Could not load topics. Please try again.")
		return
	}
	if len(topics) == 0 {
		b.reply(chatID, "No topics yet. Add topics and cards through the API first.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range topics {
		cards, err := b.store.GetFlashcardsForTopic(ctx, t.ID)
		if err != nil || len(cards) == 0 {
			continue
		}
		label := fmt.Sprintf("%s (%d cards)", t.ID, len(cards))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "study:"+t.ID),
		))
	}
	if len(rows) == 0 {
		b.reply(chatID, "No topics with cards yet.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Pick a topic to study:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) startSession(ctx context.Context, chatID int64, topicID string) {
	if topicID == "" {
		b.reply(chatID, "Usage: /study <topic id>")
		return
	}

	session, err := b.engine.BuildSession(ctx, topicID, time.Now())
	if err != nil {
		b.reply(chatID, "Could not build a session for that topic.")
		return
	}
	if session.Size() == 0 {
		b.reply(chatID, "That topic has no cards yet.")
		return
	}
	b.setSession(chatID, session)

	path, err := b.store.GetFullTopicPath(ctx, topicID)
	title := topicID
	if err == nil && len(path) > 0 {
		title = strings.Join(path, " / ")
	}
	b.reply(chatID, fmt.Sprintf("Studying %s — %d cards. Good luck!", title, session.Size()))
	b.withSession(chatID, func(s *study.Session) {
		b.showCurrentCard(chatID, s)
	})
}

// showCurrentCard renders the front of the card under the cursor, with a
// flip button and, when the card carries distractor variants, the stable
// multiple-choice option set. Callers hold the chat lock.
func (b *Bot) showCurrentCard(chatID int64, session *study.Session) {
	if session == nil {
		return
	}
	card := session.Current()
	if card == nil {
		return
	}

	text := fmt.Sprintf("Card %d/%d\n\n%s", session.Index()+1, session.Size(), card.Front)
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Show answer", "flip"),
		),
	}
	if len(card.Options) > 0 {
		for _, choice := range session.Choices() {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(choice.Back, "choice:"+choice.ID),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) handleFlip(chatID int64) {
	b.withSession(chatID, func(session *study.Session) {
		b.flipCurrent(chatID, session)
	})
}

// flipCurrent toggles the card side and renders it; callers hold the chat lock.
func (b *Bot) flipCurrent(chatID int64, session *study.Session) {
	if session == nil || session.Done() {
		return
	}
	session.Flip()
	if !session.ShowingBack() {
		b.showCurrentCard(chatID, session)
		return
	}

	card := session.Current()
	if card == nil {
		return
	}
	text := fmt.Sprintf("%s\n\n%s\n\nHow well did you know it?", card.Front, card.Back)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1 — Again", "rate:1"),
			tgbotapi.NewInlineKeyboardButtonData("2 — Hard", "rate:2"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("3 — Good", "rate:3"),
			tgbotapi.NewInlineKeyboardButtonData("4 — Easy", "rate:4"),
		),
	)
	b.send(msg)
}

// handleChoice reacts to a multiple-choice answer: right or wrong, picking an
// option flips the card so the user rates their recall next.
func (b *Bot) handleChoice(query *tgbotapi.CallbackQuery, choiceID string) {
	chatID := query.Message.Chat.ID
	b.withSession(chatID, func(session *study.Session) {
		if session == nil || session.Done() {
			return
		}
		card := session.Current()
		if card == nil || session.ShowingBack() {
			return
		}

		if choiceID == card.ID {
			b.api.Request(tgbotapi.NewCallback(query.ID, "Correct!"))
		} else {
			b.api.Request(tgbotapi.NewCallback(query.ID, "Not quite."))
		}
		b.flipCurrent(chatID, session)
	})
}

func (b *Bot) handleRate(ctx context.Context, chatID int64, rating int) {
	b.withSession(chatID, func(session *study.Session) {
		if session == nil {
			return
		}

		feedback, err := session.Rate(ctx, rating, time.Now())
		switch {
		case errors.Is(err, study.ErrNotFlipped), errors.Is(err, study.ErrSessionDone):
			// Rating input outside Showing-Back is ignored.
			return
		case errors.Is(err, study.ErrMalformedCard):
			// Skip the broken card; the session continues.
			b.advanceAfterDelay(chatID, session, 0)
			return
		case err != nil:
			b.reply(chatID, "Could not save that rating. Please try again.")
			return
		}

		b.reply(chatID, feedback)
		b.advanceAfterDelay(chatID, session, b.cfg.FeedbackDelay)
	})
}

// advanceAfterDelay waits out the feedback display, then advances the
// session and renders either the next card or the final summary. The timer
// fires off the update loop, so the advance retakes the chat lock and skips
// sessions that were cancelled or replaced while it waited.
func (b *Bot) advanceAfterDelay(chatID int64, session *study.Session, delay time.Duration) {
	time.AfterFunc(delay, func() {
		b.withSession(chatID, func(current *study.Session) {
			if current != session {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			summary, err := current.Advance(ctx)
			if err != nil {
				b.reply(chatID, "Your session finished, but the score could not be recorded.")
			}
			if summary != nil {
				b.showSummary(chatID, summary)
				return
			}
			b.showCurrentCard(chatID, current)
		})
	})
}

func (b *Bot) showSummary(chatID int64, summary *study.Summary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session complete!\n\n")
	fmt.Fprintf(&sb, "Cards reviewed: %d\n", summary.TotalCards)
	fmt.Fprintf(&sb, "Average rating: %.1f\n", summary.AverageRating)
	fmt.Fprintf(&sb, "Score: %.1f%%\n\n", summary.ScorePercent)

	if len(summary.NeedsReview) > 0 {
		sb.WriteString("Needs more review:\n")
		for _, item := range summary.NeedsReview {
			fmt.Fprintf(&sb, "  • %s (rated %d)\n", item.Front, item.Rating)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(summary.Message)

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Study again", "restart"),
		),
	)
	b.send(msg)
}

func (b *Bot) handleRestart(ctx context.Context, chatID int64) {
	b.withSession(chatID, func(session *study.Session) {
		if session == nil {
			return
		}
		if err := session.Restart(ctx, time.Now()); err != nil {
			b.reply(chatID, "Could not restart the session.")
			return
		}
		b.showCurrentCard(chatID, session)
	})
}

func (b *Bot) handleCancel(chatID int64) {
	if b.session(chatID) == nil {
		b.reply(chatID, "No active session.")
		return
	}
	// Abandoning mid-way never records a topic score; already-rated cards
	// keep their new due dates.
	b.setSession(chatID, nil)
	b.reply(chatID, "Session cancelled.")
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, topicID string) {
	if topicID == "" {
		b.reply(chatID, "Usage: /stats <topic id>")
		return
	}

	avg, err := b.store.GetAverageScorePercent(ctx, topicID)
	if err != nil {
		b.reply(chatID, "Could not load statistics.")
		return
	}
	streaks, err := b.store.GetTopicStreaks(ctx, topicID)
	if err != nil {
		b.reply(chatID, "Could not load statistics.")
		return
	}
	scores, err := b.store.GetTopicScores(ctx, topicID)
	if err != nil {
		b.reply(chatID, "Could not load statistics.")
		return
	}
	if len(scores) == 0 {
		b.reply(chatID, "No sessions recorded for that topic yet.")
		return
	}

	text := fmt.Sprintf("Stats for %s\nSessions: %d\nAverage score: %.1f%%\nStreak: %d days (longest %d)",
		topicID, len(scores), avg, streaks.Current, streaks.Longest)
	b.reply(chatID, text)
}

func (b *Bot) handleStreak(ctx context.Context, chatID int64) {
	streaks, err := b.store.GetGlobalStreaks(ctx)
	if err != nil {
		b.reply(chatID, "Could not load streaks.")
		return
	}
	mask, err := b.store.GetWeeklyStreak(ctx)
	if err != nil {
		b.reply(chatID, "Could not load streaks.")
		return
	}

	labels := []string{"S", "M", "T", "W", "T", "F", "S"}
	var week strings.Builder
	for i, active := range mask {
		if active {
			week.WriteString("✓")
		} else {
			week.WriteString("·")
		}
		week.WriteString(labels[i])
		if i < 6 {
			week.WriteString(" ")
		}
	}

	text := fmt.Sprintf("Current streak: %d days\nLongest streak: %d days\nThis week: %s",
		streaks.Current, streaks.Longest, week.String())
	b.reply(chatID, text)
}
