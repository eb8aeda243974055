package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/ankular/internal/database"
	"github.com/example/ankular/internal/study"
)

// Default window during which reminders may be sent.
const (
	DefaultReminderStartHour = 8
	DefaultReminderEndHour   = 22
)

// Notifier delivers due-card reminders to interested recipients.
type Notifier interface {
	ReminderTargets() []int64
	SendReminders(chatID int64, count int) error
}

// Scheduler runs the hourly due-card reminder job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     *database.Store
	notifier  Notifier
}

// New creates a scheduler over the given store and notifier.
func New(store *database.Store, notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		notifier:  notifier,
	}
}

// Start begins running the reminder job in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func reminderWindow() (int, int) {
	start, end := DefaultReminderStartHour, DefaultReminderEndHour
	if v := os.Getenv("REMINDER_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			start = h
		}
	}
	if v := os.Getenv("REMINDER_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			end = h
		}
	}
	return start, end
}

func (s *Scheduler) checkAndSendReminders() {
	now := time.Now()
	start, end := reminderWindow()
	if hour := now.Hour(); hour < start || hour > end {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.countDueCards(ctx, now)
	if err != nil {
		log.Printf("Error counting due cards: %v", err)
		return
	}
	if count == 0 {
		return
	}

	for _, chatID := range s.notifier.ReminderTargets() {
		if err := s.notifier.SendReminders(chatID, count); err != nil {
			log.Printf("Error sending reminder to chat %d: %v", chatID, err)
		}
	}
}

// countDueCards counts cards due at time now across all topics. The due
// comparison runs on parsed epochs, never on the serialized strings.
func (s *Scheduler) countDueCards(ctx context.Context, now time.Time) (int, error) {
	cards, err := s.store.GetFlashcards(ctx, "")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, card := range cards {
		if study.IsDue(card, now) {
			count++
		}
	}
	return count, nil
}

// RunManualCheck forces a reminder check outside the hourly cadence.
func (s *Scheduler) RunManualCheck(ctx context.Context) error {
	count, err := s.countDueCards(ctx, time.Now())
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	for _, chatID := range s.notifier.ReminderTargets() {
		if err := s.notifier.SendReminders(chatID, count); err != nil {
			return err
		}
	}
	return nil
}
