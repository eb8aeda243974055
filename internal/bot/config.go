package bot

import (
	"time"
)

// Config holds the bot's presentation settings.
type Config struct {
	// FeedbackDelay is how long the per-rating feedback stays on screen
	// before the session advances to the next card.
	FeedbackDelay time.Duration
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *Config {
	return &Config{
		FeedbackDelay: 1500 * time.Millisecond,
	}
}
