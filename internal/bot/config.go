package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Pause between revealing answer feedback and advancing the conversation
	RevealDelay time.Duration
	// Default hour of day (UTC) for daily-goal reminders of new users
	DefaultNotificationHour int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		RevealDelay:             2 * time.Second,
		DefaultNotificationHour: 19,
	}
}
