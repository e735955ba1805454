package models

// Difficulty levels for scenarios
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Speakers for conversation turns
const (
	SpeakerAI   = "ai"
	SpeakerUser = "user"
)

// Scenario represents one scripted conversation to practice
type Scenario struct {
	ID            string         `json:"id" db:"id"`
	Title         string         `json:"title" db:"title"`
	Description   string         `json:"description" db:"description"`
	Difficulty    string         `json:"difficulty" db:"difficulty"`
	Category      string         `json:"category" db:"category"`
	XPReward      int            `json:"xpReward" db:"xp_reward"` // maximum XP for a perfect run
	Icon          string         `json:"icon" db:"icon"`
	Conversations []Conversation `json:"conversations"`
}

// Conversation is a single turn of dialogue within a scenario
type Conversation struct {
	ID      int    `json:"id"`
	Speaker string `json:"speaker"` // "ai" or "user"
	Text    string `json:"text"`
	// Options and CorrectOption are set only on decision turns, where the
	// learner picks a reply from multiple choices.
	Options       []string `json:"options,omitempty"`
	CorrectOption *int     `json:"correctOption,omitempty"`
}

// IsDecision reports whether the turn requires the learner to pick an option.
func (c Conversation) IsDecision() bool {
	return c.Speaker == SpeakerUser && len(c.Options) > 0 && c.CorrectOption != nil
}

// ScorableTurns returns the number of decision turns in the scenario. This is
// the denominator when converting a session score into earned XP.
func (s Scenario) ScorableTurns() int {
	count := 0
	for _, c := range s.Conversations {
		if c.IsDecision() {
			count++
		}
	}
	return count
}
