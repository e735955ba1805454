package scenarios

import "github.com/example/tansanbot/pkg/models"

func correct(i int) *int { return &i }

// Builtin returns the scenarios shipped with the bot.
func Builtin() []models.Scenario {
	return []models.Scenario{
		{
			ID:          "cafe-ordering",
			Title:       "Ordering at a Café",
			Description: "Order a drink and a snack at a busy café",
			Difficulty:  models.DifficultyBeginner,
			Category:    "food",
			XPReward:    50,
			Icon:        "☕",
			Conversations: []models.Conversation{
				{ID: 1, Speaker: models.SpeakerAI, Text: "Good morning! Welcome to Riverside Café. What can I get you?"},
				{ID: 2, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"I'd like a cappuccino, please.",
					"Give coffee now.",
					"You have coffee?",
				}, CorrectOption: correct(0)},
				{ID: 3, Speaker: models.SpeakerAI, Text: "Sure! What size would you like — small, medium, or large?"},
				{ID: 4, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"Big one coffee.",
					"A medium, please.",
					"Size is good.",
				}, CorrectOption: correct(1)},
				{ID: 5, Speaker: models.SpeakerAI, Text: "Anything to eat with that? The croissants just came out of the oven."},
				{ID: 6, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"No eat, only drink me.",
					"Croissant is hot?",
					"That sounds great, I'll take one.",
				}, CorrectOption: correct(2)},
				{ID: 7, Speaker: models.SpeakerAI, Text: "Perfect, that'll be $7.50. Enjoy your morning!"},
			},
		},
		{
			ID:          "hotel-checkin",
			Title:       "Hotel Check-in",
			Description: "Check into your hotel and ask about the amenities",
			Difficulty:  models.DifficultyIntermediate,
			Category:    "travel",
			XPReward:    75,
			Icon:        "🏨",
			Conversations: []models.Conversation{
				{ID: 1, Speaker: models.SpeakerAI, Text: "Good evening, welcome to the Grand Plaza. How may I help you?"},
				{ID: 2, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"I have a reservation under the name Tanaka.",
					"Room. I booked.",
					"Where is my room key?",
				}, CorrectOption: correct(0)},
				{ID: 3, Speaker: models.SpeakerAI, Text: "Let me check... yes, a double room for three nights. Could I see some ID, please?"},
				{ID: 4, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"Why you need that?",
					"Of course, here's my passport.",
					"I show you later maybe.",
				}, CorrectOption: correct(1)},
				{ID: 5, Speaker: models.SpeakerAI, Text: "Thank you. You're all set — room 412. Is there anything else I can help with?"},
				{ID: 6, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"Yes, what time is breakfast served?",
					"Breakfast when?",
					"I want food in morning time.",
				}, CorrectOption: correct(0)},
				{ID: 7, Speaker: models.SpeakerAI, Text: "Breakfast is from 6:30 to 10:00 in the restaurant on the second floor. Enjoy your stay!"},
				{ID: 8, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"Okay bye.",
					"Thank you very much, good night.",
					"I go now to sleep.",
				}, CorrectOption: correct(1)},
			},
		},
		{
			ID:          "job-interview",
			Title:       "Job Interview",
			Description: "Make a good impression in a job interview",
			Difficulty:  models.DifficultyAdvanced,
			Category:    "business",
			XPReward:    100,
			Icon:        "💼",
			Conversations: []models.Conversation{
				{ID: 1, Speaker: models.SpeakerAI, Text: "Thanks for coming in today. To start, could you tell me a little about yourself?"},
				{ID: 2, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"My life is long story, you have time?",
					"I'm a software developer with five years of experience building web applications.",
					"I am me. What about you?",
				}, CorrectOption: correct(1)},
				{ID: 3, Speaker: models.SpeakerAI, Text: "Impressive. Why are you interested in this position?"},
				{ID: 4, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"I admire your company's products and I think my skills are a strong match for the role.",
					"Money is good here, people say.",
					"My friend works here so it is easy for me.",
				}, CorrectOption: correct(0)},
				{ID: 5, Speaker: models.SpeakerAI, Text: "What would you say is your greatest weakness?"},
				{ID: 6, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"I have no weakness.",
					"Weakness? Next question please.",
					"I sometimes take on too much myself; I've been working on delegating earlier.",
				}, CorrectOption: correct(2)},
				{ID: 7, Speaker: models.SpeakerAI, Text: "Good answer. Do you have any questions for us?"},
				{ID: 8, Speaker: models.SpeakerUser, Text: "", Options: []string{
					"Yes — how would you describe the team I'd be working with?",
					"When is lunch time here?",
					"No questions, I know everything already.",
				}, CorrectOption: correct(0)},
				{ID: 9, Speaker: models.SpeakerAI, Text: "Great question. We'll be in touch within the week. Thanks again for coming in!"},
			},
		},
	}
}
