package progress

import "github.com/example/tansanbot/pkg/models"

// Achievement ids
const (
	AchievementFirstSteps         = "first_steps"
	AchievementConversationMaster = "conversation_master"
	AchievementStreakChampion     = "streak_champion"
	AchievementXPCollector        = "xp_collector"
)

// Definitions returns every achievement the bot can award.
func Definitions() []models.Achievement {
	return []models.Achievement{
		{ID: AchievementFirstSteps, Title: "First Steps", Description: "Complete your first scenario", Icon: "🎯"},
		{ID: AchievementConversationMaster, Title: "Conversation Master", Description: "Complete 5 scenarios", Icon: "💬"},
		{ID: AchievementStreakChampion, Title: "Streak Champion", Description: "Keep a 7-day streak", Icon: "🔥"},
		{ID: AchievementXPCollector, Title: "XP Collector", Description: "Earn 1,000 total XP", Icon: "⭐"},
	}
}

// Definition returns the achievement definition for an id.
func Definition(id string) (models.Achievement, bool) {
	for _, def := range Definitions() {
		if def.ID == id {
			return def, true
		}
	}
	return models.Achievement{}, false
}

// qualified returns the ids the record currently qualifies for, in
// definition order.
func qualified(record *models.UserProgress) []string {
	var ids []string
	if len(record.CompletedScenarios) >= 1 {
		ids = append(ids, AchievementFirstSteps)
	}
	if len(record.CompletedScenarios) >= 5 {
		ids = append(ids, AchievementConversationMaster)
	}
	if record.Streak >= 7 {
		ids = append(ids, AchievementStreakChampion)
	}
	if record.TotalXP >= 1000 {
		ids = append(ids, AchievementXPCollector)
	}
	return ids
}

// unlockAchievements folds newly qualified achievements into the persisted
// set and returns the ones added by this call. Unlocks are monotone: ids are
// never removed even if the qualifying state later regresses (a broken streak
// does not take Streak Champion away).
func (s *Store) unlockAchievements() []string {
	var unlocked []string
	for _, id := range qualified(&s.record) {
		if s.record.HasAchievement(id) {
			continue
		}
		s.record.Achievements = append(s.record.Achievements, id)
		unlocked = append(unlocked, id)
	}
	return unlocked
}
