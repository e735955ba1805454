package models

// UserProgress is the single persisted progress record for one learner.
// The JSON layout is the storage format: the record is serialized as a whole
// and replaced on every write.
type UserProgress struct {
	TotalXP            int      `json:"totalXP"`
	TodayXP            int      `json:"todayXP"`
	Streak             int      `json:"streak"`
	Level              int      `json:"level"`
	CompletedScenarios []string `json:"completedScenarios"`
	Achievements       []string `json:"achievements"`
	DailyGoal          int      `json:"dailyGoal"`
	// LastActiveDate is the last day (UTC, "2006-01-02") the learner earned XP.
	// Empty for a learner who has never completed a scored turn.
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}

// HasCompleted reports whether the scenario id is in the completed set.
func (p UserProgress) HasCompleted(scenarioID string) bool {
	for _, id := range p.CompletedScenarios {
		if id == scenarioID {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement id has been unlocked.
func (p UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}
