package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProgressStorageFormat(t *testing.T) {
	record := UserProgress{
		TotalXP:            150,
		TodayXP:            30,
		Streak:             2,
		Level:              1,
		CompletedScenarios: []string{"cafe-ordering"},
		Achievements:       []string{"first_steps"},
		DailyGoal:          50,
		LastActiveDate:     "2026-08-29",
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalXP": 150,
		"todayXP": 30,
		"streak": 2,
		"level": 1,
		"completedScenarios": ["cafe-ordering"],
		"achievements": ["first_steps"],
		"dailyGoal": 50,
		"lastActiveDate": "2026-08-29"
	}`, string(data))
}

func TestUserProgressOmitsEmptyLastActiveDate(t *testing.T) {
	data, err := json.Marshal(UserProgress{CompletedScenarios: []string{}, Achievements: []string{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lastActiveDate")
}

func TestUserProgressDecodesStoredRecord(t *testing.T) {
	stored := `{"totalXP":1200,"todayXP":45,"streak":7,"level":3,"completedScenarios":["a","b"],"achievements":["streak_champion"],"dailyGoal":80}`

	var record UserProgress
	require.NoError(t, json.Unmarshal([]byte(stored), &record))

	assert.Equal(t, 1200, record.TotalXP)
	assert.Equal(t, 45, record.TodayXP)
	assert.Equal(t, 7, record.Streak)
	assert.Equal(t, []string{"a", "b"}, record.CompletedScenarios)
	assert.True(t, record.HasAchievement("streak_champion"))
	assert.Empty(t, record.LastActiveDate)
}

func TestPredicatesWorkOnReturnedValues(t *testing.T) {
	fresh := func() UserProgress {
		return UserProgress{Achievements: []string{"first_steps"}}
	}
	assert.True(t, fresh().HasAchievement("first_steps"))
	assert.False(t, fresh().HasCompleted("cafe-ordering"))
}

func TestHasCompleted(t *testing.T) {
	record := UserProgress{CompletedScenarios: []string{"cafe-ordering", "hotel-checkin"}}
	assert.True(t, record.HasCompleted("cafe-ordering"))
	assert.False(t, record.HasCompleted("job-interview"))

	var empty UserProgress
	assert.False(t, empty.HasCompleted("cafe-ordering"))
}
