package scenarios

import (
	"errors"
	"testing"

	"github.com/example/tansanbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	scenarios []models.Scenario
	err       error
}

func (s *fakeSource) GetAll() ([]models.Scenario, error) {
	return s.scenarios, s.err
}

func storedScenario(id string) models.Scenario {
	return models.Scenario{
		ID:         id,
		Title:      "Imported",
		Difficulty: models.DifficultyBeginner,
		XPReward:   40,
		Conversations: []models.Conversation{
			{ID: 1, Speaker: models.SpeakerAI, Text: "Hello there."},
			{ID: 2, Speaker: models.SpeakerUser, Options: []string{"Hi!", "Bye."}, CorrectOption: correct(0)},
		},
	}
}

func TestBuiltinScenariosAreValid(t *testing.T) {
	builtins := Builtin()
	require.NotEmpty(t, builtins)

	for _, scenario := range builtins {
		assert.NoError(t, Validate(scenario), "scenario %q", scenario.ID)
		assert.NotEmpty(t, scenario.Title)
		assert.Positive(t, scenario.XPReward)
		assert.Positive(t, scenario.ScorableTurns())
	}
}

func TestLoadWithoutSource(t *testing.T) {
	catalog, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, len(Builtin()), catalog.Len())
}

func TestLoadMergesStoredScenarios(t *testing.T) {
	catalog, err := Load(&fakeSource{scenarios: []models.Scenario{storedScenario("imported-greetings")}})
	require.NoError(t, err)

	assert.Equal(t, len(Builtin())+1, catalog.Len())

	scenario, err := catalog.Get("imported-greetings")
	require.NoError(t, err)
	assert.Equal(t, "Imported", scenario.Title)
}

func TestLoadSkipsShadowingStoredScenario(t *testing.T) {
	builtin := Builtin()[0]
	shadow := storedScenario(builtin.ID)
	shadow.Title = "Impostor"

	catalog, err := Load(&fakeSource{scenarios: []models.Scenario{shadow}})
	require.NoError(t, err)

	scenario, err := catalog.Get(builtin.ID)
	require.NoError(t, err)
	assert.Equal(t, builtin.Title, scenario.Title, "built-ins win on id conflict")
	assert.Equal(t, len(Builtin()), catalog.Len())
}

func TestLoadSkipsInvalidStoredScenario(t *testing.T) {
	invalid := storedScenario("broken")
	invalid.Conversations = nil

	catalog, err := Load(&fakeSource{scenarios: []models.Scenario{invalid}})
	require.NoError(t, err)

	_, err = catalog.Get("broken")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestLoadFailsOnSourceError(t *testing.T) {
	_, err := Load(&fakeSource{err: errors.New("db down")})
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	catalog, err := Load(nil)
	require.NoError(t, err)

	_, err = catalog.Get("no-such-scenario")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.Scenario)
		hasError bool
	}{
		{"valid", func(*models.Scenario) {}, false},
		{"empty id", func(s *models.Scenario) { s.ID = "" }, true},
		{"no turns", func(s *models.Scenario) { s.Conversations = nil }, true},
		{"unknown speaker", func(s *models.Scenario) { s.Conversations[0].Speaker = "narrator" }, true},
		{"correct option out of range", func(s *models.Scenario) { s.Conversations[1].CorrectOption = correct(5) }, true},
		{"no decision turns", func(s *models.Scenario) { s.Conversations[1].Options = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := storedScenario("test")
			tt.mutate(&scenario)
			err := Validate(scenario)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListReturnsCopy(t *testing.T) {
	catalog, err := Load(nil)
	require.NoError(t, err)

	list := catalog.List()
	require.NotEmpty(t, list)
	list[0].Title = "mutated"

	fresh, err := catalog.Get(Builtin()[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Title)
}
