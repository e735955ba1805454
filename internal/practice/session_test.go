package practice

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/example/tansanbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	xpCalls        []int
	completedCalls []string
	unlocked       []string
	err            error
}

func (r *fakeReporter) AddExperience(amount int) ([]string, error) {
	r.xpCalls = append(r.xpCalls, amount)
	return r.unlocked, r.err
}

func (r *fakeReporter) MarkScenarioComplete(scenarioID string) ([]string, error) {
	r.completedCalls = append(r.completedCalls, scenarioID)
	return nil, r.err
}

func correctOption(i int) *int { return &i }

func testScenario() models.Scenario {
	return models.Scenario{
		ID:       "cafe-ordering",
		Title:    "Ordering at a Café",
		XPReward: 100,
		Conversations: []models.Conversation{
			{ID: 1, Speaker: models.SpeakerAI, Text: "Hi! What can I get you?"},
			{ID: 2, Speaker: models.SpeakerUser, Options: []string{"Give me coffee.", "I'd like a latte, please.", "Coffee now."}, CorrectOption: correctOption(1)},
			{ID: 3, Speaker: models.SpeakerAI, Text: "What size would you like?"},
			{ID: 4, Speaker: models.SpeakerUser, Options: []string{"Medium, please.", "The big one.", "Whatever."}, CorrectOption: correctOption(0)},
			{ID: 5, Speaker: models.SpeakerAI, Text: "That's $4.50."},
			{ID: 6, Speaker: models.SpeakerUser, Options: []string{"Money here.", "Here you go.", "Take it."}, CorrectOption: correctOption(1)},
			{ID: 7, Speaker: models.SpeakerAI, Text: "Enjoy your drink!"},
		},
	}
}

func narrativeOnlyScenario() models.Scenario {
	return models.Scenario{
		ID:       "story",
		XPReward: 100,
		Conversations: []models.Conversation{
			{ID: 1, Speaker: models.SpeakerAI, Text: "Once upon a time."},
			{ID: 2, Speaker: models.SpeakerAI, Text: "The end."},
		},
	}
}

// advanceToDecision advances past narrative turns until the session awaits a
// selection or completes.
func advanceToDecision(t *testing.T, s *Session) {
	t.Helper()
	for {
		if s.Awaiting() {
			return
		}
		result, err := s.Advance()
		require.NoError(t, err)
		if result != nil {
			return
		}
	}
}

func answerCurrent(t *testing.T, s *Session, optionIndex int) bool {
	t.Helper()
	transcript := s.Transcript()
	correct, err := s.SelectOption(len(transcript)-1, optionIndex)
	require.NoError(t, err)
	return correct
}

func runScenario(t *testing.T, s *Session, picks []int) *Result {
	t.Helper()
	pick := 0
	for {
		advanceToDecision(t, s)
		if s.State() == StateCompleted {
			return s.Result()
		}
		require.Less(t, pick, len(picks), "scenario has more decisions than picks")
		answerCurrent(t, s, picks[pick])
		pick++
		result, err := s.Advance()
		require.NoError(t, err)
		if result != nil {
			return result
		}
	}
}

func TestNewRejectsEmptyScenario(t *testing.T) {
	_, err := New(models.Scenario{ID: "empty"}, nil)
	assert.ErrorIs(t, err, ErrEmptyScenario)
}

func TestPerfectRunAwardsFullReward(t *testing.T) {
	reporter := &fakeReporter{}
	s, err := New(testScenario(), reporter)
	require.NoError(t, err)

	result := runScenario(t, s, []int{1, 0, 1})

	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 3, result.TotalScorable)
	assert.Equal(t, 100, result.Accuracy)
	assert.Equal(t, 100, result.EarnedXP)
	assert.Equal(t, []int{100}, reporter.xpCalls)
	assert.Equal(t, []string{"cafe-ordering"}, reporter.completedCalls)
}

func TestPartialScoreRoundsAward(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	// 2 of 3 correct on a 100 XP scenario: 66.67 rounds to 67.
	result := runScenario(t, s, []int{1, 0, 0})

	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 67, result.EarnedXP)
	assert.Equal(t, 67, result.Accuracy)
}

func TestZeroScoreAwardsZero(t *testing.T) {
	reporter := &fakeReporter{}
	s, err := New(testScenario(), reporter)
	require.NoError(t, err)

	result := runScenario(t, s, []int{0, 1, 0})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.EarnedXP)
	assert.Equal(t, []int{0}, reporter.xpCalls, "completion still reports, even at zero")
	assert.Equal(t, []string{"cafe-ordering"}, reporter.completedCalls)
}

func TestNarrativeOnlyScenarioAwardsZero(t *testing.T) {
	reporter := &fakeReporter{}
	s, err := New(narrativeOnlyScenario(), reporter)
	require.NoError(t, err)

	result := runScenario(t, s, nil)

	assert.Equal(t, 0, result.TotalScorable)
	assert.Equal(t, 0, result.EarnedXP)
	assert.Equal(t, 0, result.Accuracy)
	assert.Equal(t, []int{0}, reporter.xpCalls)
}

func TestSelectOptionValidation(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	// Turn 0 is narrative: nothing to select.
	_, err = s.SelectOption(0, 0)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)

	advanceToDecision(t, s)

	// Wrong turn index.
	_, err = s.SelectOption(0, 1)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)
	_, err = s.SelectOption(5, 1)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)

	// Option index out of range.
	_, err = s.SelectOption(1, -1)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)
	_, err = s.SelectOption(1, 3)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)

	assert.Equal(t, 0, s.Score(), "rejected selections must not move the score")
}

func TestOnlyFirstAnswerCounts(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	advanceToDecision(t, s)

	correct := answerCurrent(t, s, 0)
	assert.False(t, correct)
	assert.Equal(t, 0, s.Score())

	// Retrying with the right option after a wrong pick must be rejected.
	_, err = s.SelectOption(1, 1)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)
	assert.Equal(t, 0, s.Score())
}

func TestAdvanceBlocksOnUnansweredDecision(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	advanceToDecision(t, s)
	_, err = s.Advance()
	assert.ErrorIs(t, err, ErrAwaitingSelection)
}

func TestTranscriptSubstitutesChosenOption(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	advanceToDecision(t, s)
	answerCurrent(t, s, 1)
	_, err = s.Advance()
	require.NoError(t, err)

	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	answered := transcript[1]
	assert.Equal(t, "I'd like a latte, please.", answered.Text)
	assert.Nil(t, answered.Options, "answered turns carry no options in the transcript")
	assert.Nil(t, answered.CorrectOption)
}

func TestRestartResetsWithoutUndoingAwards(t *testing.T) {
	reporter := &fakeReporter{}
	s, err := New(testScenario(), reporter)
	require.NoError(t, err)

	runScenario(t, s, []int{1, 0, 1})
	require.Equal(t, StateCompleted, s.State())

	s.Restart()

	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 0, s.Score())
	assert.Nil(t, s.Result())
	assert.Len(t, s.Transcript(), 1)
	assert.Equal(t, []int{100}, reporter.xpCalls, "restart must not touch already-awarded XP")

	// A second full run awards again.
	runScenario(t, s, []int{0, 0, 0})
	assert.Equal(t, []int{100, 33}, reporter.xpCalls)
	assert.Equal(t, []string{"cafe-ordering", "cafe-ordering"}, reporter.completedCalls)
}

func TestCompletedSessionRejectsSelections(t *testing.T) {
	s, err := New(testScenario(), &fakeReporter{})
	require.NoError(t, err)

	first := runScenario(t, s, []int{1, 0, 1})

	_, err = s.SelectOption(6, 0)
	assert.ErrorIs(t, err, ErrInvalidTurnSelection)

	again, err := s.Advance()
	assert.NoError(t, err)
	assert.Same(t, first, again, "advancing a completed session returns the same result")
}

func TestReporterErrorStillCompletes(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("db down")}
	s, err := New(testScenario(), reporter)
	require.NoError(t, err)

	pickResults := func() (*Result, error) {
		for {
			advanceToDecision(t, s)
			if s.State() == StateCompleted {
				return s.Result(), nil
			}
			answerCurrent(t, s, 1)
			if result, err := s.Advance(); result != nil || err != nil {
				return result, err
			}
		}
	}

	result, err := pickResults()
	assert.Error(t, err)
	require.NotNil(t, result, "the result is computed even when reporting fails")
	assert.Equal(t, StateCompleted, s.State())
}

func TestUnlockedAchievementsFlowThrough(t *testing.T) {
	reporter := &fakeReporter{unlocked: []string{"first_steps"}}
	s, err := New(testScenario(), reporter)
	require.NoError(t, err)

	result := runScenario(t, s, []int{1, 0, 1})
	assert.Equal(t, []string{"first_steps"}, result.Unlocked)
}

func TestSimultaneousTapsCountOnce(t *testing.T) {
	scenario := models.Scenario{
		ID:       "single-decision",
		XPReward: 50,
		Conversations: []models.Conversation{
			{ID: 1, Speaker: models.SpeakerUser, Options: []string{"Hi!", "Bye."}, CorrectOption: correctOption(0)},
		},
	}
	s, err := New(scenario, &fakeReporter{})
	require.NoError(t, err)

	const taps = 16
	var wg sync.WaitGroup
	var accepted int32
	for i := 0; i < taps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SelectOption(0, 0); err == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted, "only one tap on a turn may count")
	assert.Equal(t, 1, s.Score())
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, err := New(testScenario(), nil)
	require.NoError(t, err)
	b, err := New(testScenario(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
