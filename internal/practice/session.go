package practice

import (
	"errors"
	"math"
	"sync"

	"github.com/example/tansanbot/pkg/models"
	"github.com/google/uuid"
)

// ErrInvalidTurnSelection is returned when an option is selected for a turn
// that is not the current pending decision turn. Callers are expected to
// ignore it: stray or repeated taps must not disturb the session.
var ErrInvalidTurnSelection = errors.New("selection does not match the pending decision turn")

// ErrAwaitingSelection is returned by Advance when the current decision turn
// has not been answered yet.
var ErrAwaitingSelection = errors.New("current turn is awaiting a selection")

// ErrEmptyScenario is returned when a session is started for a scenario with
// no conversation turns.
var ErrEmptyScenario = errors.New("scenario has no conversation turns")

// State of a practice session
type State int

const (
	// StateInProgress means the session is partway through the scenario
	StateInProgress State = iota
	// StateCompleted means the final turn has been passed and XP awarded
	StateCompleted
)

// Reporter receives the outcome of a completed session. The progress store
// implements it; both calls happen exactly once per completion.
type Reporter interface {
	AddExperience(amount int) ([]string, error)
	MarkScenarioComplete(scenarioID string) ([]string, error)
}

// Result summarizes one completed run of a scenario.
type Result struct {
	SessionID     string
	ScenarioID    string
	Score         int
	TotalScorable int
	Accuracy      int // percent, rounded
	EarnedXP      int
	Unlocked      []string // achievement ids unlocked by this completion
}

// Session drives one learner through one scenario's ordered turns. All
// transitions are pure and immediate: pacing delays between revealing
// feedback and advancing belong to the presentation layer. Sessions are safe
// for concurrent use: near-simultaneous taps on the same turn resolve to a
// single counted answer.
type Session struct {
	id       string
	scenario models.Scenario
	reporter Reporter

	mu         sync.Mutex
	state      State
	current    int
	score      int
	answered   bool
	selected   int
	transcript []models.Conversation
	result     *Result
}

// New starts a session at the scenario's first turn.
func New(scenario models.Scenario, reporter Reporter) (*Session, error) {
	if len(scenario.Conversations) == 0 {
		return nil, ErrEmptyScenario
	}
	s := &Session{
		id:       uuid.New().String(),
		scenario: scenario,
		reporter: reporter,
	}
	s.reset()
	return s, nil
}

func (s *Session) reset() {
	s.state = StateInProgress
	s.current = 0
	s.score = 0
	s.answered = false
	s.selected = 0
	s.result = nil
	s.transcript = []models.Conversation{s.scenario.Conversations[0]}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Scenario returns the scenario being practiced.
func (s *Session) Scenario() models.Scenario { return s.scenario }

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the number of correctly answered decision turns so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Transcript returns the turns shown so far, with chosen options substituted
// as the learner's lines.
func (s *Session) Transcript() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Conversation(nil), s.transcript...)
}

// Current returns the turn awaiting the learner, or false when the session
// is completed.
func (s *Session) Current() (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return models.Conversation{}, false
	}
	return s.scenario.Conversations[s.current], true
}

// Awaiting reports whether the current turn is a decision turn that has not
// been answered yet.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return false
	}
	return s.scenario.Conversations[s.current].IsDecision() && !s.answered
}

// Result returns the completion result, or nil while in progress.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SelectOption records the learner's answer for the turn at turnIndex. It is
// valid only for the current pending decision turn, and at most one answer
// counts per turn per pass. Returns whether the chosen option was correct.
func (s *Session) SelectOption(turnIndex, optionIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || turnIndex != s.current || s.answered {
		return false, ErrInvalidTurnSelection
	}
	turn := s.scenario.Conversations[s.current]
	if !turn.IsDecision() || optionIndex < 0 || optionIndex >= len(turn.Options) {
		return false, ErrInvalidTurnSelection
	}

	s.answered = true
	s.selected = optionIndex

	correct := optionIndex == *turn.CorrectOption
	if correct {
		s.score++
	}
	return correct, nil
}

// Advance moves past the current turn: an answered decision turn has the
// chosen option substituted into the transcript as the learner's line, a
// narrative turn is passed over as-is. When the last turn is passed the
// session completes, the award is computed, and the reporter is invoked
// exactly once. The returned Result is non-nil only on completion.
func (s *Session) Advance() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return s.result, nil
	}

	turn := s.scenario.Conversations[s.current]
	if turn.IsDecision() {
		if !s.answered {
			return nil, ErrAwaitingSelection
		}
		shown := s.transcript[len(s.transcript)-1]
		shown.Text = turn.Options[s.selected]
		shown.Options = nil
		shown.CorrectOption = nil
		s.transcript[len(s.transcript)-1] = shown
	}

	if s.current+1 < len(s.scenario.Conversations) {
		s.current++
		s.answered = false
		s.transcript = append(s.transcript, s.scenario.Conversations[s.current])
		return nil, nil
	}

	return s.complete()
}

// complete transitions to Completed, computes the award, and reports it.
// A scenario with no decision turns awards zero XP rather than dividing by
// zero. XP rounds half away from zero so identical runs always award the
// same amount.
func (s *Session) complete() (*Result, error) {
	s.state = StateCompleted

	total := s.scenario.ScorableTurns()
	earned := 0
	accuracy := 0
	if total > 0 {
		ratio := float64(s.score) / float64(total)
		earned = int(math.Round(ratio * float64(s.scenario.XPReward)))
		accuracy = int(math.Round(ratio * 100))
	}

	result := &Result{
		SessionID:     s.id,
		ScenarioID:    s.scenario.ID,
		Score:         s.score,
		TotalScorable: total,
		Accuracy:      accuracy,
		EarnedXP:      earned,
	}

	var reportErr error
	if s.reporter != nil {
		unlocked, err := s.reporter.AddExperience(earned)
		if err != nil {
			reportErr = err
		}
		result.Unlocked = append(result.Unlocked, unlocked...)

		unlocked, err = s.reporter.MarkScenarioComplete(s.scenario.ID)
		if err != nil && reportErr == nil {
			reportErr = err
		}
		for _, id := range unlocked {
			if !contains(result.Unlocked, id) {
				result.Unlocked = append(result.Unlocked, id)
			}
		}
	}

	s.result = result
	return result, reportErr
}

// Restart resets the session to the first turn. Experience and completion
// marking from earlier runs are never undone.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
