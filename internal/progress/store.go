package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/pkg/models"
	"github.com/sirupsen/logrus"
)

// XPPerLevel is how much lifetime XP each level spans.
const XPPerLevel = 500

// DefaultDailyGoal is the daily XP target for new learners.
const DefaultDailyGoal = 50

// KeyPrefix is the fixed product prefix for persisted progress records.
const KeyPrefix = "tansanProgress"

const dateLayout = "2006-01-02"

// Repository persists serialized progress records under a key.
type Repository interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

// Key returns the storage key for a learner's progress record.
func Key(userID int64) string {
	return fmt.Sprintf("%s:%d", KeyPrefix, userID)
}

// LevelForXP derives the level from lifetime XP. The level is never stored
// independently of this formula.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return totalXP/XPPerLevel + 1
}

// Store reads and mutates one learner's UserProgress. Every mutation
// re-reads the stored record, recomputes derived fields, and immediately
// writes the full record back to the repository, so several stores opened
// over the same key stay consistent.
type Store struct {
	mu     sync.Mutex
	key    string
	repo   Repository
	record models.UserProgress
	now    func() time.Time
}

// Open loads the record stored under key, falling back to defaults when the
// record is missing or fails to parse. It never fails: the worst outcome of a
// broken record is starting over, not an unusable store.
func Open(repo Repository, key string) *Store {
	s := &Store{
		key:  key,
		repo: repo,
		now:  time.Now,
	}
	s.record = s.load()
	s.normalize()
	return s
}

func defaultRecord() models.UserProgress {
	return models.UserProgress{
		TotalXP:            0,
		TodayXP:            0,
		Streak:             0,
		Level:              1,
		CompletedScenarios: []string{},
		Achievements:       []string{},
		DailyGoal:          DefaultDailyGoal,
	}
}

func (s *Store) load() models.UserProgress {
	value, err := s.repo.Get(s.key)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logrus.WithError(err).WithField("key", s.key).Warn("failed to load progress record, starting fresh")
		}
		return defaultRecord()
	}

	var record models.UserProgress
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		logrus.WithError(err).WithField("key", s.key).Warn("corrupt progress record, starting fresh")
		return defaultRecord()
	}
	if record.CompletedScenarios == nil {
		record.CompletedScenarios = []string{}
	}
	if record.Achievements == nil {
		record.Achievements = []string{}
	}
	if record.DailyGoal <= 0 {
		record.DailyGoal = DefaultDailyGoal
	}
	return record
}

// normalize re-derives fields that must never drift from their sources and
// applies any pending day rollover. Called with a freshly loaded record.
func (s *Store) normalize() {
	s.record.Level = LevelForXP(s.record.TotalXP)
	s.applyRollover()
}

// refresh re-reads the record from the repository. Every mutation starts
// here so that two stores opened over the same key never replace each
// other's writes with a stale in-memory copy.
func (s *Store) refresh() {
	s.record = s.load()
	s.record.Level = LevelForXP(s.record.TotalXP)
}

// today returns the current UTC date in storage form.
func (s *Store) today() string {
	return s.now().UTC().Format(dateLayout)
}

// applyRollover resets the daily window when a day boundary has passed since
// the last activity: today's XP always starts at zero, and a streak survives
// only if the learner was active yesterday. Returns true when anything changed.
func (s *Store) applyRollover() bool {
	if s.record.LastActiveDate == "" {
		return false
	}
	last, err := time.Parse(dateLayout, s.record.LastActiveDate)
	if err != nil {
		// Unparseable date: treat like a fresh record rather than guessing.
		s.record.LastActiveDate = ""
		s.record.TodayXP = 0
		return true
	}

	today, _ := time.Parse(dateLayout, s.today())
	days := int(today.Sub(last).Hours() / 24)
	if days <= 0 {
		return false
	}

	changed := false
	if s.record.TodayXP != 0 {
		s.record.TodayXP = 0
		changed = true
	}
	if days > 1 && s.record.Streak != 0 {
		s.record.Streak = 0
		changed = true
	}
	return changed
}

// Progress returns a copy of the current record for rendering. The sets stay
// non-nil so the copy serializes the same way the record does.
func (s *Store) Progress() models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.record
	record.CompletedScenarios = append([]string{}, s.record.CompletedScenarios...)
	record.Achievements = append([]string{}, s.record.Achievements...)
	return record
}

// AddExperience adds the amount to both lifetime and daily XP, recomputes the
// level, and persists the record. Negative amounts are ignored. The first
// XP earned on a new day extends the streak. Returns any newly unlocked
// achievement ids.
func (s *Store) AddExperience(amount int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount < 0 {
		return nil, nil
	}

	s.refresh()
	s.applyRollover()

	today := s.today()
	if amount > 0 && s.record.LastActiveDate != today {
		s.record.Streak++
		s.record.LastActiveDate = today
	}

	s.record.TotalXP += amount
	s.record.TodayXP += amount
	s.record.Level = LevelForXP(s.record.TotalXP)

	unlocked := s.unlockAchievements()
	return unlocked, s.persist()
}

// MarkScenarioComplete adds the scenario to the completed set. Completing the
// same scenario again leaves the set unchanged, but the record is persisted
// either way. Returns any newly unlocked achievement ids.
func (s *Store) MarkScenarioComplete(scenarioID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh()
	s.applyRollover()

	if !s.record.HasCompleted(scenarioID) {
		s.record.CompletedScenarios = append(s.record.CompletedScenarios, scenarioID)
	}

	unlocked := s.unlockAchievements()
	return unlocked, s.persist()
}

// SetDailyGoal updates the daily XP target. Non-positive goals are rejected.
func (s *Store) SetDailyGoal(goal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal <= 0 {
		return fmt.Errorf("daily goal must be positive, got %d", goal)
	}

	s.refresh()
	s.applyRollover()
	s.record.DailyGoal = goal
	return s.persist()
}

// Rollover applies the day-boundary reset and persists it if anything
// changed. The scheduler calls this once per day for every learner so that
// profiles read correctly before the day's first activity.
func (s *Store) Rollover() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh()
	if !s.applyRollover() {
		return nil
	}
	return s.persist()
}

func (s *Store) persist() error {
	value, err := json.Marshal(s.record)
	if err != nil {
		return fmt.Errorf("failed to encode progress record: %w", err)
	}
	if err := s.repo.Put(s.key, string(value)); err != nil {
		return fmt.Errorf("failed to save progress record: %w", err)
	}
	return nil
}
