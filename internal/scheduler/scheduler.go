package scheduler

import (
	"os"
	"strconv"
	"time"

	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/internal/progress"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Default window for goal reminders (UTC hours)
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier interface for sending goal reminders
type Notifier interface {
	SendGoalReminder(userID int64, todayXP, dailyGoal int) error
}

// Scheduler manages scheduled tasks: the daily progress rollover and the
// daily-goal reminders.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Roll every learner over the day boundary shortly after midnight so
	// profiles read correctly before the day's first activity.
	s.scheduler.Every(1).Day().At("00:05").Do(s.rolloverAll)

	// Hourly check for learners who want a reminder at the current hour.
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// rolloverAll applies the day-boundary reset to every stored progress record.
func (s *Scheduler) rolloverAll() {
	repo := database.NewProgressRepository()

	keys, err := repo.Keys()
	if err != nil {
		logrus.WithError(err).Error("failed to list progress records for rollover")
		return
	}

	for _, key := range keys {
		store := progress.Open(repo, key)
		if err := store.Rollover(); err != nil {
			logrus.WithError(err).WithField("key", key).Error("failed to roll progress record over")
		}
	}

	logrus.WithField("records", len(keys)).Info("daily rollover finished")
}

// checkAndSendReminders reminds learners who are still below their daily
// goal at their preferred hour.
func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().UTC().Hour()

	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}

	if currentHour < startHour || currentHour > endHour {
		logrus.Debugf("current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	userRepo := database.NewUserRepository()
	progressRepo := database.NewProgressRepository()

	users, err := userRepo.GetUsersForNotification(currentHour)
	if err != nil {
		logrus.WithError(err).Error("failed to get users for notification")
		return
	}

	for _, user := range users {
		store := progress.Open(progressRepo, progress.Key(user.TelegramID))
		record := store.Progress()

		// Nothing to nag about once the goal is met.
		if record.TodayXP >= record.DailyGoal {
			continue
		}

		if err := s.notifier.SendGoalReminder(user.TelegramID, record.TodayXP, record.DailyGoal); err != nil {
			logrus.WithError(err).WithField("user_id", user.TelegramID).Error("failed to send goal reminder")
		}
	}
}
