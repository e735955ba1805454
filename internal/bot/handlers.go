package bot

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/internal/excel"
	"github.com/example/tansanbot/internal/practice"
	"github.com/example/tansanbot/internal/progress"
	"github.com/example/tansanbot/internal/scenarios"
	"github.com/example/tansanbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	b.ensureUser(message.From)

	welcomeText := `Welcome to Tansan! 🎭

Practice real-life English conversations: order a coffee, check into a hotel, ace a job interview. Pick the best reply at each step, earn XP, keep your streak alive.

Commands:
/scenarios - Browse practice scenarios
/profile - Your level, streak and achievements
/goal <xp> - Set your daily XP goal
/remind <hour> - Set your reminder hour (UTC), /remind off to disable
/help - Show help`

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
}

func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	text := `📖 How Tansan works

🎭 Each scenario is a short scripted conversation. When it's your turn to speak, pick the most natural reply from the options.

⭐ Finishing a scenario earns XP proportional to your accuracy. Every 500 XP is a new level.

🔥 Earn XP on consecutive days to build a streak. Miss a day and the streak resets.

🎯 Set a daily XP goal with /goal. The default is 50 XP per day.

🏆 Achievements unlock as you go: first scenario, five scenarios, a 7-day streak, 1,000 total XP.`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
}

// ensureUser creates the user row on first contact
func (b *Bot) ensureUser(from *tgbotapi.User) {
	if from == nil {
		return
	}
	if _, err := b.userRepo.GetByTelegramID(from.ID); err == nil {
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		logrus.WithError(err).WithField("user_id", from.ID).Error("failed to look up user")
		return
	}

	user := &models.User{
		TelegramID:          from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.isAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    b.config.DefaultNotificationHour,
	}
	if err := b.userRepo.Create(user); err != nil {
		logrus.WithError(err).WithField("user_id", from.ID).Error("failed to create user")
	}
}

// handleGoalCommand sets the daily XP goal: /goal 80
func (b *Bot) handleGoalCommand(message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())
	goal, err := strconv.Atoi(args)
	if err != nil || goal <= 0 {
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Usage: /goal <xp>, for example /goal 80"))
		return
	}

	store := b.openStore(message.From.ID)
	if err := store.SetDailyGoal(goal); err != nil {
		logrus.WithError(err).Error("failed to set daily goal")
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Couldn't save your goal, please try again."))
		return
	}
	b.send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("🎯 Daily goal set to %d XP.", goal)))
}

// handleRemindCommand sets the reminder hour: /remind 19, /remind off
func (b *Bot) handleRemindCommand(message *tgbotapi.Message) {
	b.ensureUser(message.From)
	args := strings.ToLower(strings.TrimSpace(message.CommandArguments()))

	if args == "off" {
		if err := b.userRepo.SetNotification(message.From.ID, false, b.config.DefaultNotificationHour); err != nil {
			logrus.WithError(err).Error("failed to disable reminders")
		}
		b.send(tgbotapi.NewMessage(message.Chat.ID, "🔕 Daily reminders disabled."))
		return
	}

	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Usage: /remind <hour 0-23> (UTC), or /remind off"))
		return
	}
	if err := b.userRepo.SetNotification(message.From.ID, true, hour); err != nil {
		logrus.WithError(err).Error("failed to set reminder hour")
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Couldn't save your reminder settings, please try again."))
		return
	}
	b.send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("🔔 Daily reminder set for %02d:00 UTC.", hour)))
}

// showScenarios lists the catalog with completion marks
func (b *Bot) showScenarios(chatID, userID int64) {
	record := b.openStore(userID).Progress()

	var sb strings.Builder
	sb.WriteString("🎭 Choose a scenario to practice:\n")

	var buttons [][]MenuButton
	for _, scenario := range b.catalog.List() {
		mark := ""
		if record.HasCompleted(scenario.ID) {
			mark = " ✅"
		}
		label := fmt.Sprintf("%s %s · %s · %d XP%s",
			scenario.Icon, scenario.Title, scenario.Difficulty, scenario.XPReward, mark)
		buttons = append(buttons, []MenuButton{{Text: label, CallbackData: "practice:" + scenario.ID}})
	}
	buttons = append(buttons, []MenuButton{{Text: "◀️ Main menu", CallbackData: "main_menu"}})

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createKeyboard(buttons)
	b.send(msg)
}

// showProfile renders the learner's stats and achievements
func (b *Bot) showProfile(chatID, userID int64) {
	record := b.openStore(userID).Progress()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 Level %d\n\n", record.Level))
	sb.WriteString(fmt.Sprintf("⭐ Total XP: %d\n", record.TotalXP))
	sb.WriteString(fmt.Sprintf("🔥 Day streak: %d\n", record.Streak))
	sb.WriteString(fmt.Sprintf("🏁 Scenarios completed: %d / %d\n\n", len(record.CompletedScenarios), b.catalog.Len()))

	sb.WriteString(fmt.Sprintf("🎯 Daily goal: %d / %d XP\n%s\n\n",
		record.TodayXP, record.DailyGoal, progressBar(record.TodayXP, record.DailyGoal)))

	sb.WriteString("🏆 Achievements:\n")
	for _, def := range progress.Definitions() {
		if record.HasAchievement(def.ID) {
			sb.WriteString(fmt.Sprintf("%s %s — %s\n", def.Icon, def.Title, def.Description))
		} else {
			sb.WriteString(fmt.Sprintf("🔒 %s — %s\n", def.Title, def.Description))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎭 Practice", CallbackData: "list_scenarios"}},
		{{Text: "◀️ Main menu", CallbackData: "main_menu"}},
	})
	b.send(msg)
}

// progressBar renders a ten-segment text progress bar
func progressBar(value, max int) string {
	if max <= 0 {
		max = 1
	}
	filled := value * 10 / max
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// startPractice begins a session for the chosen scenario
func (b *Bot) startPractice(chatID, userID int64, scenarioID string) {
	scenario, err := b.catalog.Get(scenarioID)
	if err != nil {
		if errors.Is(err, scenarios.ErrScenarioNotFound) {
			b.send(tgbotapi.NewMessage(chatID, "That scenario doesn't exist anymore. Pick another one with /scenarios."))
			return
		}
		logrus.WithError(err).Error("failed to load scenario")
		return
	}

	store := b.openStore(userID)
	session, err := practice.New(scenario, store)
	if err != nil {
		logrus.WithError(err).WithField("scenario", scenarioID).Error("failed to start session")
		b.send(tgbotapi.NewMessage(chatID, "That scenario can't be practiced right now."))
		return
	}

	b.mu.Lock()
	b.sessions[userID] = &activeSession{session: session, store: store}
	b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"scenario":   scenarioID,
		"user_id":    userID,
	}).Info("practice session started")

	intro := fmt.Sprintf("%s %s\n%s\n\nDifficulty: %s · Reward: up to %d XP",
		scenario.Icon, scenario.Title, scenario.Description, scenario.Difficulty, scenario.XPReward)
	b.send(tgbotapi.NewMessage(chatID, intro))

	b.renderNext(chatID, userID)
}

// renderNext shows turns until the next decision point or completion.
// Narrative turns are passed over immediately; a decision turn stops the
// loop and presents the reply options.
func (b *Bot) renderNext(chatID, userID int64) {
	st, ok := b.currentSession(userID)
	if !ok {
		return
	}

	for {
		turn, inProgress := st.session.Current()
		if !inProgress {
			return
		}

		if turn.IsDecision() && st.session.Awaiting() {
			b.sendDecisionTurn(chatID, st, turn)
			return
		}

		if turn.Text != "" {
			prefix := "💬"
			if turn.Speaker == models.SpeakerUser {
				prefix = "🗣"
			}
			b.send(tgbotapi.NewMessage(chatID, prefix+" "+turn.Text))
		}

		result, err := st.session.Advance()
		if result != nil {
			b.sendCompletion(chatID, st, result, err)
			return
		}
		if err != nil {
			logrus.WithError(err).Error("failed to advance session")
			return
		}
	}
}

// sendDecisionTurn presents the reply options for the pending decision turn
func (b *Bot) sendDecisionTurn(chatID int64, st *activeSession, turn models.Conversation) {
	transcript := st.session.Transcript()
	turnIndex := len(transcript) - 1

	var buttons [][]MenuButton
	for i, option := range turn.Options {
		buttons = append(buttons, []MenuButton{{
			Text:         option,
			CallbackData: fmt.Sprintf("answer:%d:%d", turnIndex, i),
		}})
	}

	text := "Choose your reply:"
	if turn.Text != "" {
		text = turn.Text
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(buttons)
	b.send(msg)
}

// handleAnswer records a selection, reveals feedback, then advances
func (b *Bot) handleAnswer(chatID, userID int64, turnIndex, optionIndex int) {
	st, ok := b.currentSession(userID)
	if !ok {
		return
	}

	turn, inProgress := st.session.Current()
	if !inProgress {
		return
	}

	correct, err := st.session.SelectOption(turnIndex, optionIndex)
	if err != nil {
		// Stray or repeated tap: ignore without disturbing the session.
		logrus.WithError(err).Debug("ignoring out-of-turn selection")
		return
	}

	if correct {
		b.send(tgbotapi.NewMessage(chatID, "✅ Correct!"))
	} else {
		best := turn.Options[*turn.CorrectOption]
		b.send(tgbotapi.NewMessage(chatID, "❌ Not quite. The best reply was:\n"+best))
		b.sendCoachTip(chatID, st.session.Scenario(), turn, optionIndex)
	}

	// Let the learner read the feedback before the conversation moves on.
	time.Sleep(b.config.RevealDelay)

	result, err := st.session.Advance()
	if result != nil {
		b.sendCompletion(chatID, st, result, err)
		return
	}
	if err != nil {
		logrus.WithError(err).Error("failed to advance session")
		return
	}

	b.renderNext(chatID, userID)
}

// sendCoachTip asks the optional AI coach to explain the mistake
func (b *Bot) sendCoachTip(chatID int64, scenario models.Scenario, turn models.Conversation, chosen int) {
	if !b.coachEnabled || b.coach == nil {
		return
	}

	prompt := lastAITurnText(scenario, turn.ID)
	tip, err := b.coach.ExplainMistake(scenario.Title, prompt, turn.Options[chosen], turn.Options[*turn.CorrectOption])
	if err != nil {
		logrus.WithError(err).Debug("coach tip unavailable")
		return
	}
	b.send(tgbotapi.NewMessage(chatID, "💡 "+tip))
}

// lastAITurnText finds the AI line the learner was replying to
func lastAITurnText(scenario models.Scenario, beforeTurnID int) string {
	text := ""
	for _, turn := range scenario.Conversations {
		if turn.ID >= beforeTurnID {
			break
		}
		if turn.Speaker == models.SpeakerAI {
			text = turn.Text
		}
	}
	return text
}

// sendCompletion renders the completion card
func (b *Bot) sendCompletion(chatID int64, st *activeSession, result *practice.Result, reportErr error) {
	if reportErr != nil {
		logrus.WithError(reportErr).WithField("session_id", result.SessionID).Error("failed to record session outcome")
	}

	logrus.WithFields(logrus.Fields{
		"session_id": result.SessionID,
		"scenario":   result.ScenarioID,
		"score":      result.Score,
		"earned_xp":  result.EarnedXP,
	}).Info("practice session completed")

	var sb strings.Builder
	sb.WriteString("🏆 Scenario complete!\n\n")
	sb.WriteString(fmt.Sprintf("Accuracy: %d%% (%d/%d)\n", result.Accuracy, result.Score, result.TotalScorable))
	sb.WriteString(fmt.Sprintf("⭐ XP earned: %d\n", result.EarnedXP))

	record := st.store.Progress()
	sb.WriteString(fmt.Sprintf("🎯 Today: %d / %d XP\n", record.TodayXP, record.DailyGoal))

	for _, id := range result.Unlocked {
		if def, ok := progress.Definition(id); ok {
			sb.WriteString(fmt.Sprintf("\n%s Achievement unlocked: %s!", def.Icon, def.Title))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🔄 Try again", CallbackData: "restart"}},
		{{Text: "🎭 More scenarios", CallbackData: "list_scenarios"}},
	})
	b.send(msg)
}

// handleRestart replays the current scenario from the top
func (b *Bot) handleRestart(chatID, userID int64) {
	st, ok := b.currentSession(userID)
	if !ok {
		b.showScenarios(chatID, userID)
		return
	}
	st.session.Restart()
	b.renderNext(chatID, userID)
}

// handleImportCommand begins the scenario import flow
func (b *Bot) handleImportCommand(message *tgbotapi.Message) {
	b.mu.Lock()
	b.awaitingImport[message.Chat.ID] = true
	b.mu.Unlock()

	b.send(tgbotapi.NewMessage(message.Chat.ID,
		"Send a scenario file (.xlsx or .csv).\n\n"+
			"One row per turn: scenario id, title, description, difficulty, category, xp reward, icon, "+
			"speaker (ai/user), text, options separated by |, correct option index."))
}

// processImportDocument downloads the uploaded file and imports it
func (b *Bot) processImportDocument(message *tgbotapi.Message) {
	b.mu.Lock()
	delete(b.awaitingImport, message.Chat.ID)
	b.mu.Unlock()

	doc := message.Document
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		logrus.WithError(err).Error("failed to resolve uploaded file")
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Couldn't download the file, please try again."))
		return
	}

	path, err := downloadToTemp(url, doc.FileName)
	if err != nil {
		logrus.WithError(err).Error("failed to download uploaded file")
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Couldn't download the file, please try again."))
		return
	}
	defer os.Remove(path)

	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportScenarios(config)
	if err != nil {
		logrus.WithError(err).Error("scenario import failed")
		b.send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Import failed: %v", err)))
		return
	}

	var sb strings.Builder
	sb.WriteString("📥 Import finished\n\n")
	sb.WriteString(fmt.Sprintf("Rows processed: %d\n", result.TotalRows))
	sb.WriteString(fmt.Sprintf("Scenarios created: %d\n", result.ScenariosCreated))
	sb.WriteString(fmt.Sprintf("Scenarios updated: %d\n", result.ScenariosUpdated))
	sb.WriteString(fmt.Sprintf("Turns imported: %d\n", result.TurnsImported))
	sb.WriteString(fmt.Sprintf("Skipped: %d\n", result.Skipped))
	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		limit := len(result.Errors)
		if limit > 10 {
			limit = 10
		}
		for _, e := range result.Errors[:limit] {
			sb.WriteString("• " + e + "\n")
		}
	}
	sb.WriteString("\nRestart the bot to pick up the new scenarios.")
	b.send(tgbotapi.NewMessage(message.Chat.ID, sb.String()))
}

// downloadToTemp fetches the file into the temp directory, keeping the
// original extension so the importer can tell xlsx from csv.
func downloadToTemp(url, filename string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".xlsx"
	}
	f, err := os.CreateTemp("", "tansan-import-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// handleAdminStatsCommand reports rough usage numbers
func (b *Bot) handleAdminStatsCommand(message *tgbotapi.Message) {
	users, err := b.userRepo.GetAll()
	if err != nil {
		logrus.WithError(err).Error("failed to get users")
		return
	}

	stored, err := database.NewScenarioRepository().Count()
	if err != nil {
		logrus.WithError(err).Error("failed to count scenarios")
		return
	}

	text := fmt.Sprintf("📊 Admin stats\n\nUsers: %d\nCatalog scenarios: %d (built-in %d, imported %d)",
		len(users), b.catalog.Len(), len(scenarios.Builtin()), stored)
	b.send(tgbotapi.NewMessage(message.Chat.ID, text))
}
