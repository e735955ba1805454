package bot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/example/tansanbot/internal/ai"
	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/internal/practice"
	"github.com/example/tansanbot/internal/progress"
	"github.com/example/tansanbot/internal/scenarios"
	"github.com/example/tansanbot/internal/scheduler"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// activeSession pairs a running practice session with the progress store it
// reports to.
type activeSession struct {
	session *practice.Session
	store   *progress.Store
}

// Bot represents the Telegram bot application
type Bot struct {
	api   *tgbotapi.BotAPI
	token string

	catalog      *scenarios.Catalog
	progressRepo *database.ProgressRepository
	userRepo     *database.UserRepository

	coach        *ai.Coach
	coachEnabled bool

	scheduler        *scheduler.Scheduler
	schedulerEnabled bool

	config *BotConfig

	mu             sync.Mutex
	sessions       map[int64]*activeSession
	awaitingImport map[int64]bool
	adminUserIDs   map[int64]bool
}

// New creates a new bot instance
func New(catalog *scenarios.Catalog) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	coachEnabled := os.Getenv("OPENAI_API_KEY") != ""
	var coach *ai.Coach
	if coachEnabled {
		var err error
		coach, err = ai.New()
		if err != nil {
			logrus.WithError(err).Warn("unable to initialize conversation coach")
			coachEnabled = false
		}
	}

	b := &Bot{
		token:            token,
		catalog:          catalog,
		progressRepo:     database.NewProgressRepository(),
		userRepo:         database.NewUserRepository(),
		coach:            coach,
		coachEnabled:     coachEnabled,
		schedulerEnabled: os.Getenv("ENABLE_SCHEDULER") != "false",
		config:           DefaultConfig(),
		sessions:         make(map[int64]*activeSession),
		awaitingImport:   make(map[int64]bool),
		adminUserIDs:     parseAdminIDs(os.Getenv("ADMIN_USER_IDS")),
	}
	return b, nil
}

// parseAdminIDs parses a comma-separated list of Telegram user IDs
func parseAdminIDs(raw string) map[int64]bool {
	admins := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logrus.WithField("value", part).Warn("ignoring invalid admin user id")
			continue
		}
		admins[id] = true
	}
	return admins
}

// Start initializes the Telegram API client and processes updates until the
// context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}

	b.api = botAPI
	logrus.WithField("account", botAPI.Self.UserName).Info("authorized on Telegram")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b)
		b.scheduler.Start()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop(ctx context.Context) error {
	if b.schedulerEnabled && b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	logrus.Info("bot stopped")
	return nil
}

// isAdmin reports whether the user may run admin commands
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// openStore loads the learner's progress record.
func (b *Bot) openStore(userID int64) *progress.Store {
	return progress.Open(b.progressRepo, progress.Key(userID))
}

// currentSession returns the learner's active practice session, if any.
func (b *Bot) currentSession(userID int64) (*activeSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[userID]
	return st, ok
}

// dropSession abandons the learner's active session. The transcript is
// discarded; experience already awarded by completed runs is untouched.
func (b *Bot) dropSession(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, userID)
}

// handleUpdate dispatches one incoming update
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("recovered from panic in update handler")
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage dispatches commands and expected document uploads
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	b.mu.Lock()
	awaiting := b.awaitingImport[message.Chat.ID]
	b.mu.Unlock()

	if awaiting {
		if message.Document != nil {
			b.processImportDocument(message)
		} else {
			b.send(tgbotapi.NewMessage(message.Chat.ID, "Please send the scenario file as a document (.xlsx or .csv), or use /menu to cancel."))
		}
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "I don't understand. Use /menu to show the main menu.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStartCommand(message)
	case "menu":
		b.dropSession(message.From.ID)
		b.showMainMenu(message.Chat.ID)
	case "scenarios":
		b.dropSession(message.From.ID)
		b.showScenarios(message.Chat.ID, message.From.ID)
	case "profile":
		b.showProfile(message.Chat.ID, message.From.ID)
	case "goal":
		b.handleGoalCommand(message)
	case "remind":
		b.handleRemindCommand(message)
	case "help":
		b.handleHelpCommand(message)
	case "import":
		if b.isAdmin(message.From.ID) {
			b.handleImportCommand(message)
		} else {
			b.send(tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators."))
		}
	case "admin_stats":
		if b.isAdmin(message.From.ID) {
			b.handleAdminStatsCommand(message)
		} else {
			b.send(tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators."))
		}
	default:
		msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /menu to show the main menu.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.send(msg)
	}
}

// handleCallbackQuery handles button presses
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.From == nil || callback.Message == nil {
		return
	}
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	// Acknowledge the tap so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logrus.WithError(err).Debug("failed to answer callback query")
	}

	switch {
	case callback.Data == "main_menu":
		b.dropSession(userID)
		b.showMainMenu(chatID)
	case callback.Data == "list_scenarios":
		b.dropSession(userID)
		b.showScenarios(chatID, userID)
	case callback.Data == "show_profile":
		b.showProfile(chatID, userID)
	case callback.Data == "restart":
		b.handleRestart(chatID, userID)
	case strings.HasPrefix(callback.Data, "practice:"):
		scenarioID := strings.TrimPrefix(callback.Data, "practice:")
		b.startPractice(chatID, userID, scenarioID)
	case strings.HasPrefix(callback.Data, "answer:"):
		b.handleAnswerCallback(chatID, userID, callback.Data)
	default:
		logrus.WithField("data", callback.Data).Debug("ignoring unknown callback")
	}
}

// handleAnswerCallback parses "answer:<turn>:<option>" and routes it to the
// session.
func (b *Bot) handleAnswerCallback(chatID, userID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	turnIndex, err1 := strconv.Atoi(parts[1])
	optionIndex, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return
	}
	b.handleAnswer(chatID, userID, turnIndex, optionIndex)
}

// send delivers a message, logging delivery failures
func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Error("failed to send message")
	}
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Main Menu - choose an option:")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎭 Practice Scenarios", CallbackData: "list_scenarios"},
		},
		{
			{Text: "👤 My Profile", CallbackData: "show_profile"},
		},
	}
}

// SendGoalReminder implements scheduler.Notifier
func (b *Bot) SendGoalReminder(userID int64, todayXP, dailyGoal int) error {
	if b.api == nil {
		return fmt.Errorf("bot is not started")
	}

	text := fmt.Sprintf("🎯 Daily goal check-in: %d / %d XP earned today.\n"+
		"A quick scenario will get you there!", todayXP, dailyGoal)
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎭 Practice now", CallbackData: "list_scenarios"}},
	})
	_, err := b.api.Send(msg)
	return err
}
