package bot

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu.
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons.
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

// MainMenuButtons is the keyboard shown after /start and after most
// replies.
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📖 Learn", CallbackData: "menu:learn"}, {Text: "✏️ Practice", CallbackData: "menu:practice"}},
		{{Text: "🔁 Review", CallbackData: "menu:review"}, {Text: "🏠 Home", CallbackData: "menu:home"}},
	}
}

// chatState tracks one chat's in-progress exercise batch. The bot is the
// only place session state lives outside the database: a batch of
// exercises already fetched from the Assembler, being answered one at a
// time.
type chatState struct {
	kind      string // "learn", "practice", "review_display", "review_test"
	exercises []session.Exercise
	wordIDs   []string
	index     int
	answers   []session.PracticeAnswer
	// reviewWordIDs holds a display-phase batch awaiting confirmation.
	reviewWordIDs []string
}

// Bot is the Telegram transport over internal/session's Assembler. It
// holds no domain logic of its own: every answer it renders comes from
// the Assembler, and every tap it relays becomes a call into it.
type Bot struct {
	api          *tgbotapi.BotAPI
	assembler    *session.Assembler
	users        *database.UserRepository
	adminUserIDs map[int64]bool
	state        map[int64]*chatState
	config       *BotConfig
}

// New creates a new bot instance wired to the given Assembler.
func New(assembler *session.Assembler, users *database.UserRepository) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	b := &Bot{
		api:          api,
		assembler:    assembler,
		users:        users,
		adminUserIDs: make(map[int64]bool),
		state:        make(map[int64]*chatState),
		config:       DefaultConfig(),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: invalid admin user ID: %s", idStr)
				continue
			}
			b.adminUserIDs[id] = true
			b.config.AdminUserIDs = append(b.config.AdminUserIDs, id)
		}
	}

	return b, nil
}

// Start begins long-polling for updates. It blocks until Stop is
// called.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for update := range updates {
		b.handleUpdate(update)
	}
	return nil
}

// Stop halts update polling.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// SendReminder implements internal/reminder.Notifier: it renders a
// user's Home stats as a short nudge when Practice or Review is due.
func (b *Bot) SendReminder(telegramID int64, stats session.HomeStats) error {
	var text strings.Builder
	text.WriteString("⏰ Time for some vocabulary!\n\n")
	if stats.CanPractice {
		fmt.Fprintf(&text, "✏️ %d words ready to practice\n", stats.AvailablePractice)
	}
	if stats.CanReview {
		fmt.Fprintf(&text, "🔁 %d words ready to review\n", stats.AvailableReview)
	}
	msg := tgbotapi.NewMessage(telegramID, text.String())
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			return
		}
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /help to see what I can do.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStartCommand(message)
	case "help":
		b.handleHelpCommand(message)
	case "learn":
		b.handleLearnCommand(message)
	case "practice":
		b.handlePracticeCommand(message)
	case "review":
		b.handleReviewCommand(message)
	case "home":
		b.handleHomeCommand(message)
	case "pool":
		b.handlePoolCommand(message)
	case "reset":
		b.handleResetCommand(message)
	case "import":
		b.handleImportCommand(message)
	default:
		msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
	}
}

func (b *Bot) handleCallbackQuery(cb *tgbotapi.CallbackQuery) {
	ack := tgbotapi.NewCallback(cb.ID, "")
	b.api.Request(ack)

	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case data == "menu:learn":
		b.handleLearnCommand(cb.Message)
	case data == "menu:practice":
		b.handlePracticeCommand(cb.Message)
	case data == "menu:review":
		b.handleReviewCommand(cb.Message)
	case data == "menu:home":
		b.handleHomeCommand(cb.Message)
	case data == "learn:done":
		b.completeLearnBatch(chatID, cb.From.ID)
	case strings.HasPrefix(data, "ans:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "ans:"))
		if err != nil {
			return
		}
		b.recordAnswer(chatID, cb.From.ID, idx)
	case data == "self:ok":
		b.recordSelfGraded(chatID, cb.From.ID, true)
	case data == "self:bad":
		b.recordSelfGraded(chatID, cb.From.ID, false)
	case data == "review:confirm":
		b.confirmReviewDisplay(chatID, cb.From.ID)
	case data == "reset:confirm":
		b.performReset(chatID, cb.From.ID)
	case data == "reset:cancel":
		b.api.Send(tgbotapi.NewMessage(chatID, "Reset cancelled."))
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send failed: %v", err)
	}
}

func (b *Bot) sendWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send failed: %v", err)
	}
}

func (b *Bot) now() time.Time {
	return time.Now().UTC()
}
