package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/internal/excel"
	"github.com/example/wordpool/internal/session"
	"github.com/example/wordpool/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// ensureUser looks up the internal user for a Telegram sender, creating
// one on first contact. A lookup failure that isn't "no such user" is
// propagated rather than treated as a signal to create a duplicate.
func (b *Bot) ensureUser(from *tgbotapi.User) (*models.User, error) {
	user, err := b.users.GetByTelegramID(from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, corerr.ErrUnknownUser) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	newUser := &models.User{
		ID:                  uuid.NewString(),
		TelegramID:          from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		NotificationEnabled: true,
		NotificationHour:    9,
	}
	if err := b.users.Create(newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return newUser, nil
}

func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	if _, err := b.ensureUser(message.From); err != nil {
		b.send(message.Chat.ID, "Something went wrong setting up your account. Please try again.")
		return
	}

	welcomeText := "👋 Welcome to the vocabulary trainer!\n\n" +
		"/learn - learn new words\n" +
		"/practice - practice words you've learned\n" +
		"/review - review older words\n" +
		"/home - see your progress\n" +
		"/help - show this again"

	b.sendWithMenu(message.Chat.ID, welcomeText)
}

func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	text := "📖 How this works\n\n" +
		"Words move through a ladder of pools as you answer correctly: " +
		"new words start in Learn, then cycle through Practice at growing " +
		"intervals, occasionally dropping into Review if you get one wrong.\n\n" +
		"/learn - up to 5 brand-new words\n" +
		"/practice - words due for their next quiz\n" +
		"/review - older words due for re-exposure\n" +
		"/home - today's counts and what's coming up"
	b.sendWithMenu(message.Chat.ID, text)
}

func (b *Bot) handleLearnCommand(message *tgbotapi.Message) {
	user, err := b.ensureUser(message.From)
	if err != nil {
		b.send(message.Chat.ID, "Couldn't look up your account.")
		return
	}

	sess, err := b.assembler.GetLearnSession(context.Background(), user.ID, b.now())
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong building your Learn session.")
		return
	}
	if !sess.Available {
		b.sendWithMenu(message.Chat.ID, "No Learn session available right now: "+reasonText(sess.Reason))
		return
	}

	wordIDs := make([]string, len(sess.Words))
	for i, w := range sess.Words {
		wordIDs[i] = w.WordID
	}

	var text strings.Builder
	text.WriteString("📖 New words to learn:\n\n")
	for _, w := range sess.Words {
		fmt.Fprintf(&text, "• %s — %s\n", w.Word, w.Translation)
		if w.Sentence != "" {
			fmt.Fprintf(&text, "  %s\n", w.Sentence)
		}
	}
	text.WriteString("\nTap below once you've looked them over.")

	b.state[message.Chat.ID] = &chatState{kind: "learn", wordIDs: wordIDs}

	msg := tgbotapi.NewMessage(message.Chat.ID, text.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "✅ I've learned these", CallbackData: "learn:done"}}})
	b.api.Send(msg)
}

func (b *Bot) completeLearnBatch(chatID, telegramID int64) {
	st := b.state[chatID]
	if st == nil || st.kind != "learn" {
		return
	}
	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		b.send(chatID, "Couldn't look up your account.")
		return
	}

	result, err := b.assembler.CompleteLearn(context.Background(), user.ID, st.wordIDs, b.now())
	delete(b.state, chatID)
	if err != nil {
		b.send(chatID, "Something went wrong saving your progress.")
		return
	}

	b.sendWithMenu(chatID, fmt.Sprintf("Nice! %d words added to Practice. %d learned today.", result.WordsMoved, result.TodayLearned))
}

func (b *Bot) handlePracticeCommand(message *tgbotapi.Message) {
	user, err := b.ensureUser(message.From)
	if err != nil {
		b.send(message.Chat.ID, "Couldn't look up your account.")
		return
	}

	sess, err := b.assembler.GetPracticeSession(user.ID, b.now())
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong building your Practice session.")
		return
	}
	if !sess.Available {
		b.sendWithMenu(message.Chat.ID, "No Practice session available right now: "+reasonText(sess.Reason))
		return
	}

	b.state[message.Chat.ID] = &chatState{kind: "practice", exercises: sess.Exercises}
	b.renderCurrentExercise(message.Chat.ID)
}

func (b *Bot) handleReviewCommand(message *tgbotapi.Message) {
	user, err := b.ensureUser(message.From)
	if err != nil {
		b.send(message.Chat.ID, "Couldn't look up your account.")
		return
	}
	now := b.now()

	testSess, err := b.assembler.GetReviewTestSession(user.ID, now)
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong building your Review session.")
		return
	}
	if testSess.Available {
		b.state[message.Chat.ID] = &chatState{kind: "review_test", exercises: testSess.Exercises}
		b.renderCurrentExercise(message.Chat.ID)
		return
	}

	displaySess, err := b.assembler.GetReviewSession(user.ID, now)
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong building your Review session.")
		return
	}
	if !displaySess.Available {
		b.sendWithMenu(message.Chat.ID, "No Review session available right now: "+reasonText(displaySess.Reason))
		return
	}

	wordIDs := make([]string, len(displaySess.Words))
	for i, w := range displaySess.Words {
		wordIDs[i] = w.WordID
	}

	var text strings.Builder
	text.WriteString("🔁 Words coming up for review:\n\n")
	for _, w := range displaySess.Words {
		fmt.Fprintf(&text, "• %s — %s\n", w.Word, w.Translation)
	}
	text.WriteString("\nYou'll be quizzed on these in about 20 hours.")

	b.state[message.Chat.ID] = &chatState{kind: "review_display", reviewWordIDs: wordIDs}

	msg := tgbotapi.NewMessage(message.Chat.ID, text.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "✅ OK, seen them", CallbackData: "review:confirm"}}})
	b.api.Send(msg)
}

func (b *Bot) confirmReviewDisplay(chatID, telegramID int64) {
	st := b.state[chatID]
	if st == nil || st.kind != "review_display" {
		return
	}
	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		b.send(chatID, "Couldn't look up your account.")
		return
	}

	result, err := b.assembler.CompleteReview(user.ID, st.reviewWordIDs, b.now())
	delete(b.state, chatID)
	if err != nil {
		b.send(chatID, "Something went wrong saving your progress.")
		return
	}

	text := fmt.Sprintf("Got it, %d words marked as seen.", result.WordsCompleted)
	if result.NextPracticeTime != nil {
		text += fmt.Sprintf(" Come back around %s for the quiz.", result.NextPracticeTime.Format("Jan 2 15:04"))
	}
	b.sendWithMenu(chatID, text)
}

// renderCurrentExercise shows the exercise at the chat's current index,
// either as a multiple-choice card or a self-graded speaking prompt.
func (b *Bot) renderCurrentExercise(chatID int64) {
	st := b.state[chatID]
	if st == nil || st.index >= len(st.exercises) {
		return
	}
	ex := st.exercises[st.index]

	var text strings.Builder
	fmt.Fprintf(&text, "(%d/%d) %s\n", st.index+1, len(st.exercises), ex.Word)
	if ex.Sentence != "" {
		fmt.Fprintf(&text, "%s\n", ex.Sentence)
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	if len(ex.Options) > 0 {
		var row []MenuButton
		for i, opt := range ex.Options {
			row = append(row, MenuButton{Text: opt.Translation, CallbackData: fmt.Sprintf("ans:%d", i)})
		}
		msg.ReplyMarkup = createKeyboard([][]MenuButton{row})
	} else {
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{
			{Text: "✅ Got it right", CallbackData: "self:ok"},
			{Text: "❌ Got it wrong", CallbackData: "self:bad"},
		}})
	}
	b.api.Send(msg)
}

func (b *Bot) recordAnswer(chatID, telegramID int64, chosenIndex int) {
	st := b.state[chatID]
	if st == nil || st.index >= len(st.exercises) {
		return
	}
	ex := st.exercises[st.index]
	correct := ex.CorrectIndex != nil && *ex.CorrectIndex == chosenIndex
	st.answers = append(st.answers, session.PracticeAnswer{WordID: ex.WordID, Correct: correct})
	st.index++
	b.advanceOrSubmit(chatID, telegramID)
}

func (b *Bot) recordSelfGraded(chatID, telegramID int64, correct bool) {
	st := b.state[chatID]
	if st == nil || st.index >= len(st.exercises) {
		return
	}
	ex := st.exercises[st.index]
	st.answers = append(st.answers, session.PracticeAnswer{WordID: ex.WordID, Correct: correct})
	st.index++
	b.advanceOrSubmit(chatID, telegramID)
}

func (b *Bot) advanceOrSubmit(chatID, telegramID int64) {
	st := b.state[chatID]
	if st.index < len(st.exercises) {
		b.renderCurrentExercise(chatID)
		return
	}

	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		b.send(chatID, "Couldn't look up your account.")
		delete(b.state, chatID)
		return
	}

	switch st.kind {
	case "practice":
		result, err := b.assembler.SubmitPractice(user.ID, st.answers, b.now())
		delete(b.state, chatID)
		if err != nil {
			b.send(chatID, "Something went wrong saving your answers.")
			return
		}
		b.sendWithMenu(chatID, fmt.Sprintf("Done! %d correct, %d incorrect.", result.Summary.Correct, result.Summary.Incorrect))
	case "review_test":
		result, err := b.assembler.SubmitReview(user.ID, st.answers, b.now())
		delete(b.state, chatID)
		if err != nil {
			b.send(chatID, "Something went wrong saving your answers.")
			return
		}
		b.sendWithMenu(chatID, fmt.Sprintf("Done! %d correct, %d incorrect, %d back in Practice.",
			result.Summary.Correct, result.Summary.Incorrect, result.Summary.ReturnedToP))
	}
}

func (b *Bot) handleHomeCommand(message *tgbotapi.Message) {
	user, err := b.ensureUser(message.From)
	if err != nil {
		b.send(message.Chat.ID, "Couldn't look up your account.")
		return
	}

	stats, err := b.assembler.GetHomeStats(user.ID, b.now())
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong fetching your stats.")
		return
	}

	var text strings.Builder
	text.WriteString("🏠 Your progress\n\n")
	fmt.Fprintf(&text, "Learned today: %d\n", stats.TodayLearned)
	fmt.Fprintf(&text, "Completed today: %d\n", stats.TodayCompleted)
	fmt.Fprintf(&text, "Available to practice: %d\n", stats.AvailablePractice)
	fmt.Fprintf(&text, "Available to review: %d\n", stats.AvailableReview)
	fmt.Fprintf(&text, "Due in next 24h: %d\n", stats.Upcoming24h)
	if stats.NextAvailableTime != nil {
		fmt.Fprintf(&text, "\nNext session available around %s.", stats.NextAvailableTime.Format("Jan 2 15:04"))
	}

	b.sendWithMenu(message.Chat.ID, text.String())
}

func (b *Bot) handlePoolCommand(message *tgbotapi.Message) {
	if !b.isAdmin(message.From.ID) {
		b.sendWithMenu(message.Chat.ID, "This command is only available for administrators.")
		return
	}
	user, err := b.ensureUser(message.From)
	if err != nil {
		b.send(message.Chat.ID, "Couldn't look up your account.")
		return
	}

	pools, err := b.assembler.ListPool(user.ID)
	if err != nil {
		b.send(message.Chat.ID, "Something went wrong fetching the pool breakdown.")
		return
	}

	order := []string{"P0", "P1", "P2", "P3", "P4", "P5", "P6", "R1", "R2", "R3", "R4", "R5"}
	var text strings.Builder
	text.WriteString("📊 Pool breakdown\n\n")
	for _, pool := range order {
		entries := pools[pool]
		fmt.Fprintf(&text, "%s: %d\n", pool, len(entries))
	}
	b.sendWithMenu(message.Chat.ID, text.String())
}

func (b *Bot) handleResetCommand(message *tgbotapi.Message) {
	if !b.isAdmin(message.From.ID) {
		b.sendWithMenu(message.Chat.ID, "This command is only available for administrators.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "This wipes ALL of your learning progress. Are you sure?")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "⚠️ Yes, reset", CallbackData: "reset:confirm"},
		{Text: "Cancel", CallbackData: "reset:cancel"},
	}})
	b.api.Send(msg)
}

func (b *Bot) performReset(chatID, telegramID int64) {
	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		b.send(chatID, "Couldn't look up your account.")
		return
	}

	result, err := b.assembler.ResetProgress(user.ID)
	if err != nil {
		b.send(chatID, "Something went wrong resetting your progress.")
		return
	}
	b.sendWithMenu(chatID, fmt.Sprintf("Reset done. %d words returned to the start.", result.WordsReset))
}

// handleImportCommand runs an admin-only catalog load from a
// server-local Excel/CSV path: "/import /path/to/words.xlsx".
func (b *Bot) handleImportCommand(message *tgbotapi.Message) {
	if !b.isAdmin(message.From.ID) {
		b.sendWithMenu(message.Chat.ID, "This command is only available for administrators.")
		return
	}

	path := strings.TrimSpace(message.CommandArguments())
	if path == "" {
		b.send(message.Chat.ID, "Usage: /import /path/to/words.xlsx")
		return
	}

	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportWords(config)
	if err != nil {
		b.send(message.Chat.ID, fmt.Sprintf("Import failed: %v", err))
		return
	}

	text := fmt.Sprintf("Import complete: %d processed, %d created, %d updated, %d levels added, %d categories added.",
		result.TotalProcessed, result.Created, result.Updated, result.LevelsCreated, result.CategoriesCreated)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\n%d rows had errors (first: %s)", len(result.Errors), result.Errors[0])
	}
	b.sendWithMenu(message.Chat.ID, text)
}

func reasonText(reason string) string {
	switch reason {
	case "daily_limit_reached":
		return "you've hit today's learning limit."
	case "p1_pool_full":
		return "too many words waiting in the first practice step."
	case "no_words_in_p0":
		return "no new words left in the catalog."
	case "not_enough_words":
		return "not enough words are due yet."
	default:
		return reason
	}
}
