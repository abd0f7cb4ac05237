package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/pikttrainer/config"
	"github.com/korjavin/pikttrainer/database"
	"github.com/korjavin/pikttrainer/models"
	"github.com/korjavin/pikttrainer/questions"
	"github.com/korjavin/pikttrainer/quiz"
	"go.uber.org/zap"
)

const (
	cmdStart = "start"
	cmdNext  = "next"
	cmdHelp  = "help"
	cmdStat  = "stat"
	cmdReset = "reset"

	callbackToggle   = "toggle:"
	callbackCheck    = "check"
	callbackNext     = "next"
	callbackResetYes = "reset:yes"
	callbackResetNo  = "reset:no"
)

const helpText = `Commands:
/start - Start practicing
/next - Show the current question again, or move on after an answer
/stat - Show your progress
/reset - Forget all progress and start over
/help - Show this message`

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot renders quiz sessions into Telegram chats, one session per chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	store  database.Backend
	bank   *questions.Bank
	log    *zap.Logger

	mu    sync.Mutex
	chats map[int64]*chat
}

// chat is the presentation state of one chat.
type chat struct {
	session   *quiz.Session
	view      models.QuestionView
	selected  map[int]bool // by answer index
	messageID int          // message carrying the active keyboard
}

// New connects to Telegram.
func New(cfg *config.Config, store database.Backend, bank *questions.Bank, log *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.Env == config.EnvDevelopment

	b := newBot(botAPI, store, bank, log)
	b.api = botAPI
	return b, nil
}

func newBot(sender Sender, store database.Backend, bank *questions.Bank, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		sender: sender,
		store:  store,
		bank:   bank,
		log:    log,
		chats:  make(map[int64]*chat),
	}
}

// Start polls for updates until the update channel closes.
func (b *Bot) Start() {
	b.log.Info("starting bot polling", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for update := range updates {
		b.handleUpdate(update)
	}
}

// Stop stops polling.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(update.Message)
	}
}

// chatFor returns the chat state, opening its session on first use.
func (b *Bot) chatFor(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.chats[chatID]
	if !ok {
		session := quiz.NewSession(b.bank, database.NewNamespace(b.store, chatID), quiz.Options{
			Logger: b.log.With(zap.Int64("chat_id", chatID)),
		})
		c = &chat{session: session}
		b.chats[chatID] = c
	}
	return c
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	b.log.Debug("received message", zap.Int64("chat_id", chatID), zap.String("text", message.Text))

	if !message.IsCommand() {
		b.sendMessage(chatID, "Unknown command. Use /start to begin or /help for assistance.")
		return
	}

	switch message.Command() {
	case cmdStart:
		b.sendMessage(chatID, "Welcome! Questions you miss come back sooner, the ones you know move to the back of the line.\n\n"+helpText)
		b.showQuestion(chatID)
	case cmdNext:
		b.showQuestion(chatID)
	case cmdStat:
		b.handleStat(chatID)
	case cmdReset:
		msg := tgbotapi.NewMessage(chatID, "Really reset your progress?")
		msg.ReplyMarkup = resetKeyboard()
		b.send(msg)
	case cmdHelp:
		b.sendMessage(chatID, helpText)
	default:
		b.sendMessage(chatID, "Unknown command. Use /start to begin or /help for assistance.")
	}
}

// showQuestion presents the current question, moving on first if the last
// answer is still being reviewed.
func (b *Bot) showQuestion(chatID int64) {
	c := b.chatFor(chatID)
	if c.session.Phase() == quiz.Reviewing {
		if _, err := c.session.Advance(); err != nil {
			b.log.Error("failed to advance", zap.Int64("chat_id", chatID), zap.Error(err))
			b.sendMessage(chatID, "Sorry, something went wrong. Please try again.")
			return
		}
	}
	b.sendQuestion(chatID, c, c.session.Present())
}

func (b *Bot) sendQuestion(chatID int64, c *chat, view models.QuestionView) {
	c.view = view
	c.selected = make(map[int]bool)

	msg := tgbotapi.NewMessage(chatID, questionText(view, c.session.Counts()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = questionKeyboard(view, c.selected)

	sent, err := b.sender.Send(msg)
	if err != nil {
		b.log.Error("failed to send question", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	c.messageID = sent.MessageID
}

func (b *Bot) handleStat(chatID int64) {
	c := b.chatFor(chatID)
	counts := c.session.Counts()
	b.sendMessage(chatID, fmt.Sprintf("📊 Your progress (%d questions):\n\n%s", counts.Total(), countsLine(counts)))
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		b.answerCallback(callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID
	b.log.Debug("received callback", zap.Int64("chat_id", chatID), zap.String("data", callback.Data))

	switch {
	case strings.HasPrefix(callback.Data, callbackToggle):
		b.handleToggle(callback)
	case callback.Data == callbackCheck:
		b.handleCheck(callback)
	case callback.Data == callbackNext:
		b.handleNext(callback)
	case callback.Data == callbackResetYes:
		b.handleReset(callback)
	case callback.Data == callbackResetNo:
		b.answerCallback(callback.ID, "")
		b.send(tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID, "Reset cancelled."))
	default:
		b.log.Warn("invalid callback data", zap.String("data", callback.Data))
		b.answerCallback(callback.ID, "")
	}
}

// activeChat returns the chat if callback belongs to its active message.
func (b *Bot) activeChat(callback *tgbotapi.CallbackQuery) (*chat, bool) {
	c := b.chatFor(callback.Message.Chat.ID)
	if callback.Message.MessageID != c.messageID {
		b.answerCallback(callback.ID, "This question is no longer active.")
		return nil, false
	}
	return c, true
}

func (b *Bot) handleToggle(callback *tgbotapi.CallbackQuery) {
	c, ok := b.activeChat(callback)
	if !ok {
		return
	}
	if c.session.Phase() != quiz.Presenting {
		b.answerCallback(callback.ID, "Already checked. Press Next.")
		return
	}

	pos, err := strconv.Atoi(strings.TrimPrefix(callback.Data, callbackToggle))
	if err != nil || pos < 0 || pos >= len(c.view.Answers) {
		b.log.Warn("invalid toggle callback", zap.String("data", callback.Data))
		b.answerCallback(callback.ID, "")
		return
	}

	idx := c.view.Answers[pos].Index
	c.selected[idx] = !c.selected[idx]
	b.answerCallback(callback.ID, "")

	chatID := callback.Message.Chat.ID
	b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, c.messageID, questionKeyboard(c.view, c.selected)))
}

func (b *Bot) handleCheck(callback *tgbotapi.CallbackQuery) {
	c, ok := b.activeChat(callback)
	if !ok {
		return
	}
	chatID := callback.Message.Chat.ID

	var selections []int
	for idx, on := range c.selected {
		if on {
			selections = append(selections, idx)
		}
	}

	fb, err := c.session.Submit(selections)
	switch {
	case errors.Is(err, quiz.ErrState):
		b.answerCallback(callback.ID, "Already checked. Press Next.")
		return
	case err != nil:
		// The answer is graded in memory; only saving failed.
		b.log.Error("failed to save progress", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.answerCallback(callback.ID, "")

	text := feedbackText(c.view, fb)
	if err != nil {
		text += "\n\n⚠️ Progress could not be saved."
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, c.messageID, text, nextKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(edit)
}

func (b *Bot) handleNext(callback *tgbotapi.CallbackQuery) {
	c, ok := b.activeChat(callback)
	if !ok {
		return
	}
	chatID := callback.Message.Chat.ID

	view, err := c.session.Advance()
	if errors.Is(err, quiz.ErrState) {
		b.answerCallback(callback.ID, "Answer the question first.")
		return
	}
	if err != nil {
		b.log.Error("failed to advance", zap.Int64("chat_id", chatID), zap.Error(err))
		b.answerCallback(callback.ID, "Something went wrong.")
		return
	}
	b.answerCallback(callback.ID, "")

	// Drop the Next button from the answered question.
	b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, c.messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	}))
	b.sendQuestion(chatID, c, view)
}

func (b *Bot) handleReset(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	c := b.chatFor(chatID)

	view, err := c.session.Reset()
	if err != nil {
		b.log.Error("failed to save reset progress", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.answerCallback(callback.ID, "")
	b.log.Info("chat progress reset", zap.Int64("chat_id", chatID))

	b.send(tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID, "Progress reset."))
	b.sendQuestion(chatID, c, view)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.log.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("failed to answer callback", zap.Error(err))
	}
}
