package bot

import (
	"strconv"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	mock_bot "github.com/korjavin/pikttrainer/bot/mock"
	"github.com/korjavin/pikttrainer/database"
	"github.com/korjavin/pikttrainer/models"
	"github.com/korjavin/pikttrainer/questions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 123

const testQuestions = `[
	{"question": "Pick the <even> numbers", "answers": [{"text": "2", "correct": true}, {"text": "3", "correct": false}, {"text": "4", "correct": true}]},
	{"question": "Sky color?", "answers": [{"text": "Blue", "correct": true}, {"text": "Green", "correct": false}]}
]`

func newTestBot(t *testing.T, store database.Backend) (*Bot, *mock_bot.MockSender) {
	t.Helper()
	bank, err := questions.Parse([]byte(testQuestions))
	require.NoError(t, err)

	sender := &mock_bot.MockSender{}
	return newBot(sender, store, bank, nil), sender
}

func command(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
}

func press(messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func lastCallbackText(t *testing.T, s *mock_bot.MockSender) string {
	t.Helper()
	require.NotEmpty(t, s.Requests)
	cb, ok := s.Requests[len(s.Requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	return cb.Text
}

// selectCorrect toggles every correct answer of the active question.
func selectCorrect(b *Bot) {
	c := b.chats[chatID]
	q := c.session.Current()
	for pos, a := range c.view.Answers {
		if q.Answers[a.Index].Correct {
			b.handleUpdate(press(c.messageID, callbackToggle+strconv.Itoa(pos)))
		}
	}
}

func TestBot_Start(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())

	b.handleUpdate(command("/start"))

	require.Len(t, sender.SentMessages, 2)
	welcome := sender.SentMessages[0].(tgbotapi.MessageConfig)
	assert.Contains(t, welcome.Text, "/reset")

	question := sender.SentMessages[1].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeHTML, question.ParseMode)
	assert.Contains(t, question.Text, "New: 2")

	c := b.chats[chatID]
	require.NotNil(t, c)
	assert.Equal(t, 2, c.messageID)

	markup, ok := question.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, markup.InlineKeyboard, len(c.view.Answers)+1)
	for pos, row := range markup.InlineKeyboard[:len(c.view.Answers)] {
		assert.Equal(t, boxEmpty+" "+c.view.Answers[pos].Text, row[0].Text)
	}
}

func TestBot_PromptIsEscaped(t *testing.T) {
	text := questionText(models.QuestionView{QuestionID: 0, Prompt: "Pick the <even> numbers"}, models.IndicatorCounts{})
	assert.Contains(t, text, "Pick the &lt;even&gt; numbers")
	assert.Contains(t, text, "Question #1")
}

func TestBot_ToggleEditsKeyboard(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	mock_bot.ClearSentMessages(sender)

	b.handleUpdate(press(c.messageID, callbackToggle+"0"))

	require.Len(t, sender.SentMessages, 1)
	edit, ok := sender.SentMessages[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, c.messageID, edit.MessageID)
	assert.Equal(t, boxChecked+" "+c.view.Answers[0].Text, edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	assert.True(t, c.selected[c.view.Answers[0].Index])

	b.handleUpdate(press(c.messageID, callbackToggle+"0"))
	assert.False(t, c.selected[c.view.Answers[0].Index])

	b.handleUpdate(press(c.messageID, callbackToggle+"9"))
	assert.Len(t, sender.SentMessages, 2, "out of range toggle should not edit")
}

func TestBot_CheckCorrect(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	id := c.session.Current().ID

	selectCorrect(b)
	mock_bot.ClearSentMessages(sender)
	b.handleUpdate(press(c.messageID, callbackCheck))

	require.Len(t, sender.SentMessages, 1)
	edit, ok := sender.SentMessages[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "Correct!")
	assert.Contains(t, edit.Text, "Learned: 1")
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, callbackNext, *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)

	assert.Equal(t, models.Learned, c.session.State(id))
}

func TestBot_CheckIncorrect(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	id := c.session.Current().ID
	mock_bot.ClearSentMessages(sender)

	b.handleUpdate(press(c.messageID, callbackCheck))

	edit := sender.SentMessages[0].(tgbotapi.EditMessageTextConfig)
	assert.Contains(t, edit.Text, "Incorrect!")
	assert.Contains(t, edit.Text, "✅")
	assert.Equal(t, models.NotLearned, c.session.State(id))
}

func TestBot_CheckTwice(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]

	b.handleUpdate(press(c.messageID, callbackCheck))
	mock_bot.ClearSentMessages(sender)
	b.handleUpdate(press(c.messageID, callbackCheck))

	assert.Empty(t, sender.SentMessages)
	assert.Equal(t, "Already checked. Press Next.", lastCallbackText(t, sender))
}

func TestBot_StaleMessage(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	mock_bot.ClearSentMessages(sender)

	b.handleUpdate(press(c.messageID-1, callbackCheck))

	assert.Empty(t, sender.SentMessages)
	assert.Equal(t, "This question is no longer active.", lastCallbackText(t, sender))
}

func TestBot_Next(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	answered := c.messageID

	b.handleUpdate(press(answered, callbackNext))
	assert.Equal(t, "Answer the question first.", lastCallbackText(t, sender))

	selectCorrect(b)
	b.handleUpdate(press(answered, callbackCheck))
	mock_bot.ClearSentMessages(sender)
	b.handleUpdate(press(answered, callbackNext))

	require.Len(t, sender.SentMessages, 2)
	_, ok := sender.SentMessages[0].(tgbotapi.EditMessageReplyMarkupConfig)
	assert.True(t, ok)
	question, ok := sender.SentMessages[1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, question.Text, "Learned: 1")
	assert.NotEqual(t, answered, c.messageID)
	assert.Empty(t, c.selected)
}

func TestBot_NextCommandWhileReviewing(t *testing.T) {
	b, _ := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	b.handleUpdate(press(c.messageID, callbackCheck))

	b.handleUpdate(command("/next"))

	assert.Equal(t, "Presenting", c.session.Phase().String())
}

func TestBot_Reset(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	selectCorrect(b)
	b.handleUpdate(press(c.messageID, callbackCheck))

	mock_bot.ClearSentMessages(sender)
	b.handleUpdate(command("/reset"))
	require.Len(t, sender.SentMessages, 1)
	confirm := sender.SentMessages[0].(tgbotapi.MessageConfig)
	assert.Equal(t, resetKeyboard(), confirm.ReplyMarkup)

	b.handleUpdate(press(1, callbackResetNo))
	assert.Equal(t, models.IndicatorCounts{New: 1, Learned: 1}, c.session.Counts())
	cancelled := sender.Last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, "Reset cancelled.", cancelled.Text)

	mock_bot.ClearSentMessages(sender)
	b.handleUpdate(press(1, callbackResetYes))

	require.Len(t, sender.SentMessages, 2)
	done := sender.SentMessages[0].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, "Progress reset.", done.Text)
	question := sender.SentMessages[1].(tgbotapi.MessageConfig)
	assert.Contains(t, question.Text, "New: 2")
	assert.Equal(t, models.IndicatorCounts{New: 2}, c.session.Counts())
}

func TestBot_Stat(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())

	b.handleUpdate(command("/stat"))

	msg := sender.Last().(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "2 questions")
	assert.Contains(t, msg.Text, "New: 2")
}

func TestBot_UnknownInput(t *testing.T) {
	b, sender := newTestBot(t, database.NewMemory())

	b.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "hello"}})
	b.handleUpdate(command("/dance"))

	require.Len(t, sender.SentMessages, 2)
	for _, m := range sender.SentMessages {
		assert.Contains(t, m.(tgbotapi.MessageConfig).Text, "Unknown command")
	}
}

func TestBot_ProgressSurvivesRestart(t *testing.T) {
	store := database.NewMemory()
	b, _ := newTestBot(t, store)
	b.handleUpdate(command("/start"))
	c := b.chats[chatID]
	selectCorrect(b)
	b.handleUpdate(press(c.messageID, callbackCheck))
	queue := c.session.QueueIDs()

	restarted, sender := newTestBot(t, store)
	restarted.handleUpdate(command("/stat"))

	assert.Contains(t, sender.Last().(tgbotapi.MessageConfig).Text, "Learned: 1")
	assert.Equal(t, queue, restarted.chats[chatID].session.QueueIDs())
}

func TestFeedbackText(t *testing.T) {
	view := models.QuestionView{QuestionID: 4, Prompt: "Q"}
	fb := models.Feedback{
		Correct: false,
		Answers: []models.AnswerFeedback{
			{Index: 1, Text: "right", Correct: true, Selected: false},
			{Index: 0, Text: "wrong", Correct: false, Selected: true},
			{Index: 2, Text: "other", Correct: false, Selected: false},
		},
		Counts: models.IndicatorCounts{New: 3, NotLearned: 1},
	}

	text := feedbackText(view, fb)

	assert.Contains(t, text, "Question #5")
	assert.Contains(t, text, "✅ right\n")
	assert.Contains(t, text, "❌ <b>wrong</b>\n")
	assert.Contains(t, text, "▫️ other\n")
	assert.Contains(t, text, "Not learned: 1")
}
