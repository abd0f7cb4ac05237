package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/pikttrainer/models"
)

const (
	boxEmpty   = "☐"
	boxChecked = "☑"
)

func countsLine(c models.IndicatorCounts) string {
	return fmt.Sprintf("🆕 New: %d · ❌ Not learned: %d · ✅ Learned: %d", c.New, c.NotLearned, c.Learned)
}

func questionText(view models.QuestionView, counts models.IndicatorCounts) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("❓ <b>Question #%d</b>\n\n", view.QuestionID+1))
	sb.WriteString(html.EscapeString(view.Prompt))
	sb.WriteString("\n\nSelect every correct answer, then press Check.\n\n")
	sb.WriteString(countsLine(counts))
	return sb.String()
}

// questionKeyboard has one toggle row per answer in presentation order.
func questionKeyboard(view models.QuestionView, selected map[int]bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Answers)+1)
	for pos, a := range view.Answers {
		box := boxEmpty
		if selected[a.Index] {
			box = boxChecked
		}
		button := tgbotapi.NewInlineKeyboardButtonData(box+" "+a.Text, callbackToggle+strconv.Itoa(pos))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Check", callbackCheck),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func feedbackText(view models.QuestionView, fb models.Feedback) string {
	var sb strings.Builder
	if fb.Correct {
		sb.WriteString("✅ <b>Correct!</b>\n\n")
	} else {
		sb.WriteString("❌ <b>Incorrect!</b>\n\n")
	}
	sb.WriteString(fmt.Sprintf("<b>Question #%d</b>\n", view.QuestionID+1))
	sb.WriteString(html.EscapeString(view.Prompt))
	sb.WriteString("\n\n")

	for _, a := range fb.Answers {
		marker := "▫️"
		switch {
		case a.Correct:
			marker = "✅"
		case a.Selected:
			marker = "❌"
		}
		text := html.EscapeString(a.Text)
		if a.Selected {
			text = "<b>" + text + "</b>"
		}
		sb.WriteString(marker + " " + text + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(countsLine(fb.Counts))
	return sb.String()
}

func nextKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Next ➡️", callbackNext),
	))
}

func resetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Yes, reset", callbackResetYes),
		tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackResetNo),
	))
}
