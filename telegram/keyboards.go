package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/opimenov/quizbot/internal/game"
	"github.com/opimenov/quizbot/internal/models"
)

// Keyboard wraps the inline markup so messages without one can carry nil.
type Keyboard = tgbotapi.InlineKeyboardMarkup

func controlRow(resultsLabel string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Завершить игру", CallbackStop),
		tgbotapi.NewInlineKeyboardButtonData(resultsLabel, CallbackResults),
	)
}

// InitialKeyboard offers to start a game or look at past results.
func InitialKeyboard() *Keyboard {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Старт", CallbackStart),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Предыдущие результаты", CallbackResults),
		),
	)
	return &kb
}

// PreparingKeyboard is shown while players are joining.
func PreparingKeyboard() *Keyboard {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Участвовать", CallbackParticipate),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Поехали", CallbackRun),
		),
		controlRow("Предыдущие результаты"),
	)
	return &kb
}

// QuestionsKeyboard renders the grid: one row per theme, one button per
// unanswered question labeled "<theme> <points>".
func QuestionsKeyboard(grid game.Grid) *Keyboard {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, gridRow := range grid {
		var row []tgbotapi.InlineKeyboardButton
		for _, cell := range gridRow.Cells {
			label := fmt.Sprintf("%s %d", gridRow.ThemeTitle, cell.Points)
			data := CallbackQuestion + strconv.FormatUint(uint64(cell.QuestionID), 10)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	rows = append(rows, controlRow("Текущие результаты"))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// AnswersKeyboard lists the question's answer options, one per row. The
// callback payload carries only whether the option is correct.
func AnswersKeyboard(question *models.Question) *Keyboard {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, answer := range question.Answers {
		data := CallbackAnswer + strconv.FormatBool(answer.IsCorrect)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(answer.Title, data),
		))
	}
	rows = append(rows, controlRow("Текущие результаты"))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
