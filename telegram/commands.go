package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes for the inline keyboards.
const (
	CallbackStart       = "qz_start"
	CallbackParticipate = "qz_participate"
	CallbackRun         = "qz_run"
	CallbackQuestion    = "qz_question_"
	CallbackAnswer      = "qz_answer_"
	CallbackStop        = "qz_stop"
	CallbackResults     = "qz_results"
)

type CommandKind int

const (
	CmdStart CommandKind = iota
	CmdParticipate
	CmdRun
	CmdQuestion
	CmdAnswer
	CmdStop
	CmdResults
	CmdChatJoined
)

// Command is one recognized user action, extracted from a Telegram update.
type Command struct {
	Kind     CommandKind
	ChatID   int64
	UserID   int64
	UserName string

	// QuestionID is set for CmdQuestion.
	QuestionID uint
	// Correct is set for CmdAnswer.
	Correct bool
}

// ParseUpdate maps a Telegram update onto a game command. botID identifies
// the bot itself so its own chat joins are recognized. Returns false for
// updates the bot does not react to.
func ParseUpdate(update tgbotapi.Update, botID int64) (*Command, bool) {
	if update.CallbackQuery != nil {
		return parseCallback(update.CallbackQuery)
	}
	if update.Message != nil {
		return parseMessage(update.Message, botID)
	}
	return nil, false
}

func parseCallback(query *tgbotapi.CallbackQuery) (*Command, bool) {
	if query.Message == nil || query.From == nil {
		return nil, false
	}

	cmd := &Command{
		ChatID:   query.Message.Chat.ID,
		UserID:   query.From.ID,
		UserName: displayName(query.From),
	}

	data := query.Data
	switch {
	case data == CallbackStart:
		cmd.Kind = CmdStart
	case data == CallbackParticipate:
		cmd.Kind = CmdParticipate
	case data == CallbackRun:
		cmd.Kind = CmdRun
	case data == CallbackStop:
		cmd.Kind = CmdStop
	case data == CallbackResults:
		cmd.Kind = CmdResults
	case strings.HasPrefix(data, CallbackQuestion):
		id, err := strconv.ParseUint(strings.TrimPrefix(data, CallbackQuestion), 10, 32)
		if err != nil {
			return nil, false
		}
		cmd.Kind = CmdQuestion
		cmd.QuestionID = uint(id)
	case strings.HasPrefix(data, CallbackAnswer):
		correct, err := strconv.ParseBool(strings.TrimPrefix(data, CallbackAnswer))
		if err != nil {
			return nil, false
		}
		cmd.Kind = CmdAnswer
		cmd.Correct = correct
	default:
		return nil, false
	}
	return cmd, true
}

func parseMessage(message *tgbotapi.Message, botID int64) (*Command, bool) {
	// The bot joining a chat counts as a command so the chat gets greeted
	for _, member := range message.NewChatMembers {
		if member.ID == botID {
			return &Command{Kind: CmdChatJoined, ChatID: message.Chat.ID}, true
		}
	}

	if message.From == nil {
		return nil, false
	}

	cmd := &Command{
		ChatID:   message.Chat.ID,
		UserID:   message.From.ID,
		UserName: displayName(message.From),
	}

	switch message.Command() {
	case "game", "start":
		cmd.Kind = CmdStart
	case "results":
		cmd.Kind = CmdResults
	case "stop":
		cmd.Kind = CmdStop
	default:
		return nil, false
	}
	return cmd, true
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}
