package telegram

import (
	"fmt"
	"strings"

	"github.com/opimenov/quizbot/internal/game"
	"github.com/opimenov/quizbot/pkg/errors"
)

// fallbackName stands in for players unknown to the directory.
const fallbackName = "Игрок"

// Fixed message texts. Player names are substituted by the renderer after
// the game transaction commits.
const (
	msgInitial          = "Игра пока не начата. Чтобы начать игру, нажмите кнопку 'Старт'"
	msgRestart          = "Бот был перезагружен"
	msgBotAddedToChat   = "Бот был добавлен в чат"
	msgPreparing        = "Для участия в игре нажмите кнопку 'Участвовать'\nКогда все будут готовы, нажмите 'Поехали'"
	msgStartQuiz        = "Игра началась!"
	msgWrongStart       = "Чтобы начать новую игру, завершите текущюю"
	msgNoPreparing      = "Игра либо уже начата, либо ещё не начата, дождитесь начала новой"
	msgNoRunning        = "Сейчас нельзя выбирать/отвечать на вопросы, сначала начните игру"
	msgNotEnoughPlayers = "Слишком мало игроков!"
	msgTooManyPlayers   = "Слишком много игроков!"
	msgAlreadyAnswered  = "Этот вопрос уже был, выбери другой!"
	msgNoSessionToStop  = "Нет идущих игровых сессий"
	msgNoResults        = "В базе нет результатов для этого чата!"
	msgNoQuestionsInDB  = "В базе не найдено вопросов! Сообщите администратору!"
	msgTryAgain         = "Что-то пошло не так, попробуйте ещё раз"
)

// NameResolver turns a player id into a display name.
type NameResolver interface {
	Name(id int64) (string, error)
}

// Renderer produces the outgoing message for a game notification: the text
// plus the inline keyboard matching the notification kind.
type Renderer struct {
	players NameResolver
}

func NewRenderer(players NameResolver) *Renderer {
	return &Renderer{players: players}
}

// name resolves a player id for message text. A player the directory has
// never seen (for example a chat member whose first action is a guard
// violation) gets the generic name so the notice is still delivered.
func (r *Renderer) name(id int64) (string, error) {
	name, err := r.players.Name(id)
	if err != nil {
		if errors.IsNotFound(err) {
			return fallbackName, nil
		}
		return "", err
	}
	return name, nil
}

// Render returns the message text and keyboard for a notification. The
// keyboard is nil for plain text messages.
func (r *Renderer) Render(n game.Notification) (string, *Keyboard, error) {
	switch n.Kind {
	case game.KindInitial:
		return msgInitial, InitialKeyboard(), nil
	case game.KindRestart:
		return msgRestart, nil, nil
	case game.KindBotAddedToChat:
		return msgBotAddedToChat, nil, nil
	case game.KindPreparing:
		return msgPreparing, PreparingKeyboard(), nil
	case game.KindStartQuiz:
		return msgStartQuiz, nil, nil
	case game.KindWrongStart:
		return msgWrongStart, nil, nil
	case game.KindNoPreparing:
		return msgNoPreparing, nil, nil
	case game.KindNoRunning:
		return msgNoRunning, nil, nil
	case game.KindNotEnoughPlayers:
		return msgNotEnoughPlayers, nil, nil
	case game.KindTooManyPlayers:
		return msgTooManyPlayers, nil, nil
	case game.KindAlreadyAnswered:
		return msgAlreadyAnswered, nil, nil
	case game.KindNoSessionToStop:
		return msgNoSessionToStop, nil, nil
	case game.KindNoResults:
		return msgNoResults, nil, nil
	case game.KindNoQuestionsInPool:
		return msgNoQuestionsInDB, nil, nil
	case game.KindTryAgain:
		return msgTryAgain, nil, nil

	case game.KindStarted:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Игрок %s нажал 'Старт'! %s, дождись других игроков, прежде чем продолжить",
			name, name), nil, nil

	case game.KindNewPlayerAdded:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Добавлен игрок %s", name), nil, nil

	case game.KindPlayerAlready:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Игрок %s уже добавлен", name), nil, nil

	case game.KindChooseQuestion:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s, выбирай вопрос!", name), QuestionsKeyboard(n.Grid), nil

	case game.KindQuestion:
		return fmt.Sprintf("Вопрос: %s", n.Question.Title), AnswersKeyboard(n.Question), nil

	case game.KindAnsweredCorrect:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s дал правильный ответ! Игрок получает %d очков, текущая сумма: %d",
			name, n.Points, n.TotalPoints), nil, nil

	case game.KindAnsweredWrong:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Неверный ответ! %s теряет %d очков, текущая сумма: %d",
			name, -n.Points, n.TotalPoints), nil, nil

	case game.KindNoPlayersLeft:
		return fmt.Sprintf("Все игроки ответили неверно, правильный ответ - %s", n.CorrectAnswer), nil, nil

	case game.KindQuizEnded:
		return fmt.Sprintf("Игра окончена, результаты: %s", resultsToString(n.Results)), nil, nil

	case game.KindQuizEndedOnStop:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Игра окончена игроком %s, результаты: %s",
			name, resultsToString(n.Results)), nil, nil

	case game.KindResults:
		return fmt.Sprintf("Результаты крайней игры: %s", resultsToString(n.Results)), nil, nil

	case game.KindNotLastAnswerer:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Выбирать вопрос сейчас может только %s", name), nil, nil

	case game.KindNotCreatorToRun:
		return r.renderCreatorGuard(n, "запустить игру может тот, кто нажал 'Старт'")

	case game.KindNotCreatorToStop:
		return r.renderCreatorGuard(n, "преждевременно завершить игру может тот, кто нажал 'Старт'")

	case game.KindCannotAnswer:
		name, err := r.name(n.PlayerID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s уже потратил свою попытку на ответ", name), nil, nil
	}

	return "", nil, fmt.Errorf("no message for notification kind %q", n.Kind)
}

func (r *Renderer) renderCreatorGuard(n game.Notification, reason string) (string, *Keyboard, error) {
	name, err := r.name(n.PlayerID)
	if err != nil {
		return "", nil, err
	}
	creator, err := r.name(n.CreatorID)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s, %s (%s)", name, reason, creator), nil, nil
}

func resultsToString(results []game.PlayerResult) string {
	parts := make([]string, 0, len(results))
	for _, row := range results {
		parts = append(parts, fmt.Sprintf("%s: %d", row.Name, row.Score))
	}
	return strings.Join(parts, ". ")
}
