package game

import (
	"github.com/opimenov/quizbot/internal/models"
)

// Kind identifies a user-visible game outcome. The dispatcher's message
// catalog and keyboards are keyed by it.
type Kind string

const (
	KindInitial           Kind = "initial"
	KindRestart           Kind = "restart"
	KindBotAddedToChat    Kind = "bot_added_to_chat"
	KindStarted           Kind = "started"
	KindPreparing         Kind = "preparing"
	KindNewPlayerAdded    Kind = "new_player_added"
	KindPlayerAlready     Kind = "player_already_added"
	KindStartQuiz         Kind = "start_quiz"
	KindChooseQuestion    Kind = "choose_question"
	KindQuestion          Kind = "question"
	KindAnsweredCorrect   Kind = "answered_correct"
	KindAnsweredWrong     Kind = "answered_wrong"
	KindNoPlayersLeft     Kind = "no_players_left"
	KindQuizEnded         Kind = "quiz_ended"
	KindQuizEndedOnStop   Kind = "quiz_ended_on_stop"
	KindResults           Kind = "results"
	KindNoResults         Kind = "no_results"
	KindWrongStart        Kind = "wrong_start"
	KindNoPreparing       Kind = "no_preparing_session"
	KindNoRunning         Kind = "no_running_session"
	KindNotLastAnswerer   Kind = "not_last_answerer"
	KindNotCreatorToRun   Kind = "not_creator_to_run"
	KindNotCreatorToStop  Kind = "not_creator_to_stop"
	KindNotEnoughPlayers  Kind = "not_enough_players"
	KindTooManyPlayers    Kind = "too_many_players"
	KindAlreadyAnswered   Kind = "question_already_answered"
	KindCannotAnswer      Kind = "can_not_answer"
	KindNoSessionToStop   Kind = "no_session_to_stop"
	KindNoQuestionsInPool Kind = "no_questions_in_db"
	KindTryAgain          Kind = "try_again"
)

// GridCell is one selectable question in the grid keyboard.
type GridCell struct {
	QuestionID uint
	Points     int
}

// GridRow is one theme's row of cells, ordered by points.
type GridRow struct {
	ThemeTitle string
	Cells      []GridCell
}

// Grid is the themes x point-tiers matrix of unanswered questions.
// It is ordered so keyboard rendering is deterministic.
type Grid []GridRow

// Notification is one outbound message the engine decided to send.
// A single command may produce several; they must be delivered in order.
type Notification struct {
	Kind Kind

	// ChatID is the destination chat.
	ChatID int64

	// PlayerID/CreatorID are referenced players whose display names the
	// dispatcher resolves outside the engine transaction.
	PlayerID  int64
	CreatorID int64

	// Question payload for question/answer notifications.
	Question *models.Question

	// Points is the delta applied, TotalPoints the player's new score.
	Points      int
	TotalPoints int

	// CorrectAnswer is revealed when a round ends with no players left.
	CorrectAnswer string

	// Grid accompanies choose_question notifications.
	Grid Grid

	// Results accompanies end-of-game and show-results notifications.
	Results []PlayerResult
}
