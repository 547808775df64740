package game

import (
	"github.com/opimenov/quizbot/internal/models"
)

// SessionFilter narrows session lookups. Zero values mean "no constraint".
type SessionFilter struct {
	ChatID    int64
	CreatorID int64
	Phases    []string
}

// PlayerResult is one row of a session's score table.
type PlayerResult struct {
	PlayerID int64
	Name     string
	Score    int
}

// SessionStore is durable game state: chats, sessions, session states,
// player-session and session-question associations. Every call is a direct
// parameterized read or write; no game rules live behind it.
type SessionStore interface {
	// Atomic runs fn against a store bound to a single transaction.
	// The engine wraps every mutating command in exactly one Atomic call.
	Atomic(fn func(SessionStore) error) error

	GetOrCreateChat(chatID int64) (*models.Chat, error)
	ListChatIDs() ([]int64, error)
	ChatIDsByPhase(phase string) ([]int64, error)
	ChatIDsNeedingSession() ([]int64, error)

	CreateSession(chatID, creatorID int64) (*models.GameSession, error)
	FindSession(filter SessionFilter) (*models.GameSession, error)
	LatestSession(chatID int64) (*models.GameSession, error)
	StateForUpdate(sessionID uint) (*models.SessionState, error)
	SetPhase(sessionID uint, phase string) error
	SetCurrentQuestion(sessionID uint, questionID *uint) error
	SetAnswerer(sessionID uint, playerID int64) error

	AddPlayerToSession(playerID int64, sessionID uint) error
	SessionPlayerIDs(sessionID uint, canAnswer *bool) ([]int64, error)
	AddPoints(sessionID uint, playerID int64, delta int) (int, error)
	ForbidAnswering(sessionID uint, playerID int64) error
	RestoreAnswering(sessionID uint) error

	AddQuestionsToSession(sessionID uint, questionIDs []uint) error
	SetQuestionAnswered(sessionID uint, questionID uint) error
	SessionQuestionIDs(sessionID uint, answered *bool) ([]uint, error)

	SessionResults(sessionID uint) ([]PlayerResult, error)
}

// QuizStore is read-only quiz content.
type QuizStore interface {
	ListThemes(limit int) ([]models.Theme, error)
	GetThemeByID(id uint) (*models.Theme, error)
	GetQuestionByID(id uint) (*models.Question, error)
	ListQuestionsByThemeAndPoints(themeID uint, points int) ([]models.Question, error)
	ListSessionQuestions(sessionID uint, answered *bool) ([]models.Question, error)
}

// PlayerStore creates players on first sight.
type PlayerStore interface {
	GetOrCreate(id int64, name string) (*models.Player, error)
}
