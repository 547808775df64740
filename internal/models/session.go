package models

import (
	"time"
)

// Chat is a group chat the bot has been added to. Telegram chat ids are
// used as primary keys directly.
type Chat struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Chat) TableName() string {
	return "chats"
}

// Player is a chat member known to the bot, created on first sight.
type Player struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Player) TableName() string {
	return "players"
}

// GameSession is one run of the quiz in a chat, from start to end/stop.
type GameSession struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null;index"`
	Chat      Chat      `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	CreatorID int64     `gorm:"not null;index"`
	Creator   Player    `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (GameSession) TableName() string {
	return "game_sessions"
}

// SessionState is the authoritative state-machine position of a session,
// exactly one row per game session. Mutated only by the game engine.
type SessionState struct {
	SessionID       uint        `gorm:"primaryKey;autoIncrement:false"`
	Session         GameSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Phase           string      `gorm:"type:varchar(20);not null;index"`
	CurrentQuestion *uint       `gorm:"index"`
	LastAnswerer    *int64      `gorm:"index"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime"`
}

func (SessionState) TableName() string {
	return "session_states"
}

// PlayerSession ties a player to a session with their score and the
// per-round can_answer flag.
type PlayerSession struct {
	ID        uint        `gorm:"primaryKey"`
	PlayerID  int64       `gorm:"not null;uniqueIndex:idx_player_session"`
	Player    Player      `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE"`
	SessionID uint        `gorm:"not null;uniqueIndex:idx_player_session;index"`
	Session   GameSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Score     int         `gorm:"not null;default:0"`
	CanAnswer bool        `gorm:"not null;default:true"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
}

func (PlayerSession) TableName() string {
	return "player_sessions"
}

// SessionQuestion marks a question as drawn into a session's grid.
type SessionQuestion struct {
	ID         uint        `gorm:"primaryKey"`
	SessionID  uint        `gorm:"not null;uniqueIndex:idx_session_question;index"`
	Session    GameSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	QuestionID uint        `gorm:"not null;uniqueIndex:idx_session_question"`
	Question   Question    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	IsAnswered bool        `gorm:"not null;default:false"`
}

func (SessionQuestion) TableName() string {
	return "session_questions"
}

// Session phases
const (
	PhasePreparing       = "preparing"
	PhaseWaitingQuestion = "waiting_question"
	PhaseWaitingAnswer   = "waiting_answer"
	PhaseEnded           = "ended"
)

// RunningPhases are the non-terminal phases; at most one session per chat
// may be in any of them.
func RunningPhases() []string {
	return []string{PhasePreparing, PhaseWaitingQuestion, PhaseWaitingAnswer}
}
