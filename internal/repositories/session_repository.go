package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opimenov/quizbot/internal/game"
	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/pkg/errors"
)

// SessionRepository persists chats, game sessions, their state rows and the
// player/question associations. It implements game.SessionStore; Atomic
// hands the engine a copy of the repository bound to one transaction, so a
// whole engine command commits or rolls back as a unit.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Atomic runs fn inside a single database transaction.
func (r *SessionRepository) Atomic(fn func(store game.SessionStore) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// GetOrCreateChat registers a chat on first sight.
func (r *SessionRepository) GetOrCreateChat(chatID int64) (*models.Chat, error) {
	chat := models.Chat{ID: chatID}
	err := r.db.Where("id = ?", chatID).FirstOrCreate(&chat).Error
	if err != nil {
		if isDuplicateKey(err) {
			return &models.Chat{ID: chatID}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get or create chat")
	}
	return &chat, nil
}

// ListChatIDs returns every chat the bot has been added to.
func (r *SessionRepository) ListChatIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&models.Chat{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list chats")
	}
	return ids, nil
}

// ChatIDsByPhase returns chats whose latest session is in the given phase.
func (r *SessionRepository) ChatIDsByPhase(phase string) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&models.GameSession{}).
		Joins("JOIN session_states ON session_states.session_id = game_sessions.id").
		Where("session_states.phase = ?", phase).
		Order("game_sessions.chat_id ASC").
		Distinct().
		Pluck("game_sessions.chat_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list chats by phase")
	}
	return ids, nil
}

// ChatIDsNeedingSession returns chats with no running session, i.e. chats
// that should be re-prompted to start a game.
func (r *SessionRepository) ChatIDsNeedingSession() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&models.Chat{}).
		Where(`NOT EXISTS (
			SELECT 1 FROM game_sessions
			JOIN session_states ON session_states.session_id = game_sessions.id
			WHERE game_sessions.chat_id = chats.id AND session_states.phase IN ?
		)`, models.RunningPhases()).
		Order("chats.id ASC").
		Pluck("chats.id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list chats without sessions")
	}
	return ids, nil
}

// CreateSession creates a session together with its state row in the
// preparing phase.
func (r *SessionRepository) CreateSession(chatID, creatorID int64) (*models.GameSession, error) {
	session := models.GameSession{ChatID: chatID, CreatorID: creatorID}
	if err := r.db.Create(&session).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create session")
	}

	state := models.SessionState{SessionID: session.ID, Phase: models.PhasePreparing}
	if err := r.db.Create(&state).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create session state")
	}
	return &session, nil
}

// FindSession returns the newest session matching the filter, or nil when
// none matches.
func (r *SessionRepository) FindSession(filter game.SessionFilter) (*models.GameSession, error) {
	query := r.db.Model(&models.GameSession{}).Order("game_sessions.id DESC")

	if filter.ChatID != 0 {
		query = query.Where("game_sessions.chat_id = ?", filter.ChatID)
	}
	if filter.CreatorID != 0 {
		query = query.Where("game_sessions.creator_id = ?", filter.CreatorID)
	}
	if len(filter.Phases) > 0 {
		query = query.
			Joins("JOIN session_states ON session_states.session_id = game_sessions.id").
			Where("session_states.phase IN ?", filter.Phases)
	}

	var sessions []models.GameSession
	if err := query.Limit(1).Find(&sessions).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find session")
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// LatestSession returns the chat's most recent session in any phase, or nil.
func (r *SessionRepository) LatestSession(chatID int64) (*models.GameSession, error) {
	return r.FindSession(game.SessionFilter{ChatID: chatID})
}

// StateForUpdate loads a session's state row with a row lock. Inside
// Atomic this serializes concurrent commands against the same session.
func (r *SessionRepository) StateForUpdate(sessionID uint) (*models.SessionState, error) {
	var state models.SessionState
	result := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&state)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "session state not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to lock session state")
	}
	return &state, nil
}

func (r *SessionRepository) SetPhase(sessionID uint, phase string) error {
	err := r.db.Model(&models.SessionState{}).
		Where("session_id = ?", sessionID).
		Update("phase", phase).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set session phase")
	}
	return nil
}

func (r *SessionRepository) SetCurrentQuestion(sessionID uint, questionID *uint) error {
	err := r.db.Model(&models.SessionState{}).
		Where("session_id = ?", sessionID).
		Update("current_question", questionID).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set current question")
	}
	return nil
}

func (r *SessionRepository) SetAnswerer(sessionID uint, playerID int64) error {
	err := r.db.Model(&models.SessionState{}).
		Where("session_id = ?", sessionID).
		Update("last_answerer", playerID).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set answerer")
	}
	return nil
}

// AddPlayerToSession enrolls a player with a zero score and answering
// allowed. Adding the same player twice is an ALREADY_EXISTS error.
func (r *SessionRepository) AddPlayerToSession(playerID int64, sessionID uint) error {
	link := models.PlayerSession{PlayerID: playerID, SessionID: sessionID, CanAnswer: true}
	if err := r.db.Create(&link).Error; err != nil {
		if isDuplicateKey(err) {
			return errors.New(errors.ErrCodeAlreadyExists, "player already in session")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add player to session")
	}
	return nil
}

// SessionPlayerIDs returns the session's players, optionally only those
// with the given can_answer flag. Ordered by enrollment.
func (r *SessionRepository) SessionPlayerIDs(sessionID uint, canAnswer *bool) ([]int64, error) {
	query := r.db.Model(&models.PlayerSession{}).
		Where("session_id = ?", sessionID).
		Order("id ASC")
	if canAnswer != nil {
		query = query.Where("can_answer = ?", *canAnswer)
	}

	var ids []int64
	if err := query.Pluck("player_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list session players")
	}
	return ids, nil
}

// AddPoints adjusts a player's score by delta and returns the new total.
func (r *SessionRepository) AddPoints(sessionID uint, playerID int64, delta int) (int, error) {
	err := r.db.Model(&models.PlayerSession{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Update("score", gorm.Expr("score + ?", delta)).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to add points")
	}

	var link models.PlayerSession
	result := r.db.Where("session_id = ? AND player_id = ?", sessionID, playerID).First(&link)
	if result.Error == gorm.ErrRecordNotFound {
		return 0, errors.New(errors.ErrCodeNotFound, "player not in session")
	}
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to read score")
	}
	return link.Score, nil
}

func (r *SessionRepository) ForbidAnswering(sessionID uint, playerID int64) error {
	err := r.db.Model(&models.PlayerSession{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Update("can_answer", false).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to forbid answering")
	}
	return nil
}

// RestoreAnswering re-enables answering for every player of the session.
func (r *SessionRepository) RestoreAnswering(sessionID uint) error {
	err := r.db.Model(&models.PlayerSession{}).
		Where("session_id = ?", sessionID).
		Update("can_answer", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to restore answering")
	}
	return nil
}

// AddQuestionsToSession attaches the drawn grid questions in one insert.
func (r *SessionRepository) AddQuestionsToSession(sessionID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	links := make([]models.SessionQuestion, 0, len(questionIDs))
	for _, questionID := range questionIDs {
		links = append(links, models.SessionQuestion{SessionID: sessionID, QuestionID: questionID})
	}
	if err := r.db.Create(&links).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add questions to session")
	}
	return nil
}

func (r *SessionRepository) SetQuestionAnswered(sessionID uint, questionID uint) error {
	err := r.db.Model(&models.SessionQuestion{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Update("is_answered", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to mark question answered")
	}
	return nil
}

func (r *SessionRepository) SessionQuestionIDs(sessionID uint, answered *bool) ([]uint, error) {
	query := r.db.Model(&models.SessionQuestion{}).
		Where("session_id = ?", sessionID).
		Order("id ASC")
	if answered != nil {
		query = query.Where("is_answered = ?", *answered)
	}

	var ids []uint
	if err := query.Pluck("question_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list session questions")
	}
	return ids, nil
}

// SessionResults returns the score table ordered by score descending,
// then by enrollment for stable ties.
func (r *SessionRepository) SessionResults(sessionID uint) ([]game.PlayerResult, error) {
	var results []game.PlayerResult
	err := r.db.Model(&models.PlayerSession{}).
		Select("player_sessions.player_id AS player_id, players.name AS name, player_sessions.score AS score").
		Joins("JOIN players ON players.id = player_sessions.player_id").
		Where("player_sessions.session_id = ?", sessionID).
		Order("player_sessions.score DESC, player_sessions.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load session results")
	}
	return results, nil
}
