package repositories

import (
	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/pkg/errors"
	"gorm.io/gorm"
)

// QuizRepository is read-only access to quiz content. Game code never
// writes themes, questions or answers.
type QuizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// QuestionFilter narrows ListQuestions. Zero values mean "no constraint".
type QuestionFilter struct {
	ThemeID   uint
	Points    int
	SessionID uint
	Answered  *bool
	Limit     int
}

// ListThemes returns up to limit themes. Ordering is by id for
// deterministic grid layout.
func (r *QuizRepository) ListThemes(limit int) ([]models.Theme, error) {
	var themes []models.Theme
	query := r.db.Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&themes).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list themes")
	}
	return themes, nil
}

// GetThemeByID returns a theme or a NOT_FOUND error.
func (r *QuizRepository) GetThemeByID(id uint) (*models.Theme, error) {
	var theme models.Theme
	result := r.db.First(&theme, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "theme not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get theme")
	}

	return &theme, nil
}

// GetQuestionByID returns a question with its answers preloaded.
func (r *QuizRepository) GetQuestionByID(id uint) (*models.Question, error) {
	var question models.Question
	result := r.db.Preload("Answers").First(&question, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "question not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get question")
	}

	return &question, nil
}

// ListQuestions returns questions matching the filter, answers preloaded.
// An empty result is not an error.
func (r *QuizRepository) ListQuestions(filter QuestionFilter) ([]models.Question, error) {
	query := r.db.Preload("Answers").Order("questions.id ASC")

	if filter.SessionID != 0 {
		query = query.Joins(
			"JOIN session_questions ON session_questions.question_id = questions.id AND session_questions.session_id = ?",
			filter.SessionID,
		)
		if filter.Answered != nil {
			query = query.Where("session_questions.is_answered = ?", *filter.Answered)
		}
	}
	if filter.ThemeID != 0 {
		query = query.Where("questions.theme_id = ?", filter.ThemeID)
	}
	if filter.Points != 0 {
		query = query.Where("questions.points = ?", filter.Points)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list questions")
	}
	return questions, nil
}

// ListQuestionsByThemeAndPoints returns the candidate pool for one grid cell.
func (r *QuizRepository) ListQuestionsByThemeAndPoints(themeID uint, points int) ([]models.Question, error) {
	return r.ListQuestions(QuestionFilter{ThemeID: themeID, Points: points})
}

// ListSessionQuestions returns the questions attached to a session,
// optionally filtered on their answered flag.
func (r *QuizRepository) ListSessionQuestions(sessionID uint, answered *bool) ([]models.Question, error) {
	return r.ListQuestions(QuestionFilter{SessionID: sessionID, Answered: answered})
}
