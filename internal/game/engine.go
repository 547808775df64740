package game

import (
	"sort"

	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/pkg/errors"
	"github.com/opimenov/quizbot/pkg/utils"
)

// Settings are the game tunables. ThemeAmount x len(QuestionPoints) is the
// size of the question grid drawn at run time.
type Settings struct {
	MinPlayers     int
	MaxPlayers     int
	ThemeAmount    int
	QuestionPoints []int
}

// Engine is the session state machine. It validates commands against the
// current phase and actor, mutates the session store, and decides the next
// phase and the outbound notifications. Guard violations are resolved into
// notifications; only storage failures surface as errors.
type Engine struct {
	sessions SessionStore
	quiz     QuizStore
	players  PlayerStore
	settings Settings
}

func NewEngine(sessions SessionStore, quiz QuizStore, players PlayerStore, settings Settings) *Engine {
	return &Engine{
		sessions: sessions,
		quiz:     quiz,
		players:  players,
		settings: settings,
	}
}

// ChatJoined registers a chat the bot was added to and greets it.
func (e *Engine) ChatJoined(chatID int64) ([]Notification, error) {
	if _, err := e.sessions.GetOrCreateChat(chatID); err != nil {
		return nil, err
	}
	return []Notification{
		{Kind: KindBotAddedToChat, ChatID: chatID},
		{Kind: KindInitial, ChatID: chatID},
	}, nil
}

// Start creates a new preparing session with the caller as creator, unless
// the chat already has a running session.
func (e *Engine) Start(chatID, playerID int64, playerName string) ([]Notification, error) {
	if _, err := e.players.GetOrCreate(playerID, playerName); err != nil {
		return nil, err
	}
	if _, err := e.sessions.GetOrCreateChat(chatID); err != nil {
		return nil, err
	}

	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		running, err := s.FindSession(SessionFilter{ChatID: chatID, Phases: models.RunningPhases()})
		if err != nil {
			return err
		}
		if running != nil {
			notifs = append(notifs, Notification{Kind: KindWrongStart, ChatID: chatID})
			return nil
		}

		session, err := s.CreateSession(chatID, playerID)
		if err != nil {
			return err
		}
		if err := s.AddPlayerToSession(playerID, session.ID); err != nil {
			return err
		}

		notifs = append(notifs,
			Notification{Kind: KindStarted, ChatID: chatID, PlayerID: playerID},
			Notification{Kind: KindPreparing, ChatID: chatID},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// Participate adds the caller to the chat's preparing session.
func (e *Engine) Participate(chatID, playerID int64, playerName string) ([]Notification, error) {
	if _, err := e.players.GetOrCreate(playerID, playerName); err != nil {
		return nil, err
	}

	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		session, state, err := e.lockSession(s, chatID, models.PhasePreparing)
		if err != nil {
			return err
		}
		if state == nil {
			notifs = append(notifs, Notification{Kind: KindNoPreparing, ChatID: chatID})
			return nil
		}

		playerIDs, err := s.SessionPlayerIDs(session.ID, nil)
		if err != nil {
			return err
		}
		if containsInt64(playerIDs, playerID) {
			notifs = append(notifs, Notification{Kind: KindPlayerAlready, ChatID: chatID, PlayerID: playerID})
			return nil
		}

		if err := s.AddPlayerToSession(playerID, session.ID); err != nil {
			return err
		}
		notifs = append(notifs, Notification{Kind: KindNewPlayerAdded, ChatID: chatID, PlayerID: playerID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// Run launches the quiz: draws the question grid, picks the first chooser
// at random and moves the session to waiting_question. Only the creator may
// run, the player count must be within bounds, and the content pool must be
// able to fill the whole grid; any guard failure leaves the session
// untouched.
func (e *Engine) Run(chatID, playerID int64) ([]Notification, error) {
	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		session, state, err := e.lockSession(s, chatID, models.PhasePreparing)
		if err != nil {
			return err
		}
		if state == nil {
			notifs = append(notifs, Notification{Kind: KindNoPreparing, ChatID: chatID})
			return nil
		}
		if session.CreatorID != playerID {
			notifs = append(notifs, Notification{
				Kind:      KindNotCreatorToRun,
				ChatID:    chatID,
				PlayerID:  playerID,
				CreatorID: session.CreatorID,
			})
			return nil
		}

		playerIDs, err := s.SessionPlayerIDs(session.ID, nil)
		if err != nil {
			return err
		}
		if len(playerIDs) < e.settings.MinPlayers {
			notifs = append(notifs, Notification{Kind: KindNotEnoughPlayers, ChatID: chatID})
			return nil
		}
		if len(playerIDs) > e.settings.MaxPlayers {
			notifs = append(notifs, Notification{Kind: KindTooManyPlayers, ChatID: chatID})
			return nil
		}

		grid, questionIDs, err := e.drawGrid()
		if err != nil {
			return err
		}
		if grid == nil {
			notifs = append(notifs, Notification{Kind: KindNoQuestionsInPool, ChatID: chatID})
			return nil
		}

		if err := s.AddQuestionsToSession(session.ID, questionIDs); err != nil {
			return err
		}
		answerer := utils.PickInt64(playerIDs)
		if err := s.SetAnswerer(session.ID, answerer); err != nil {
			return err
		}
		if err := s.SetPhase(session.ID, models.PhaseWaitingQuestion); err != nil {
			return err
		}

		notifs = append(notifs,
			Notification{Kind: KindStartQuiz, ChatID: chatID},
			Notification{Kind: KindChooseQuestion, ChatID: chatID, PlayerID: answerer, Grid: grid},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// ChooseQuestion sets the current question. Only the last answerer may
// choose, and only from the session's unanswered pool.
func (e *Engine) ChooseQuestion(chatID, playerID int64, questionID uint) ([]Notification, error) {
	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		session, state, err := e.lockSession(s, chatID, models.PhaseWaitingQuestion)
		if err != nil {
			return err
		}
		if state == nil {
			notifs = append(notifs, Notification{Kind: KindNoRunning, ChatID: chatID})
			return nil
		}
		if state.LastAnswerer == nil || *state.LastAnswerer != playerID {
			var answerer int64
			if state.LastAnswerer != nil {
				answerer = *state.LastAnswerer
			}
			notifs = append(notifs, Notification{Kind: KindNotLastAnswerer, ChatID: chatID, PlayerID: answerer})
			return nil
		}

		unanswered, err := s.SessionQuestionIDs(session.ID, boolPtr(false))
		if err != nil {
			return err
		}
		if !containsUint(unanswered, questionID) {
			notifs = append(notifs, Notification{Kind: KindAlreadyAnswered, ChatID: chatID})
			return nil
		}

		question, err := e.quiz.GetQuestionByID(questionID)
		if err != nil {
			if errors.IsNotFound(err) {
				notifs = append(notifs, Notification{Kind: KindNoRunning, ChatID: chatID})
				return nil
			}
			return err
		}

		if err := s.SetCurrentQuestion(session.ID, &questionID); err != nil {
			return err
		}
		if err := s.SetPhase(session.ID, models.PhaseWaitingAnswer); err != nil {
			return err
		}

		notifs = append(notifs, Notification{Kind: KindQuestion, ChatID: chatID, Question: question})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// ChooseAnswer applies the scoring algorithm for the current question.
func (e *Engine) ChooseAnswer(chatID, playerID int64, correct bool) ([]Notification, error) {
	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		session, state, err := e.lockSession(s, chatID, models.PhaseWaitingAnswer)
		if err != nil {
			return err
		}
		if state == nil || state.CurrentQuestion == nil {
			notifs = append(notifs, Notification{Kind: KindNoRunning, ChatID: chatID})
			return nil
		}

		eligible, err := s.SessionPlayerIDs(session.ID, boolPtr(true))
		if err != nil {
			return err
		}
		if !containsInt64(eligible, playerID) {
			notifs = append(notifs, Notification{Kind: KindCannotAnswer, ChatID: chatID, PlayerID: playerID})
			return nil
		}

		questionID := *state.CurrentQuestion
		question, err := e.quiz.GetQuestionByID(questionID)
		if err != nil {
			if errors.IsNotFound(err) {
				notifs = append(notifs, Notification{Kind: KindNoRunning, ChatID: chatID})
				return nil
			}
			return err
		}

		if correct {
			return e.onCorrectAnswer(s, session, playerID, question, &notifs)
		}
		return e.onWrongAnswer(s, session, state, playerID, question, &notifs)
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

func (e *Engine) onCorrectAnswer(s SessionStore, session *models.GameSession, playerID int64,
	question *models.Question, notifs *[]Notification) error {
	total, err := s.AddPoints(session.ID, playerID, question.Points)
	if err != nil {
		return err
	}
	if err := s.RestoreAnswering(session.ID); err != nil {
		return err
	}
	// The correct answerer chooses next regardless of whether questions remain
	if err := s.SetAnswerer(session.ID, playerID); err != nil {
		return err
	}
	if err := s.SetQuestionAnswered(session.ID, question.ID); err != nil {
		return err
	}
	if err := s.SetCurrentQuestion(session.ID, nil); err != nil {
		return err
	}

	*notifs = append(*notifs, Notification{
		Kind:        KindAnsweredCorrect,
		ChatID:      session.ChatID,
		PlayerID:    playerID,
		Points:      question.Points,
		TotalPoints: total,
	})
	return e.concludeRound(s, session, playerID, notifs)
}

func (e *Engine) onWrongAnswer(s SessionStore, session *models.GameSession, state *models.SessionState,
	playerID int64, question *models.Question, notifs *[]Notification) error {
	total, err := s.AddPoints(session.ID, playerID, -question.Points)
	if err != nil {
		return err
	}
	if err := s.ForbidAnswering(session.ID, playerID); err != nil {
		return err
	}

	*notifs = append(*notifs, Notification{
		Kind:        KindAnsweredWrong,
		ChatID:      session.ChatID,
		PlayerID:    playerID,
		Points:      -question.Points,
		TotalPoints: total,
	})

	remaining, err := s.SessionPlayerIDs(session.ID, boolPtr(true))
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		// Re-offer the same question to the players who still can answer
		*notifs = append(*notifs, Notification{Kind: KindQuestion, ChatID: session.ChatID, Question: question})
		return nil
	}

	var correctTitle string
	if answer := question.CorrectAnswer(); answer != nil {
		correctTitle = answer.Title
	}
	*notifs = append(*notifs, Notification{
		Kind:          KindNoPlayersLeft,
		ChatID:        session.ChatID,
		CorrectAnswer: correctTitle,
	})

	if err := s.SetQuestionAnswered(session.ID, question.ID); err != nil {
		return err
	}
	if err := s.SetCurrentQuestion(session.ID, nil); err != nil {
		return err
	}
	if err := s.RestoreAnswering(session.ID); err != nil {
		return err
	}

	// Nobody answered correctly, the previous chooser picks again
	var chooser int64
	if state.LastAnswerer != nil {
		chooser = *state.LastAnswerer
	}
	return e.concludeRound(s, session, chooser, notifs)
}

// concludeRound decides the next phase after a question round: back to
// waiting_question while unanswered questions remain, ended otherwise.
func (e *Engine) concludeRound(s SessionStore, session *models.GameSession, chooser int64,
	notifs *[]Notification) error {
	unanswered, err := s.SessionQuestionIDs(session.ID, boolPtr(false))
	if err != nil {
		return err
	}

	if len(unanswered) > 0 {
		if err := s.SetPhase(session.ID, models.PhaseWaitingQuestion); err != nil {
			return err
		}
		grid, err := e.buildGrid(session.ID)
		if err != nil {
			return err
		}
		*notifs = append(*notifs, Notification{
			Kind:     KindChooseQuestion,
			ChatID:   session.ChatID,
			PlayerID: chooser,
			Grid:     grid,
		})
		return nil
	}

	if err := s.SetPhase(session.ID, models.PhaseEnded); err != nil {
		return err
	}
	results, err := s.SessionResults(session.ID)
	if err != nil {
		return err
	}
	*notifs = append(*notifs, Notification{Kind: KindQuizEnded, ChatID: session.ChatID, Results: results})
	return nil
}

// Stop ends the running session early. Only the creator may stop.
func (e *Engine) Stop(chatID, playerID int64) ([]Notification, error) {
	var notifs []Notification
	err := e.sessions.Atomic(func(s SessionStore) error {
		session, state, err := e.lockSession(s, chatID, models.RunningPhases()...)
		if err != nil {
			return err
		}
		if state == nil {
			notifs = append(notifs, Notification{Kind: KindNoSessionToStop, ChatID: chatID})
			return nil
		}
		if session.CreatorID != playerID {
			notifs = append(notifs, Notification{
				Kind:      KindNotCreatorToStop,
				ChatID:    chatID,
				PlayerID:  playerID,
				CreatorID: session.CreatorID,
			})
			return nil
		}

		if err := s.SetPhase(session.ID, models.PhaseEnded); err != nil {
			return err
		}
		results, err := s.SessionResults(session.ID)
		if err != nil {
			return err
		}
		notifs = append(notifs, Notification{
			Kind:     KindQuizEndedOnStop,
			ChatID:   chatID,
			PlayerID: playerID,
			Results:  results,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// ShowResults reports the score table of the chat's most recent session,
// running or ended. Read-only.
func (e *Engine) ShowResults(chatID int64) ([]Notification, error) {
	session, err := e.sessions.LatestSession(chatID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []Notification{{Kind: KindNoResults, ChatID: chatID}}, nil
	}

	results, err := e.sessions.SessionResults(session.ID)
	if err != nil {
		return nil, err
	}
	return []Notification{{Kind: KindResults, ChatID: chatID, Results: results}}, nil
}

// AnnounceRestart produces the boot-time notifications: a restart notice
// for every known chat plus a re-prompt matching each chat's stored phase.
func (e *Engine) AnnounceRestart() ([]Notification, error) {
	var notifs []Notification

	chatIDs, err := e.sessions.ListChatIDs()
	if err != nil {
		return nil, err
	}
	for _, chatID := range chatIDs {
		notifs = append(notifs, Notification{Kind: KindRestart, ChatID: chatID})
	}

	needSession, err := e.sessions.ChatIDsNeedingSession()
	if err != nil {
		return nil, err
	}
	for _, chatID := range needSession {
		notifs = append(notifs, Notification{Kind: KindInitial, ChatID: chatID})
	}

	preparing, err := e.sessions.ChatIDsByPhase(models.PhasePreparing)
	if err != nil {
		return nil, err
	}
	for _, chatID := range preparing {
		notifs = append(notifs, Notification{Kind: KindPreparing, ChatID: chatID})
	}

	waitingQuestion, err := e.sessions.ChatIDsByPhase(models.PhaseWaitingQuestion)
	if err != nil {
		return nil, err
	}
	for _, chatID := range waitingQuestion {
		session, err := e.sessions.FindSession(SessionFilter{ChatID: chatID, Phases: []string{models.PhaseWaitingQuestion}})
		if err != nil {
			return nil, err
		}
		if session == nil {
			continue
		}
		state, err := e.sessions.StateForUpdate(session.ID)
		if err != nil {
			return nil, err
		}
		grid, err := e.buildGrid(session.ID)
		if err != nil {
			return nil, err
		}
		var answerer int64
		if state.LastAnswerer != nil {
			answerer = *state.LastAnswerer
		}
		notifs = append(notifs, Notification{Kind: KindChooseQuestion, ChatID: chatID, PlayerID: answerer, Grid: grid})
	}

	waitingAnswer, err := e.sessions.ChatIDsByPhase(models.PhaseWaitingAnswer)
	if err != nil {
		return nil, err
	}
	for _, chatID := range waitingAnswer {
		session, err := e.sessions.FindSession(SessionFilter{ChatID: chatID, Phases: []string{models.PhaseWaitingAnswer}})
		if err != nil {
			return nil, err
		}
		if session == nil {
			continue
		}
		state, err := e.sessions.StateForUpdate(session.ID)
		if err != nil {
			return nil, err
		}
		if state.CurrentQuestion == nil {
			continue
		}
		question, err := e.quiz.GetQuestionByID(*state.CurrentQuestion)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, Notification{Kind: KindQuestion, ChatID: chatID, Question: question})
	}

	return notifs, nil
}

// lockSession finds the chat's session in one of the given phases and
// locks its state row, re-validating the phase under the lock. Returns
// (nil, nil, nil) when no such session exists.
func (e *Engine) lockSession(s SessionStore, chatID int64, phases ...string) (*models.GameSession, *models.SessionState, error) {
	session, err := s.FindSession(SessionFilter{ChatID: chatID, Phases: phases})
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	state, err := s.StateForUpdate(session.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, phase := range phases {
		if state.Phase == phase {
			return session, state, nil
		}
	}
	// Phase moved between the lookup and the lock
	return nil, nil, nil
}

// drawGrid samples a random question for every (theme, points) cell.
// Returns a nil grid when the pool cannot fill the whole grid; nothing is
// mutated in that case.
func (e *Engine) drawGrid() (Grid, []uint, error) {
	themes, err := e.quiz.ListThemes(e.settings.ThemeAmount)
	if err != nil {
		return nil, nil, err
	}
	if len(themes) < e.settings.ThemeAmount {
		return nil, nil, nil
	}

	var grid Grid
	var questionIDs []uint
	for _, theme := range themes {
		row := GridRow{ThemeTitle: theme.Title}
		for _, points := range e.settings.QuestionPoints {
			candidates, err := e.quiz.ListQuestionsByThemeAndPoints(theme.ID, points)
			if err != nil {
				return nil, nil, err
			}
			if len(candidates) == 0 {
				return nil, nil, nil
			}
			question := candidates[utils.RandomIndex(len(candidates))]
			row.Cells = append(row.Cells, GridCell{QuestionID: question.ID, Points: points})
			questionIDs = append(questionIDs, question.ID)
		}
		grid = append(grid, row)
	}
	return grid, questionIDs, nil
}

// buildGrid reconstructs the unanswered part of a session's grid, ordered
// by theme id and points.
func (e *Engine) buildGrid(sessionID uint) (Grid, error) {
	questions, err := e.quiz.ListSessionQuestions(sessionID, boolPtr(false))
	if err != nil {
		return nil, err
	}

	byTheme := make(map[uint][]models.Question)
	for _, q := range questions {
		byTheme[q.ThemeID] = append(byTheme[q.ThemeID], q)
	}

	themeIDs := make([]uint, 0, len(byTheme))
	for themeID := range byTheme {
		themeIDs = append(themeIDs, themeID)
	}
	sort.Slice(themeIDs, func(i, j int) bool { return themeIDs[i] < themeIDs[j] })

	var grid Grid
	for _, themeID := range themeIDs {
		theme, err := e.quiz.GetThemeByID(themeID)
		if err != nil {
			return nil, err
		}
		cells := byTheme[themeID]
		sort.Slice(cells, func(i, j int) bool { return cells[i].Points < cells[j].Points })

		row := GridRow{ThemeTitle: theme.Title}
		for _, q := range cells {
			row.Cells = append(row.Cells, GridCell{QuestionID: q.ID, Points: q.Points})
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func containsInt64(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsUint(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func boolPtr(v bool) *bool {
	return &v
}
