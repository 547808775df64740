package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"github.com/opimenov/quizbot/internal/config"
	"github.com/opimenov/quizbot/internal/game"
	"github.com/opimenov/quizbot/internal/middleware"
	"github.com/opimenov/quizbot/internal/repositories"
	"github.com/opimenov/quizbot/internal/security"
	"github.com/opimenov/quizbot/pkg/logger"
)

// Bot wires Telegram updates to the game engine. Updates are dispatched to
// workers hashed by chat id, so commands of one chat are processed in
// order while different chats run in parallel.
type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	engine   *game.Engine
	players  game.PlayerStore
	renderer *Renderer
	limiter  *middleware.RateLimiter

	workerChans []chan tgbotapi.Update
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	sessionRepo := repositories.NewSessionRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	playerRepo := repositories.NewPlayerRepository(db)

	engine := game.NewEngine(sessionRepo, quizRepo, playerRepo, game.Settings{
		MinPlayers:     cfg.MinPlayers,
		MaxPlayers:     cfg.MaxPlayers,
		ThemeAmount:    cfg.ThemeAmount,
		QuestionPoints: cfg.QuestionPoints,
	})

	bot := &Bot{
		api:         api,
		config:      cfg,
		engine:      engine,
		players:     playerRepo,
		renderer:    NewRenderer(playerRepo),
		limiter:     middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerChat, time.Minute),
		workerChans: make([]chan tgbotapi.Update, cfg.Workers),
	}

	for i := 0; i < cfg.Workers; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	go bot.startUpdateListener()

	return bot, nil
}

// Stop halts the update feed. In-flight commands finish their transaction.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// AnnounceRestart replays the stored chat phases after a process restart:
// every known chat gets a restart notice plus a prompt matching where its
// game left off.
func (b *Bot) AnnounceRestart() {
	notifs, err := b.engine.AnnounceRestart()
	if err != nil {
		logger.Error("Failed to announce restart", "error", err)
		return
	}
	b.send(notifs)
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			chatID := updateChatID(update)
			if chatID == 0 {
				continue
			}

			// Hashed dispatch to workers to ensure per-chat ordered processing
			workerIdx := chatID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			b.workerChans[workerIdx] <- update
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(updates <-chan tgbotapi.Update) {
	for update := range updates {
		b.handleUpdate(update)
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	cmd, ok := ParseUpdate(update, b.api.Self.ID)
	if !ok {
		return
	}

	if update.CallbackQuery != nil {
		// Acknowledge the button press so the client stops spinning
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			logger.Debug("Failed to answer callback query", "error", err)
		}
	}

	if cmd.UserID != 0 && !b.limiter.Allow(cmd.UserID, cmd.ChatID) {
		logger.Warn("Rate limit exceeded", "user_id", cmd.UserID, "chat_id", cmd.ChatID)
		return
	}

	b.handleCommand(cmd)
}

func (b *Bot) handleCommand(cmd *Command) {
	name := security.SanitizeName(cmd.UserName)

	// Register the actor up front so guard notices about them can always
	// be rendered, even when their first action is a rejected command
	if cmd.UserID != 0 {
		if _, err := b.players.GetOrCreate(cmd.UserID, name); err != nil {
			logger.Error("Failed to register player", "user_id", cmd.UserID, "error", err)
		}
	}

	var notifs []game.Notification
	var err error
	switch cmd.Kind {
	case CmdChatJoined:
		notifs, err = b.engine.ChatJoined(cmd.ChatID)
	case CmdStart:
		notifs, err = b.engine.Start(cmd.ChatID, cmd.UserID, name)
	case CmdParticipate:
		notifs, err = b.engine.Participate(cmd.ChatID, cmd.UserID, name)
	case CmdRun:
		notifs, err = b.engine.Run(cmd.ChatID, cmd.UserID)
	case CmdQuestion:
		notifs, err = b.engine.ChooseQuestion(cmd.ChatID, cmd.UserID, cmd.QuestionID)
	case CmdAnswer:
		notifs, err = b.engine.ChooseAnswer(cmd.ChatID, cmd.UserID, cmd.Correct)
	case CmdStop:
		notifs, err = b.engine.Stop(cmd.ChatID, cmd.UserID)
	case CmdResults:
		notifs, err = b.engine.ShowResults(cmd.ChatID)
	default:
		return
	}

	if err != nil {
		logger.Error("Game command failed",
			"chat_id", cmd.ChatID,
			"user_id", cmd.UserID,
			"kind", cmd.Kind,
			"error", err,
		)
		notifs = []game.Notification{{Kind: game.KindTryAgain, ChatID: cmd.ChatID}}
	}

	b.send(notifs)
}

// send delivers notifications in order. Delivery failures are logged and
// do not affect the already committed game state.
func (b *Bot) send(notifs []game.Notification) {
	for _, n := range notifs {
		text, keyboard, err := b.renderer.Render(n)
		if err != nil {
			logger.Error("Failed to render notification", "kind", n.Kind, "chat_id", n.ChatID, "error", err)
			continue
		}

		msg := tgbotapi.NewMessage(n.ChatID, text)
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}
		if _, err := b.api.Send(msg); err != nil {
			logger.Error("Failed to send message", "kind", n.Kind, "chat_id", n.ChatID, "error", err)
		}
	}
}
