package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/opimenov/quizbot/internal/config"
	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true, // engine commands open their own transactions
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Chat{},
		&models.Player{},
		&models.Theme{},
		&models.Question{},
		&models.Answer{},
		&models.GameSession{},
		&models.SessionState{},
		&models.PlayerSession{},
		&models.SessionQuestion{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedQuestions inserts a starter content pack sized to the configured
// grid (themeAmount themes, one question per point tier each), so a fresh
// deployment can run a full game under any configuration. Does nothing
// when enough themes already exist.
func SeedQuestions(db *gorm.DB, themeAmount int, points []int) error {
	if themeAmount < 1 || len(points) == 0 {
		return nil
	}

	var themeCount int64
	db.Model(&models.Theme{}).Count(&themeCount)
	if themeCount >= int64(themeAmount) {
		return nil
	}

	logger.Info("Seeding starter question pack...", "themes", themeAmount, "tiers", len(points))

	return db.Transaction(func(tx *gorm.DB) error {
		for _, st := range seedPlan(themeAmount, points) {
			theme := models.Theme{Title: st.title}
			if err := tx.Where(models.Theme{Title: st.title}).FirstOrCreate(&theme).Error; err != nil {
				return err
			}
			for _, sq := range st.questions {
				var existing models.Question
				err := tx.Where("title = ?", sq.title).First(&existing).Error
				if err == gorm.ErrRecordNotFound {
					question := models.Question{
						ThemeID: theme.ID,
						Title:   sq.title,
						Points:  sq.points,
						Answers: sq.answers(),
					}
					if err := tx.Create(&question).Error; err != nil {
						return err
					}
				} else if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

type seedTheme struct {
	title     string
	questions []seedQuestion
}

type seedQuestion struct {
	title   string
	points  int
	correct string
	wrong   []string
}

func (s seedQuestion) answers() []models.Answer {
	answers := []models.Answer{{Title: s.correct, IsCorrect: true}}
	for _, w := range s.wrong {
		answers = append(answers, models.Answer{Title: w})
	}
	return answers
}

// Curated content used first; plans larger than it are padded with
// generated arithmetic questions.
var starterPack = []seedTheme{
	{title: "История", questions: []seedQuestion{
		{title: "В каком году основан Санкт-Петербург?", correct: "1703", wrong: []string{"1698", "1712", "1725"}},
		{title: "Кто был первым императором России?", correct: "Пётр I", wrong: []string{"Иван IV", "Николай I", "Александр I"}},
		{title: "В каком веке произошла Куликовская битва?", correct: "XIV", wrong: []string{"XII", "XV", "XVI"}},
	}},
	{title: "Наука", questions: []seedQuestion{
		{title: "Какой элемент обозначается символом Fe?", correct: "Железо", wrong: []string{"Фтор", "Фосфор", "Франций"}},
		{title: "Какая планета ближе всех к Солнцу?", correct: "Меркурий", wrong: []string{"Венера", "Марс", "Земля"}},
		{title: "Сколько хромосом у человека?", correct: "46", wrong: []string{"42", "44", "48"}},
	}},
	{title: "География", questions: []seedQuestion{
		{title: "Какая река самая длинная в мире?", correct: "Нил", wrong: []string{"Амазонка", "Янцзы", "Миссисипи"}},
		{title: "Столица Австралии?", correct: "Канберра", wrong: []string{"Сидней", "Мельбурн", "Перт"}},
		{title: "Самое глубокое озеро планеты?", correct: "Байкал", wrong: []string{"Танганьика", "Каспийское", "Верхнее"}},
	}},
}

// seedPlan lays out themeAmount themes with exactly one question per point
// tier, drawing from the curated pack first and generating the rest.
func seedPlan(themeAmount int, points []int) []seedTheme {
	plan := make([]seedTheme, 0, themeAmount)
	for i := 0; i < themeAmount; i++ {
		var title string
		var pool []seedQuestion
		if i < len(starterPack) {
			title = starterPack[i].title
			pool = starterPack[i].questions
		} else {
			title = fmt.Sprintf("Разное %d", i-len(starterPack)+1)
		}

		st := seedTheme{title: title}
		for j, tier := range points {
			var sq seedQuestion
			if j < len(pool) {
				sq = pool[j]
			} else {
				sq = arithmeticQuestion(i, j)
			}
			sq.points = tier
			st.questions = append(st.questions, sq)
		}
		plan = append(plan, st)
	}
	return plan
}

// arithmeticQuestion generates filler content with a verifiable answer.
// The operands encode the grid cell, keeping question titles unique.
func arithmeticQuestion(themeIdx, tierIdx int) seedQuestion {
	a := 11 + themeIdx*7 + tierIdx
	b := 3 + tierIdx*5 + themeIdx
	sum := a + b
	return seedQuestion{
		title:   fmt.Sprintf("Сколько будет %d + %d?", a, b),
		correct: strconv.Itoa(sum),
		wrong:   []string{strconv.Itoa(sum - 1), strconv.Itoa(sum + 1), strconv.Itoa(sum + 2)},
	}
}
