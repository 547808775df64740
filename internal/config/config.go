package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application
	AppEnv   string
	LogLevel string

	// Rate limiting
	RateLimitPerUser int
	RateLimitPerChat int

	// Game
	MinPlayers     int
	MaxPlayers     int
	ThemeAmount    int
	QuestionPoints []int
	Workers        int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("BOT_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "quizbot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "quizbot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitPerChat: getEnvInt("RATE_LIMIT_PER_CHAT", 60),

		MinPlayers:  getEnvInt("MIN_PLAYERS", 1),
		MaxPlayers:  getEnvInt("MAX_PLAYERS", 8),
		ThemeAmount: getEnvInt("QUIZ_THEME_AMOUNT", 3),
		Workers:     getEnvInt("WORKERS", 10),
	}

	points, err := parsePoints(getEnv("QUESTION_POINTS", "100,200,300"))
	if err != nil {
		return nil, err
	}
	cfg.QuestionPoints = points

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("MIN_PLAYERS must be at least 1")
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("MAX_PLAYERS must be >= MIN_PLAYERS")
	}
	if c.ThemeAmount < 1 {
		return fmt.Errorf("QUIZ_THEME_AMOUNT must be at least 1")
	}
	if len(c.QuestionPoints) == 0 {
		return fmt.Errorf("QUESTION_POINTS must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func parsePoints(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	points := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid QUESTION_POINTS entry %q", p)
		}
		points = append(points, v)
	}
	return points, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
