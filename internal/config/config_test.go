package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("BOT_TOKEN", "test_bot_token")
	os.Setenv("DB_PASSWORD", "test_password")
	defer func() {
		os.Unsetenv("BOT_TOKEN")
		os.Unsetenv("DB_PASSWORD")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BotToken != "test_bot_token" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "test_bot_token")
	}

	if cfg.MinPlayers != 1 || cfg.MaxPlayers != 8 {
		t.Errorf("player bounds = %d..%d, want 1..8", cfg.MinPlayers, cfg.MaxPlayers)
	}

	if cfg.ThemeAmount != 3 {
		t.Errorf("ThemeAmount = %d, want 3", cfg.ThemeAmount)
	}

	if len(cfg.QuestionPoints) != 3 || cfg.QuestionPoints[0] != 100 || cfg.QuestionPoints[2] != 300 {
		t.Errorf("QuestionPoints = %v, want [100 200 300]", cfg.QuestionPoints)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "Missing BOT_TOKEN",
			envVars: map[string]string{
				"DB_PASSWORD": "password",
			},
		},
		{
			name: "Missing DB_PASSWORD",
			envVars: map[string]string{
				"BOT_TOKEN": "token",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("BOT_TOKEN")
			os.Unsetenv("DB_PASSWORD")
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			if _, err := LoadConfig(); err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_CustomGameSettings(t *testing.T) {
	envVars := map[string]string{
		"BOT_TOKEN":         "token",
		"DB_PASSWORD":       "password",
		"MIN_PLAYERS":       "2",
		"MAX_PLAYERS":       "4",
		"QUIZ_THEME_AMOUNT": "5",
		"QUESTION_POINTS":   "10, 20",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MinPlayers != 2 || cfg.MaxPlayers != 4 {
		t.Errorf("player bounds = %d..%d, want 2..4", cfg.MinPlayers, cfg.MaxPlayers)
	}
	if cfg.ThemeAmount != 5 {
		t.Errorf("ThemeAmount = %d, want 5", cfg.ThemeAmount)
	}
	if len(cfg.QuestionPoints) != 2 || cfg.QuestionPoints[1] != 20 {
		t.Errorf("QuestionPoints = %v, want [10 20]", cfg.QuestionPoints)
	}
}

func TestLoadConfig_InvalidBounds(t *testing.T) {
	envVars := map[string]string{
		"BOT_TOKEN":   "token",
		"DB_PASSWORD": "password",
		"MIN_PLAYERS": "5",
		"MAX_PLAYERS": "2",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for MAX_PLAYERS < MIN_PLAYERS")
	}
}
