package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      int64  `mapstructure:"ADMIN_CHAT_ID"`
	DB_URL           string `mapstructure:"DB_URL"`
	APIPort          string `mapstructure:"API_PORT"`
	CodeExpiryHours  int    `mapstructure:"CODE_EXPIRY_HOURS"`
	LogRetentionDays int    `mapstructure:"LOG_RETENTION_DAYS"`
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	viper.AddConfigPath(filepath.Dir(absPath))
	viper.SetConfigName(filepath.Base(absPath))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("API_PORT", "8080")
	viper.SetDefault("CODE_EXPIRY_HOURS", 24)
	viper.SetDefault("LOG_RETENTION_DAYS", 90)

	if err := viper.ReadInConfig(); err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}
