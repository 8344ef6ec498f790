package main

import (
	"merchant-bot/config"
	"merchant-bot/db"
	"merchant-bot/internal/api"
	"merchant-bot/internal/bot"
	"merchant-bot/internal/repository"
	"merchant-bot/internal/service"
	"merchant-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	logger := utils.InitLogger()
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}

	database, err := db.ConnectDb(cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, true, logger); err != nil {
		logger.Fatal(err)
	}

	repo := repository.NewRepository(database, logger)
	svc, err := service.NewService(repo, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create service: ", err)
	}

	router := api.NewRouter(svc, logger)
	go func() {
		if err := router.Run(":" + cfg.APIPort); err != nil {
			logger.Fatal("API server stopped: ", err)
		}
	}()

	telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}

	merchantBot := bot.NewBot(telegramBot, svc, logger, &cfg)
	merchantBot.Start()
}
