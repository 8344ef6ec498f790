package bot

import (
	"sync"

	"merchant-bot/config"
	"merchant-bot/internal/service"
	"merchant-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	API            *tgbotapi.BotAPI
	service        *service.Service
	logger         *utils.Logger
	config         *config.Config
	userStates     map[int64]string
	userActionData map[int64]string
	panelMessages  map[int64]int
	stateMutex     *sync.Mutex
	callbacks      map[string]callbackHandler
}

func NewBot(
	api *tgbotapi.BotAPI,
	svc *service.Service,
	logger *utils.Logger,
	config *config.Config,
) *Bot {
	b := &Bot{
		API:            api,
		service:        svc,
		logger:         logger,
		config:         config,
		userStates:     make(map[int64]string),
		userActionData: make(map[int64]string),
		panelMessages:  make(map[int64]int),
		stateMutex:     &sync.Mutex{},
	}
	b.callbacks = b.callbackRoutes()
	return b
}

func (b *Bot) Start() {
	b.logger.Info("Starting bot...")
	updates := b.API.GetUpdatesChan(tgbotapi.NewUpdate(0))
	for update := range updates {
		b.logger.Debugf("Received update: %+v", update)
		if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
			continue
		}
		if update.Message != nil {
			b.HandleUpdate(update)
		}
	}
}
