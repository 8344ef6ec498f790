package bot

import (
	"context"

	"merchant-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// withMerchant resolves the sender's merchant record, if any, before running
// the handler. Unbound users get a nil merchant; handlers that need a binding
// check for that themselves.
func (b *Bot) withMerchant(handler func(context.Context, tgbotapi.Update, *models.Merchant)) func(tgbotapi.Update) {
	return func(update tgbotapi.Update) {
		ctx := context.Background()
		chatID := update.Message.Chat.ID

		merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
		if err != nil {
			b.logger.Errorf("Failed to get merchant for chat %d: %v", chatID, err)
			b.sendMessage(chatID, T("generic_error"), nil)
			return
		}

		handler(ctx, update, merchant)
	}
}
