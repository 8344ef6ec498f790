package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"merchant-bot/internal/models"
	"merchant-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// registrationTrigger starts the listing flow when sent as a plain message.
const registrationTrigger = "上榜流程"

func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	// Channel posts and other anonymous messages carry no sender.
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.withMerchant(func(ctx context.Context, update tgbotapi.Update, merchant *models.Merchant) {
		chatID := update.Message.Chat.ID
		userID := update.Message.From.ID
		text := strings.TrimSpace(update.Message.Text)

		b.logger.Infof("Processing message from user %d: %s", userID, text)

		if len(update.Message.Photo) > 0 || update.Message.Video != nil {
			b.handleMediaUpload(ctx, update, merchant)
			return
		}

		switch b.getUserState(userID) {
		case stateAwaitingBindingCode:
			b.handleBindingCodeInput(ctx, update, text)
			return
		case stateOnboardingText:
			b.handleOnboardingText(ctx, chatID, merchant, text)
			return
		case stateEditingField:
			b.handleEditInput(ctx, chatID, merchant, text)
			return
		case stateAwaitingCityName:
			b.handleCityNameInput(ctx, chatID, text)
			return
		case stateAwaitingDistrictName:
			b.handleDistrictNameInput(ctx, chatID, text)
			return
		case stateAwaitingSlotTime:
			b.handleSlotTimeInput(ctx, chatID, text)
			return
		}

		switch {
		case text == "/start":
			b.sendMessage(chatID, T("welcome"), nil)
		case text == registrationTrigger:
			b.handleRegistrationTrigger(ctx, chatID, update.Message.From, merchant)
		case strings.HasPrefix(text, "/gencode"):
			b.handleGenCode(ctx, chatID, userID, text)
		case text == "/codes":
			b.handleListCodes(ctx, chatID, userID)
		case text == "/cleanup":
			b.handleCleanup(ctx, chatID, userID)
		case text == "/regions":
			b.handleRegionsMenu(ctx, chatID, userID)
		case text == "/slots":
			b.handleSlotsMenu(ctx, chatID, userID)
		case text == "/stats":
			b.handleStats(ctx, chatID, userID)
		default:
			b.sendMessage(chatID, T("unknown_command"), nil)
		}
	})(update)
}

func (b *Bot) handleRegistrationTrigger(ctx context.Context, chatID int64, from *tgbotapi.User, merchant *models.Merchant) {
	b.service.LogActivity(ctx, chatID, models.ActionUserInteraction, map[string]interface{}{
		"trigger": registrationTrigger,
	}, nil, nil)

	if merchant != nil {
		draft, err := b.service.LoadDraft(ctx, chatID)
		if err != nil {
			b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
			b.sendMessage(chatID, T("generic_error"), nil)
			return
		}
		if merchant.Status == models.StatusPendingSubmission {
			b.sendMessage(chatID, T("flow_resume"), nil)
			b.showStep(ctx, chatID, merchant, draft.CurrentStep, draft)
			return
		}
		b.showProfilePanel(ctx, chatID, merchant)
		return
	}

	b.setState(chatID, stateAwaitingBindingCode)
	b.sendMessage(chatID, T("ask_binding_code"), nil)
}

func (b *Bot) handleBindingCodeInput(ctx context.Context, update tgbotapi.Update, code string) {
	chatID := update.Message.Chat.ID
	from := update.Message.From

	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	result, err := b.service.RedeemBindingCode(ctx, code, chatID, from.UserName, fullName)
	if err != nil {
		b.logger.Errorf("Failed to redeem binding code for %d: %v", chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	switch result.Reason {
	case service.RedeemBadFormat:
		b.sendMessage(chatID, T("code_bad_format"), nil)
	case service.RedeemInvalid:
		b.sendMessage(chatID, T("code_invalid"), nil)
		b.setState(chatID, stateDefault)
	case service.RedeemTaken:
		b.sendMessage(chatID, T("code_taken"), nil)
		b.setState(chatID, stateDefault)
	case service.RedeemAlreadyBound:
		b.setState(chatID, stateDefault)
		b.sendMessage(chatID, T("code_already_bound"), nil)
		b.showProfilePanel(ctx, chatID, result.Merchant)
	default:
		b.setState(chatID, stateDefault)
		b.sendMessage(chatID, T("code_accepted"), nil)
		draft, err := b.service.LoadDraft(ctx, chatID)
		if err != nil {
			b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
			return
		}
		b.showStep(ctx, chatID, result.Merchant, draft.CurrentStep, draft)
	}
}

func (b *Bot) handleOnboardingText(ctx context.Context, chatID int64, merchant *models.Merchant, text string) {
	if merchant == nil {
		b.setState(chatID, stateDefault)
		b.sendMessage(chatID, T("not_registered"), nil)
		return
	}

	draft, err := b.service.LoadDraft(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	result, err := b.service.ApplyAnswer(ctx, merchant, draft.CurrentStep, text, draft)
	if err != nil {
		b.logger.Errorf("Failed to apply answer for %d: %v", chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	if result.ErrorMsg != "" {
		b.sendMessage(chatID, result.ErrorMsg, nil)
		return
	}

	b.setState(chatID, stateDefault)
	b.advanceFlow(ctx, chatID, merchant, result, draft)
}

func (b *Bot) handleEditInput(ctx context.Context, chatID int64, merchant *models.Merchant, text string) {
	field := b.getUserActionData(chatID)
	b.clearUserActionData(chatID)
	b.setState(chatID, stateDefault)

	if merchant == nil || field == "" {
		b.sendMessage(chatID, T("not_registered"), nil)
		return
	}

	errMsg, err := b.service.ApplyEdit(ctx, merchant, field, text)
	if err != nil {
		b.logger.Errorf("Failed to edit field %s for %d: %v", field, chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	if errMsg != "" {
		b.sendMessage(chatID, errMsg, nil)
		return
	}
	b.showProfilePanel(ctx, chatID, merchant)
}

func (b *Bot) handleMediaUpload(ctx context.Context, update tgbotapi.Update, merchant *models.Merchant) {
	chatID := update.Message.Chat.ID

	if merchant == nil {
		b.sendMessage(chatID, T("not_registered"), nil)
		return
	}
	if b.getUserState(chatID) != stateAwaitingMedia {
		return
	}

	fileID, mediaType := extractMedia(update.Message)
	if fileID == "" {
		return
	}

	result, err := b.service.AddMedia(ctx, merchant.ID, fileID, mediaType)
	if err != nil {
		b.logger.Errorf("Failed to store media for merchant %d: %v", merchant.ID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	if result.Replaced {
		b.sendMessage(chatID, T("media_replaced"), nil)
	} else {
		b.sendMessage(chatID, fmt.Sprintf(T("media_saved"), result.Count), nil)
	}

	if result.Count >= mediaRequired {
		b.sendMessage(chatID, "媒体已集齐，点击“完成”继续。", mediaDoneKeyboard())
	}
}

func extractMedia(msg *tgbotapi.Message) (fileID, mediaType string) {
	if len(msg.Photo) > 0 {
		// Telegram sends multiple sizes; the last is the largest.
		return msg.Photo[len(msg.Photo)-1].FileID, "photo"
	}
	if msg.Video != nil {
		return msg.Video.FileID, "video"
	}
	return "", ""
}

func parseUintArg(raw string) (uint, bool) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
