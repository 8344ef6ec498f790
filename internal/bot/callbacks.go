package bot

import (
	"context"
	"strings"

	"merchant-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type callbackHandler func(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string)

// callbackRoutes maps the opcode prefix of callback data ("op:arg") onto its
// handler. New buttons register here instead of growing a prefix-matching
// chain.
func (b *Bot) callbackRoutes() map[string]callbackHandler {
	return map[string]callbackHandler{
		"noop":     func(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) { b.answerCallback(cb.ID, "") },
		"ans":      b.handleAnswerCallback,
		"submit":   b.handleSubmitCallback,
		"profile":  b.handleProfileCallback,
		"edit":     b.handleEditCallback,
		"set_type": b.handleSetTypeCallback,
		"adm_city": b.handleCityAdminCallback,
		"adm_dist": b.handleDistrictAdminCallback,
		"adm_slot": b.handleSlotAdminCallback,
	}
}

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()

	op, arg := callback.Data, ""
	if idx := strings.Index(callback.Data, ":"); idx >= 0 {
		op, arg = callback.Data[:idx], callback.Data[idx+1:]
	}

	handler, ok := b.callbacks[op]
	if !ok {
		b.logger.Warnf("Unknown callback opcode %q from user %d", op, callback.From.ID)
		b.answerCallback(callback.ID, "")
		return
	}

	b.service.LogActivity(ctx, callback.From.ID, models.ActionButtonClick, map[string]interface{}{
		"button": op,
	}, nil, nil)

	handler(ctx, callback, arg)
}

func (b *Bot) handleAnswerCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string) {
	chatID := cb.Message.Chat.ID

	merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
	if err != nil || merchant == nil {
		b.logger.Errorf("No merchant for answer callback from %d: %v", chatID, err)
		b.answerCallback(cb.ID, T("not_registered"))
		return
	}

	draft, err := b.service.LoadDraft(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}

	result, err := b.service.ApplyAnswer(ctx, merchant, draft.CurrentStep, arg, draft)
	if err != nil {
		b.logger.Errorf("Failed to apply answer for %d: %v", chatID, err)
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}
	if result.ErrorMsg != "" {
		// Alert without re-rendering; the keyboard stays as it was.
		b.answerCallback(cb.ID, result.ErrorMsg)
		return
	}

	b.answerCallback(cb.ID, "")
	b.advanceFlow(ctx, chatID, merchant, result, draft)
}

func (b *Bot) handleSubmitCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) {
	chatID := cb.Message.Chat.ID

	merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
	if err != nil || merchant == nil {
		b.answerCallback(cb.ID, T("not_registered"))
		return
	}

	draft, err := b.service.LoadDraft(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}

	result, err := b.service.SubmitForReview(ctx, merchant, draft)
	if err != nil {
		b.logger.Errorf("Failed to submit merchant %d: %v", merchant.ID, err)
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}

	switch {
	case len(result.Missing) > 0:
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, sprintfT("submit_missing", strings.Join(result.Missing, "、")), nil)
	case result.ErrorMsg != "":
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, result.ErrorMsg, nil)
	default:
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, T("submit_ok"), nil)
		b.notifyAdminNewSubmission(merchant)
	}
}

func (b *Bot) handleProfileCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) {
	chatID := cb.Message.Chat.ID
	merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
	if err != nil || merchant == nil {
		b.answerCallback(cb.ID, T("not_registered"))
		return
	}
	b.answerCallback(cb.ID, "")
	b.showProfilePanel(ctx, chatID, merchant)
}

var editableTextFields = map[string]string{
	"p_price":            "请输入新的P价格：",
	"pp_price":           "请输入新的PP价格：",
	"adv_sentence":       "请输入新的一句话优势：",
	"channel":            "请输入新的频道用户名：",
	"contact_info":       "请输入新的联系方式：",
	"custom_description": "请输入新的详细介绍：",
}

// stepEditFields are edited by re-entering the matching flow step widget
// rather than through a plain text prompt.
var stepEditFields = map[string]bool{
	"region":       true,
	"keywords":     true,
	"publish_time": true,
	"media":        true,
}

func (b *Bot) handleEditCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, field string) {
	chatID := cb.Message.Chat.ID

	if stepEditFields[field] {
		merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
		if err != nil || merchant == nil {
			b.answerCallback(cb.ID, T("not_registered"))
			return
		}
		draft, err := b.service.BeginFieldEdit(ctx, merchant, field)
		if err != nil {
			b.logger.Errorf("Failed to start %s edit for %d: %v", field, chatID, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		b.answerCallback(cb.ID, "")
		b.showStep(ctx, chatID, merchant, draft.CurrentStep, draft)
		return
	}

	if field == "merchant_type" {
		b.answerCallback(cb.ID, "")
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("老师", "set_type:teacher"),
				tgbotapi.NewInlineKeyboardButtonData("商家", "set_type:business"),
			),
		)
		b.sendMessage(chatID, "请选择新的类型：", keyboard)
		return
	}

	prompt, ok := editableTextFields[field]
	if !ok {
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}

	b.setUserActionData(chatID, field)
	b.setState(chatID, stateEditingField)
	b.answerCallback(cb.ID, "")
	b.sendMessage(chatID, prompt, nil)
}

func (b *Bot) handleSetTypeCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, value string) {
	chatID := cb.Message.Chat.ID
	merchant, err := b.service.GetMerchantByChatID(ctx, chatID)
	if err != nil || merchant == nil {
		b.answerCallback(cb.ID, T("not_registered"))
		return
	}

	errMsg, err := b.service.ApplyEdit(ctx, merchant, "merchant_type", value)
	if err != nil {
		b.logger.Errorf("Failed to set merchant type for %d: %v", chatID, err)
		b.answerCallback(cb.ID, T("generic_error"))
		return
	}
	if errMsg != "" {
		b.answerCallback(cb.ID, errMsg)
		return
	}
	b.answerCallback(cb.ID, "")
	b.showProfilePanel(ctx, chatID, merchant)
}
