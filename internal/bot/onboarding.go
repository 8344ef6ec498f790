package bot

import (
	"context"
	"fmt"
	"strings"

	"merchant-bot/internal/models"
	"merchant-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const mediaRequired = service.RequiredMedia

// showStep renders one step of the listing flow. Choice steps get an inline
// keyboard, text steps arm the text-input state, the media step arms the
// upload state.
func (b *Bot) showStep(ctx context.Context, chatID int64, merchant *models.Merchant, step int, draft *service.Draft) {
	view, err := b.service.RenderStep(ctx, merchant, step, draft)
	if err != nil {
		b.logger.Errorf("Failed to render step %d for %d: %v", step, chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	text := fmt.Sprintf("第%d步 / 共%d步 · %s\n\n%s", view.Step, view.Total, view.Title, view.Prompt)

	switch view.Kind {
	case service.StepText:
		b.setState(chatID, stateOnboardingText)
		b.sendMessage(chatID, text, nil)

	case service.StepMedia:
		b.setState(chatID, stateAwaitingMedia)
		b.sendMessage(chatID, text, mediaDoneKeyboard())

	default:
		b.setState(chatID, stateDefault)
		b.sendOrEditPanel(chatID, text, optionsKeyboard(view))
	}
}

// sendOrEditPanel reuses one message per chat for step rendering so option
// clicks update in place instead of flooding the chat.
func (b *Bot) sendOrEditPanel(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if msgID := b.getPanelMessage(chatID); msgID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, keyboard)
		if _, err := b.API.Send(edit); err == nil {
			return
		}
		b.clearPanelMessage(chatID)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	sent, err := b.API.Send(msg)
	if err != nil {
		b.logger.Errorf("Failed to send panel message: %v", err)
		return
	}
	b.setPanelMessage(chatID, sent.MessageID)
}

func optionsKeyboard(view *service.StepView) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range view.Options {
		label := opt.Label
		if opt.Selected {
			label = "✅ " + label
		}
		if opt.Disabled {
			label = "🚫 " + label
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, "noop:"),
			))
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "ans:"+opt.Value),
		))
	}
	if view.Kind == service.StepMulti {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("完成", "ans:done"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mediaDoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("完成", "ans:media_done"),
		),
	)
}

func (b *Bot) advanceFlow(ctx context.Context, chatID int64, merchant *models.Merchant, result *service.ApplyResult, draft *service.Draft) {
	if result.EditDone {
		b.setState(chatID, stateDefault)
		b.clearPanelMessage(chatID)
		b.sendMessage(chatID, T("edit_saved"), nil)
		b.showProfilePanel(ctx, chatID, merchant)
		return
	}
	if result.Done {
		b.setState(chatID, stateDefault)
		b.clearPanelMessage(chatID)
		b.sendMessage(chatID, T("flow_done"), nil)
		b.showProfilePanel(ctx, chatID, merchant)
		return
	}
	b.showStep(ctx, chatID, merchant, result.NextStep, draft)
}

// progressOverview summarizes which steps already hold an answer.
func progressOverview(draft *service.Draft, mediaCount int) string {
	type row struct {
		label string
		done  bool
	}
	rows := []row{
		{"商家类型", draft.MerchantType != ""},
		{"城市", draft.CityID != nil},
		{"区域", draft.DistrictID != nil},
		{"P价格", draft.PPrice != ""},
		{"PP价格", draft.PPPrice != ""},
		{"一句话优势", draft.AdvSentence != ""},
		{"频道", draft.ChannelUsername != ""},
		{"关键词", len(draft.KeywordIDs) > 0},
		{"发布时间", draft.PublishDate != "" && draft.PublishSlot != ""},
		{fmt.Sprintf("媒体（%d/%d）", mediaCount, mediaRequired), mediaCount >= mediaRequired},
	}

	var sb strings.Builder
	for _, r := range rows {
		if r.done {
			sb.WriteString("✅ ")
		} else {
			sb.WriteString("⬜ ")
		}
		sb.WriteString(r.label)
		sb.WriteString("\n")
	}
	return sb.String()
}
