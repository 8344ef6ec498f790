package bot

import (
	"context"
	"fmt"
	"strings"

	"merchant-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showProfilePanel renders the merchant's profile with per-field edit buttons
// and, while unsubmitted, the submit button.
func (b *Bot) showProfilePanel(ctx context.Context, chatID int64, merchant *models.Merchant) {
	draft, err := b.service.LoadDraft(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load draft for %d: %v", chatID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	media, err := b.service.ListMedia(ctx, merchant.ID)
	if err != nil {
		b.logger.Errorf("Failed to list media for merchant %d: %v", merchant.ID, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	keywords, err := b.service.MerchantKeywords(ctx, merchant.ID)
	if err != nil {
		b.logger.Errorf("Failed to list keywords for merchant %d: %v", merchant.ID, err)
		keywords = nil
	}

	var sb strings.Builder
	sb.WriteString(T("profile_title"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("状态：%s\n", models.StatusDisplayName(merchant.Status)))
	sb.WriteString(fmt.Sprintf("类型：%s\n", typeDisplayName(merchant.MerchantType)))
	if merchant.City != nil {
		sb.WriteString(fmt.Sprintf("城市：%s\n", merchant.City.Name))
	}
	if merchant.District != nil {
		sb.WriteString(fmt.Sprintf("区域：%s\n", merchant.District.Name))
	}
	if merchant.PPrice != "" {
		sb.WriteString(fmt.Sprintf("P价格：%s\n", merchant.PPrice))
	}
	if merchant.PPPrice != "" {
		sb.WriteString(fmt.Sprintf("PP价格：%s\n", merchant.PPPrice))
	}
	if merchant.AdvSentence != "" {
		sb.WriteString(fmt.Sprintf("一句话优势：%s\n", merchant.AdvSentence))
	}
	if merchant.ChannelUsername != "" {
		sb.WriteString(fmt.Sprintf("频道：%s\n", merchant.ChannelUsername))
	}
	if merchant.ContactInfo != "" {
		sb.WriteString(fmt.Sprintf("联系方式：%s\n", merchant.ContactInfo))
	}
	if len(keywords) > 0 {
		names := make([]string, 0, len(keywords))
		for _, k := range keywords {
			names = append(names, k.Name)
		}
		sb.WriteString(fmt.Sprintf("关键词：%s\n", strings.Join(names, "、")))
	}
	if merchant.PublishTime != nil {
		sb.WriteString(fmt.Sprintf("发布时间：%s\n", merchant.PublishTime.Format("2006-01-02 15:04")))
	}

	if merchant.Status == models.StatusPendingSubmission {
		sb.WriteString("\n")
		sb.WriteString(progressOverview(draft, len(media)))
	}

	b.sendMessage(chatID, sb.String(), profileKeyboard(merchant))
}

func typeDisplayName(merchantType string) string {
	switch merchantType {
	case "teacher":
		return "老师"
	case "business":
		return "商家"
	default:
		return "未设置"
	}
}

func profileKeyboard(merchant *models.Merchant) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ 类型", "edit:merchant_type"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ P价格", "edit:p_price"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ PP价格", "edit:pp_price"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ 优势", "edit:adv_sentence"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ 频道", "edit:channel"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ 联系方式", "edit:contact_info"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ 区域", "edit:region"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ 关键词", "edit:keywords"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ 发布时间", "edit:publish_time"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ 媒体资料", "edit:media"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ 详细介绍", "edit:custom_description"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 刷新", "profile:"),
		},
	}

	if merchant.Status == models.StatusPendingSubmission {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📤 提交审核", "submit:"),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) notifyAdminNewSubmission(merchant *models.Merchant) {
	if b.config.AdminChatID == 0 {
		return
	}
	text := fmt.Sprintf("📥 新的上榜申请 #%d\n名称：%s\n类型：%s", merchant.ID, merchant.Name, typeDisplayName(merchant.MerchantType))
	b.sendMessage(b.config.AdminChatID, text, nil)
}
