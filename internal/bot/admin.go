package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"merchant-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// /gencode [hours] — omitted or zero picks the configured default, a negative
// value makes a non-expiring code.
func (b *Bot) handleGenCode(ctx context.Context, chatID, userID int64, text string) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	hours := b.config.CodeExpiryHours
	fields := strings.Fields(text)
	if len(fields) > 1 {
		parsed, err := strconv.Atoi(fields[1])
		if err != nil {
			b.sendMessage(chatID, "用法：/gencode [小时数]", nil)
			return
		}
		hours = parsed
	}

	code, err := b.service.GenerateBindingCode(ctx, hours)
	if err != nil {
		b.logger.Errorf("Failed to generate binding code: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	expiry := "永久有效"
	if code.ExpiresAt != nil {
		expiry = code.ExpiresAt.Format("2006-01-02 15:04")
	}
	b.sendMessage(chatID, fmt.Sprintf("🎫 新绑定码：%s\n有效期至：%s", code.Code, expiry), nil)
}

func (b *Bot) handleListCodes(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	codes, err := b.service.ListBindingCodes(ctx, 20)
	if err != nil {
		b.logger.Errorf("Failed to list binding codes: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	stats, err := b.service.GetBindingCodeStats(ctx)
	if err != nil {
		b.logger.Errorf("Failed to get binding code stats: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎫 绑定码统计\n总数：%d，已用：%d，可用：%d，已过期：%d\n最近7天使用：%d（使用率 %.0f%%）\n\n最近20个：\n",
		stats.Total, stats.Used, stats.Valid, stats.Expired, stats.RecentUsed, stats.UsageRate*100))
	for _, c := range codes {
		mark := "⬜"
		if c.IsUsed {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, c.Code))
	}
	b.sendMessage(chatID, sb.String(), nil)
}

func (b *Bot) handleCleanup(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	codes, err := b.service.CleanupExpiredCodes(ctx)
	if err != nil {
		b.logger.Errorf("Cleanup of expired codes failed: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	logs, err := b.service.CleanupOldLogs(ctx, b.config.LogRetentionDays)
	if err != nil {
		b.logger.Errorf("Cleanup of old logs failed: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	b.service.LogActivity(ctx, userID, models.ActionAdminAction, map[string]interface{}{
		"action":        "cleanup",
		"codes_deleted": codes,
		"logs_deleted":  logs,
	}, nil, nil)
	b.sendMessage(chatID, fmt.Sprintf("🧹 清理完成：删除过期绑定码 %d 个，过期日志 %d 条。", codes, logs), nil)
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	dashboard, err := b.service.GetDashboardStats(ctx, 7)
	if err != nil {
		b.logger.Errorf("Failed to build dashboard stats: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 近7天统计\n\n")
	sb.WriteString(fmt.Sprintf("事件总数：%d\n活跃用户：%d\n高峰时段：%02d:00\n\n", dashboard.Activity.TotalEvents, dashboard.Activity.ActiveUsers, dashboard.Activity.PeakHour))

	sb.WriteString(fmt.Sprintf("商家总数：%d\n", dashboard.Merchants.Total))
	statuses := make([]string, 0, len(dashboard.Merchants.ByStatus))
	for status := range dashboard.Merchants.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		sb.WriteString(fmt.Sprintf("  %s：%d\n", models.StatusDisplayName(status), dashboard.Merchants.ByStatus[status]))
	}

	sb.WriteString(fmt.Sprintf("\n绑定码：%d（已用 %d / 可用 %d）\n", dashboard.Codes.Total, dashboard.Codes.Used, dashboard.Codes.Valid))
	b.sendMessage(chatID, sb.String(), nil)
}

// --- Region administration ---

func (b *Bot) handleRegionsMenu(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	cities, err := b.service.AllCities(ctx)
	if err != nil {
		b.logger.Errorf("Failed to list cities: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, city := range cities {
		mark := "🟢"
		if !city.IsActive {
			mark = "🔴"
		}
		idStr := strconv.FormatUint(uint64(city.ID), 10)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+city.Name, "adm_dist:list:"+idStr),
			tgbotapi.NewInlineKeyboardButtonData("开/关", "adm_city:toggle:"+idStr),
			tgbotapi.NewInlineKeyboardButtonData("删除", "adm_city:del:"+idStr),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("➕ 添加城市", "adm_city:add:"),
	})

	b.sendMessage(chatID, "🏙 城市管理（点击城市查看区域）", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleCityAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string) {
	chatID := cb.Message.Chat.ID
	if !b.isAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, T("admin_only"))
		return
	}

	action, rest, _ := strings.Cut(arg, ":")
	switch action {
	case "add":
		b.setState(chatID, stateAwaitingCityName)
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, "请输入新城市名称：", nil)

	case "toggle":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		active, err := b.service.ToggleCity(ctx, id)
		if err != nil {
			b.logger.Errorf("Failed to toggle city %d: %v", id, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		state := "已停用"
		if active {
			state = "已启用"
		}
		b.answerCallback(cb.ID, state)
		b.handleRegionsMenu(ctx, chatID, cb.From.ID)

	case "del":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		if err := b.service.DeleteCity(ctx, id); err != nil {
			b.answerCallback(cb.ID, "无法删除：该城市下仍有区域。")
			return
		}
		b.answerCallback(cb.ID, "已删除")
		b.handleRegionsMenu(ctx, chatID, cb.From.ID)
	}
}

func (b *Bot) handleDistrictAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string) {
	chatID := cb.Message.Chat.ID
	if !b.isAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, T("admin_only"))
		return
	}

	action, rest, _ := strings.Cut(arg, ":")
	switch action {
	case "list":
		cityID, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		districts, err := b.service.DistrictsByCity(ctx, cityID, false)
		if err != nil {
			b.logger.Errorf("Failed to list districts for city %d: %v", cityID, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}

		var rows [][]tgbotapi.InlineKeyboardButton
		for _, d := range districts {
			mark := "🟢"
			if !d.IsActive {
				mark = "🔴"
			}
			idStr := strconv.FormatUint(uint64(d.ID), 10)
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(mark+" "+d.Name, "noop:"),
				tgbotapi.NewInlineKeyboardButtonData("开/关", "adm_dist:toggle:"+idStr),
				tgbotapi.NewInlineKeyboardButtonData("删除", "adm_dist:del:"+idStr),
			})
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("➕ 添加区域", "adm_dist:add:"+rest),
		})

		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, "🗺 区域管理", tgbotapi.NewInlineKeyboardMarkup(rows...))

	case "add":
		b.setUserActionData(chatID, rest)
		b.setState(chatID, stateAwaitingDistrictName)
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, "请输入新区域名称：", nil)

	case "toggle":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		active, err := b.service.ToggleDistrict(ctx, id)
		if err != nil {
			b.logger.Errorf("Failed to toggle district %d: %v", id, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		state := "已停用"
		if active {
			state = "已启用"
		}
		b.answerCallback(cb.ID, state)

	case "del":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		if err := b.service.DeleteDistrict(ctx, id); err != nil {
			b.logger.Errorf("Failed to delete district %d: %v", id, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		b.answerCallback(cb.ID, "已删除")
	}
}

func (b *Bot) handleCityNameInput(ctx context.Context, chatID int64, name string) {
	b.setState(chatID, stateDefault)
	if !b.isAdmin(chatID) {
		return
	}

	if _, err := b.service.CreateCity(ctx, name, 0); err != nil {
		b.logger.Errorf("Failed to create city %q: %v", name, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ 已添加城市：%s", name), nil)
	b.handleRegionsMenu(ctx, chatID, chatID)
}

func (b *Bot) handleDistrictNameInput(ctx context.Context, chatID int64, name string) {
	cityIDStr := b.getUserActionData(chatID)
	b.clearUserActionData(chatID)
	b.setState(chatID, stateDefault)
	if !b.isAdmin(chatID) {
		return
	}

	cityID, ok := parseUintArg(cityIDStr)
	if !ok {
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	if _, err := b.service.CreateDistrict(ctx, cityID, name, 0); err != nil {
		b.logger.Errorf("Failed to create district %q: %v", name, err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ 已添加区域：%s", name), nil)
}

// --- Time slot administration ---

func (b *Bot) handleSlotsMenu(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, T("admin_only"), nil)
		return
	}

	slots, err := b.service.ListTimeSlots(ctx, false)
	if err != nil {
		b.logger.Errorf("Failed to list time slots: %v", err)
		b.sendMessage(chatID, T("generic_error"), nil)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		mark := "🟢"
		if !slot.IsActive {
			mark = "🔴"
		}
		idStr := strconv.FormatUint(uint64(slot.ID), 10)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+slot.TimeStr, "noop:"),
			tgbotapi.NewInlineKeyboardButtonData("开/关", "adm_slot:toggle:"+idStr),
			tgbotapi.NewInlineKeyboardButtonData("删除", "adm_slot:del:"+idStr),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("➕ 添加时间段", "adm_slot:add:"),
	})

	b.sendMessage(chatID, "🕐 发布时间段管理", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleSlotAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string) {
	chatID := cb.Message.Chat.ID
	if !b.isAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, T("admin_only"))
		return
	}

	action, rest, _ := strings.Cut(arg, ":")
	switch action {
	case "add":
		b.setState(chatID, stateAwaitingSlotTime)
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, "请输入时间段（HH:MM）：", nil)

	case "toggle":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		active, err := b.service.ToggleTimeSlot(ctx, id)
		if err != nil {
			b.logger.Errorf("Failed to toggle slot %d: %v", id, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		state := "已停用"
		if active {
			state = "已启用"
		}
		b.answerCallback(cb.ID, state)
		b.handleSlotsMenu(ctx, chatID, cb.From.ID)

	case "del":
		id, ok := parseUintArg(rest)
		if !ok {
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		if err := b.service.DeleteTimeSlot(ctx, id); err != nil {
			b.logger.Errorf("Failed to delete slot %d: %v", id, err)
			b.answerCallback(cb.ID, T("generic_error"))
			return
		}
		b.answerCallback(cb.ID, "已删除")
		b.handleSlotsMenu(ctx, chatID, cb.From.ID)
	}
}

func (b *Bot) handleSlotTimeInput(ctx context.Context, chatID int64, text string) {
	b.setState(chatID, stateDefault)
	if !b.isAdmin(chatID) {
		return
	}

	if _, err := b.service.CreateTimeSlot(ctx, text, 0); err != nil {
		b.sendMessage(chatID, "时间格式不正确，请输入 HH:MM。", nil)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ 已添加时间段：%s", text), nil)
	b.handleSlotsMenu(ctx, chatID, chatID)
}
