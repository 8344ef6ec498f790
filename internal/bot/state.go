package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// User state constants for the in-flight dialog position. The onboarding
// draft itself lives in the database; these only track what the next text
// message means.
const (
	stateDefault              = ""
	stateAwaitingBindingCode  = "awaiting_binding_code"
	stateOnboardingText       = "onboarding_text"
	stateAwaitingMedia        = "awaiting_media"
	stateEditingField         = "editing_field" // field name in action data
	stateAwaitingCityName     = "admin_awaiting_city_name"
	stateAwaitingDistrictName = "admin_awaiting_district_name" // city id in action data
	stateAwaitingSlotTime     = "admin_awaiting_slot_time"
)

// sendMessage sends a plain-text reply with an optional keyboard.
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.API.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.API.Request(cb); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.config.AdminChatID
}

func (b *Bot) setState(userID int64, state string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	if state == stateDefault {
		delete(b.userStates, userID)
	} else {
		b.userStates[userID] = state
	}
	b.logger.Debugf("Set state for user %d: %s", userID, state)
}

func (b *Bot) getUserState(userID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userStates[userID]
}

func (b *Bot) setUserActionData(userID int64, data string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	b.userActionData[userID] = data
}

func (b *Bot) getUserActionData(userID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userActionData[userID]
}

func (b *Bot) clearUserActionData(userID int64) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	delete(b.userActionData, userID)
}

// Panel message tracking lets step renders edit one pinned message instead of
// flooding the chat.

func (b *Bot) setPanelMessage(userID int64, messageID int) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	b.panelMessages[userID] = messageID
}

func (b *Bot) getPanelMessage(userID int64) int {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.panelMessages[userID]
}

func (b *Bot) clearPanelMessage(userID int64) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	delete(b.panelMessages, userID)
}
