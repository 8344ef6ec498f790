package models

// Merchant lifecycle statuses.
const (
	StatusPendingSubmission = "pending_submission"
	StatusPendingApproval   = "pending_approval"
	StatusApproved          = "approved"
	StatusPublished         = "published"
	StatusExpired           = "expired"
)

// Action types recorded in the activity log.
const (
	ActionButtonClick          = "button_click"
	ActionUserInteraction      = "user_interaction"
	ActionMerchantRegistration = "merchant_registration"
	ActionOrderCreated         = "order_created"
	ActionOrderUpdated         = "order_updated"
	ActionAdminAction          = "admin_action"
	ActionSystemEvent          = "system_event"
	ActionErrorEvent           = "error_event"
	ActionLoginEvent           = "login_event"
	ActionBindingCodeUsed      = "binding_code_used"
	ActionAutoReplyTriggered   = "auto_reply_triggered"
	ActionAutoReplyManagement  = "auto_reply_management"
)

var legacyStatuses = map[string]string{
	"pending":  StatusPendingSubmission,
	"active":   StatusPublished,
	"inactive": StatusExpired,
}

var statusDisplayNames = map[string]string{
	StatusPendingSubmission: "待提交",
	StatusPendingApproval:   "待审核",
	StatusApproved:          "已审核",
	StatusPublished:         "已发布",
	StatusExpired:           "已过期",
}

// NormalizeStatus maps legacy status values onto the current lifecycle.
// Unknown values fall back to pending_submission.
func NormalizeStatus(raw string) string {
	if mapped, ok := legacyStatuses[raw]; ok {
		return mapped
	}
	if _, ok := statusDisplayNames[raw]; ok {
		return raw
	}
	return StatusPendingSubmission
}

func StatusDisplayName(status string) string {
	if name, ok := statusDisplayNames[NormalizeStatus(status)]; ok {
		return name
	}
	return status
}

func IsValidStatus(status string) bool {
	_, ok := statusDisplayNames[status]
	return ok
}
