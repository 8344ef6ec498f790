package bot

import "fmt"

// Message texts keyed by template name. Lookups fall back to the key itself
// so a missing template never blanks a reply.
var defaultTemplates = map[string]string{
	"welcome":             "欢迎使用商家上榜机器人！发送“上榜流程”开始入驻。",
	"ask_binding_code":    "请输入您的8位绑定码：",
	"code_bad_format":     "绑定码格式不正确，请输入8位大写字母或数字。",
	"code_invalid":        "绑定码无效、已使用或已过期，请联系管理员获取新的绑定码。",
	"code_taken":          "该绑定码刚刚被使用，请联系管理员获取新的绑定码。",
	"code_already_bound":  "您已绑定过商家账号，正在打开资料面板。",
	"code_accepted":       "✅ 绑定成功！接下来请完善您的上榜资料。",
	"flow_resume":         "检测到未完成的上榜流程，已为您恢复进度。",
	"flow_done":           "所有步骤已完成！请在资料面板确认并提交审核。",
	"submit_ok":           "✅ 资料已提交审核，请耐心等待管理员审核。",
	"submit_missing":      "以下资料尚未填写：%s",
	"edit_saved":          "✅ 修改已保存。",
	"media_saved":         "已保存（%d/6）。",
	"media_replaced":      "相册已满，已替换最早的一项（6/6）。",
	"generic_error":       "操作失败，请稍后重试。",
	"unknown_command":     "未知指令，发送“上榜流程”开始入驻。",
	"admin_only":          "该操作仅限管理员使用。",
	"slot_occupied":       "该时间段已被占用，请选择其他时间。",
	"profile_title":       "📋 您的商家资料",
	"not_registered":      "您还未绑定商家账号，发送“上榜流程”开始入驻。",
}

func T(key string) string {
	if text, ok := defaultTemplates[key]; ok {
		return text
	}
	return key
}

func sprintfT(key string, args ...interface{}) string {
	return fmt.Sprintf(T(key), args...)
}
