package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"merchant-bot/internal/models"
)

// FlowStateName is the persisted state a user sits in while filling out the
// listing flow.
const FlowStateName = "merchant_binding_flow"

const (
	FlowSteps        = 10
	MaxKeywords      = 3
	RequiredMedia    = 6
	PublishDateCount = 5
)

// Draft accumulates the user's answers across the listing flow. It is
// persisted after every accepted answer so the flow survives restarts.
type Draft struct {
	MerchantType    string `json:"merchant_type,omitempty"`
	CityID          *uint  `json:"city_id,omitempty"`
	DistrictID      *uint  `json:"district_id,omitempty"`
	PPrice          string `json:"p_price,omitempty"`
	PPPrice         string `json:"pp_price,omitempty"`
	AdvSentence     string `json:"adv_sentence,omitempty"`
	ChannelUsername string `json:"channel_username,omitempty"`
	KeywordIDs      []uint `json:"keyword_ids,omitempty"`
	PublishDate     string `json:"publish_date,omitempty"` // 2006-01-02
	PublishSlot     string `json:"publish_slot,omitempty"` // HH:MM
	EditMode        bool   `json:"edit_mode,omitempty"`
	ReturnStep      int    `json:"return_step,omitempty"`
	CurrentStep     int    `json:"-"`
}

type draftEnvelope struct {
	UserChoices Draft `json:"user_choices"`
	CurrentStep int   `json:"current_step"`
}

type StepKind string

const (
	StepChoice   StepKind = "choice"
	StepText     StepKind = "text"
	StepMulti    StepKind = "multi"
	StepSchedule StepKind = "schedule"
	StepMedia    StepKind = "media"
)

type StepDef struct {
	Step   int
	Field  string
	Title  string
	Prompt string
	Kind   StepKind
}

var flowSteps = []StepDef{
	{1, "merchant_type", "商家类型", "请选择您的类型：", StepChoice},
	{2, "city", "城市", "请选择所在城市：", StepChoice},
	{3, "district", "区域", "请选择所在区域：", StepChoice},
	{4, "p_price", "P价格", "请输入P价格（数字，最多两位小数）：", StepText},
	{5, "pp_price", "PP价格", "请输入PP价格（数字，最多两位小数）：", StepText},
	{6, "adv_sentence", "一句话优势", "请输入您的一句话优势介绍：", StepText},
	{7, "channel", "频道", "请输入您的频道用户名（@用户名 或 t.me 链接）：", StepText},
	{8, "keywords", "关键词", "请选择最多3个关键词（点击切换，完成后按“完成”）：", StepMulti},
	{9, "schedule", "发布时间", "请选择发布日期和时间：", StepSchedule},
	{10, "media", "媒体资料", "请上传6张照片或视频：", StepMedia},
}

func StepByNumber(step int) (StepDef, bool) {
	if step < 1 || step > len(flowSteps) {
		return StepDef{}, false
	}
	return flowSteps[step-1], true
}

type Option struct {
	Label    string
	Value    string
	Selected bool
	Disabled bool
}

type StepView struct {
	Step    int
	Total   int
	Title   string
	Prompt  string
	Kind    StepKind
	Options []Option
}

type ApplyResult struct {
	NextStep int
	Done     bool
	EditDone bool   // a single-field edit finished; return to the profile panel
	ErrorMsg string // user-facing validation message, empty on success
}

// LoadDraft returns the user's persisted draft, or a fresh one at step 1.
func (s *Service) LoadDraft(ctx context.Context, userID int64) (*Draft, error) {
	state, err := s.repo.GetFSMState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.State != FlowStateName {
		return &Draft{CurrentStep: 1}, nil
	}

	var env draftEnvelope
	if err := json.Unmarshal([]byte(state.Data), &env); err != nil {
		s.logger.Warnf("Corrupt draft for user %d, starting over: %v", userID, err)
		return &Draft{CurrentStep: 1}, nil
	}
	draft := env.UserChoices
	draft.CurrentStep = env.CurrentStep
	if draft.CurrentStep < 1 {
		draft.CurrentStep = 1
	}
	return &draft, nil
}

func (s *Service) saveDraft(ctx context.Context, userID int64, draft *Draft) error {
	data, err := json.Marshal(draftEnvelope{UserChoices: *draft, CurrentStep: draft.CurrentStep})
	if err != nil {
		return err
	}
	return s.repo.SaveFSMState(ctx, &models.FSMState{
		UserID:    userID,
		State:     FlowStateName,
		Data:      string(data),
		UpdatedAt: s.now(),
	})
}

func (s *Service) ClearDraft(ctx context.Context, userID int64) error {
	return s.repo.DeleteFSMState(ctx, userID)
}

// NextPublishDates lists the selectable publish dates, starting today.
func (s *Service) NextPublishDates() []string {
	dates := make([]string, 0, PublishDateCount)
	start := s.now()
	for i := 0; i < PublishDateCount; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

// RenderStep builds the prompt and option list for one step of the flow.
func (s *Service) RenderStep(ctx context.Context, merchant *models.Merchant, step int, draft *Draft) (*StepView, error) {
	def, ok := StepByNumber(step)
	if !ok {
		return nil, fmt.Errorf("unknown flow step %d", step)
	}

	view := &StepView{Step: def.Step, Total: FlowSteps, Title: def.Title, Prompt: def.Prompt, Kind: def.Kind}

	switch def.Field {
	case "merchant_type":
		view.Options = []Option{
			{Label: "老师", Value: "teacher", Selected: draft.MerchantType == "teacher"},
			{Label: "商家", Value: "business", Selected: draft.MerchantType == "business"},
		}

	case "city":
		cities, err := s.repo.ListCities(ctx, true)
		if err != nil {
			return nil, err
		}
		for _, c := range cities {
			view.Options = append(view.Options, Option{
				Label:    c.Name,
				Value:    strconv.FormatUint(uint64(c.ID), 10),
				Selected: draft.CityID != nil && *draft.CityID == c.ID,
			})
		}

	case "district":
		if draft.CityID == nil {
			view.Prompt = "请先选择城市。"
			break
		}
		districts, err := s.repo.ListDistricts(ctx, *draft.CityID, true)
		if err != nil {
			return nil, err
		}
		if len(districts) == 0 {
			view.Prompt = "该城市暂无可选地区，请重新选择城市。"
			view.Options = append(view.Options, Option{Label: "⬅️ 返回选择城市", Value: "back"})
			break
		}
		for _, d := range districts {
			view.Options = append(view.Options, Option{
				Label:    d.Name,
				Value:    strconv.FormatUint(uint64(d.ID), 10),
				Selected: draft.DistrictID != nil && *draft.DistrictID == d.ID,
			})
		}

	case "keywords":
		keywords, err := s.repo.ListKeywords(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range keywords {
			view.Options = append(view.Options, Option{
				Label:    k.Name,
				Value:    strconv.FormatUint(uint64(k.ID), 10),
				Selected: containsID(draft.KeywordIDs, k.ID),
			})
		}

	case "schedule":
		if draft.PublishDate == "" {
			view.Prompt = "请选择发布日期："
			for _, d := range s.NextPublishDates() {
				view.Options = append(view.Options, Option{Label: d, Value: "date:" + d})
			}
			break
		}
		view.Prompt = fmt.Sprintf("日期 %s，请选择发布时间：", draft.PublishDate)
		slots, err := s.repo.ListTimeSlots(ctx, true)
		if err != nil {
			return nil, err
		}
		occupied, err := s.occupiedSet(ctx, draft.PublishDate, merchant)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			view.Options = append(view.Options, Option{
				Label:    slot.TimeStr,
				Value:    "slot:" + slot.TimeStr,
				Selected: draft.PublishSlot == slot.TimeStr,
				Disabled: occupied[slot.TimeStr],
			})
		}

	case "media":
		items, err := s.repo.ListMedia(ctx, merchant.ID)
		if err != nil {
			return nil, err
		}
		view.Prompt = fmt.Sprintf("请上传照片或视频（%d/%d）：", len(items), RequiredMedia)
	}

	return view, nil
}

// ApplyAnswer validates one answer, writes it into the draft, mirrors it onto
// the merchant row and persists the draft. A non-empty ErrorMsg means the
// answer was rejected and the step should be shown again.
func (s *Service) ApplyAnswer(ctx context.Context, merchant *models.Merchant, step int, raw string, draft *Draft) (*ApplyResult, error) {
	def, ok := StepByNumber(step)
	if !ok {
		return nil, fmt.Errorf("unknown flow step %d", step)
	}

	next := step + 1

	switch def.Field {
	case "merchant_type":
		if raw != "teacher" && raw != "business" {
			return &ApplyResult{NextStep: step, ErrorMsg: "请选择有效的类型。"}, nil
		}
		draft.MerchantType = raw
		merchant.MerchantType = raw

	case "city":
		id, err := parseID(raw)
		if err != nil {
			return &ApplyResult{NextStep: step, ErrorMsg: "请选择有效的城市。"}, nil
		}
		city, err := s.repo.GetCity(ctx, id)
		if err != nil {
			return nil, err
		}
		if city == nil || !city.IsActive {
			return &ApplyResult{NextStep: step, ErrorMsg: "该城市不可选，请重新选择。"}, nil
		}
		if draft.CityID == nil || *draft.CityID != id {
			draft.DistrictID = nil
			merchant.DistrictID = nil
		}
		draft.CityID = &id
		merchant.CityID = &id

	case "district":
		if draft.CityID == nil {
			return &ApplyResult{NextStep: 2, ErrorMsg: "请先选择城市。"}, nil
		}
		if raw == "back" {
			next = 2
			break
		}
		id, err := parseID(raw)
		if err != nil {
			return &ApplyResult{NextStep: step, ErrorMsg: "请选择有效的区域。"}, nil
		}
		district, err := s.repo.GetDistrict(ctx, id)
		if err != nil {
			return nil, err
		}
		if district == nil || !district.IsActive || district.CityID != *draft.CityID {
			return &ApplyResult{NextStep: step, ErrorMsg: "该区域不可选，请重新选择。"}, nil
		}
		draft.DistrictID = &id
		merchant.DistrictID = &id

	case "p_price":
		if !ValidPrice(raw) {
			return &ApplyResult{NextStep: step, ErrorMsg: "价格格式不正确，请输入数字（最多两位小数）。"}, nil
		}
		draft.PPrice = raw
		merchant.PPrice = raw

	case "pp_price":
		if !ValidPrice(raw) {
			return &ApplyResult{NextStep: step, ErrorMsg: "价格格式不正确，请输入数字（最多两位小数）。"}, nil
		}
		draft.PPPrice = raw
		merchant.PPPrice = raw

	case "adv_sentence":
		if raw == "" {
			return &ApplyResult{NextStep: step, ErrorMsg: "请输入内容。"}, nil
		}
		draft.AdvSentence = raw
		merchant.AdvSentence = raw

	case "channel":
		username, ok := NormalizeChannelUsername(raw)
		if !ok {
			return &ApplyResult{NextStep: step, ErrorMsg: "频道用户名格式不正确，请输入 @用户名 或 t.me 链接。"}, nil
		}
		draft.ChannelUsername = username
		merchant.ChannelUsername = username
		merchant.ChannelLink = "https://t.me/" + username[1:]

	case "keywords":
		if raw == "done" {
			if len(draft.KeywordIDs) == 0 {
				return &ApplyResult{NextStep: step, ErrorMsg: "请至少选择一个关键词。"}, nil
			}
			break
		}
		id, err := parseID(raw)
		if err != nil {
			return &ApplyResult{NextStep: step, ErrorMsg: "请选择有效的关键词。"}, nil
		}
		if containsID(draft.KeywordIDs, id) {
			draft.KeywordIDs = removeID(draft.KeywordIDs, id)
		} else {
			if len(draft.KeywordIDs) >= MaxKeywords {
				// Selection stays unchanged; the step is re-rendered as-is.
				return &ApplyResult{NextStep: step, ErrorMsg: fmt.Sprintf("最多只能选择%d个关键词。", MaxKeywords)}, nil
			}
			draft.KeywordIDs = append(draft.KeywordIDs, id)
		}
		next = step

	case "schedule":
		res, err := s.applySchedule(ctx, merchant, raw, draft)
		if err != nil || res != nil {
			return res, err
		}
		if draft.PublishSlot == "" {
			next = step
		}

	case "media":
		if raw != "media_done" {
			return &ApplyResult{NextStep: step, ErrorMsg: "请上传照片或视频。"}, nil
		}
		items, err := s.repo.ListMedia(ctx, merchant.ID)
		if err != nil {
			return nil, err
		}
		if len(items) < RequiredMedia {
			return &ApplyResult{NextStep: step, ErrorMsg: fmt.Sprintf("还差%d个媒体文件。", RequiredMedia-len(items))}, nil
		}
	}

	if err := s.repo.UpdateMerchant(ctx, merchant, nil); err != nil {
		return nil, err
	}

	if draft.EditMode && next != step && def.Field != "city" && !(def.Field == "district" && raw == "back") {
		return s.finishFieldEdit(ctx, merchant, def.Field, draft)
	}

	done := next > FlowSteps
	if done {
		next = FlowSteps
	}
	draft.CurrentStep = next
	if err := s.saveDraft(ctx, merchant.TelegramChatID, draft); err != nil {
		return nil, err
	}
	return &ApplyResult{NextStep: next, Done: done}, nil
}

// editStepFields maps profile edit entries onto the flow step whose widget
// already renders and validates that field.
var editStepFields = map[string]int{
	"region":       2,
	"keywords":     8,
	"publish_time": 9,
	"media":        10,
}

// BeginFieldEdit re-enters one step widget to change a single field of an
// already registered merchant. The draft is seeded from the merchant row so
// the widget shows the current selection, and the answer flows through the
// same validation as during registration.
func (s *Service) BeginFieldEdit(ctx context.Context, merchant *models.Merchant, field string) (*Draft, error) {
	step, ok := editStepFields[field]
	if !ok {
		return nil, fmt.Errorf("field %q has no step widget", field)
	}

	draft, err := s.LoadDraft(ctx, merchant.TelegramChatID)
	if err != nil {
		return nil, err
	}
	if draft.MerchantType == "" && merchant.MerchantType != "" {
		s.seedDraftFromMerchant(ctx, merchant, draft)
	}
	if field == "publish_time" {
		draft.PublishDate = ""
		draft.PublishSlot = ""
	}

	draft.EditMode = true
	draft.ReturnStep = draft.CurrentStep
	draft.CurrentStep = step
	if err := s.saveDraft(ctx, merchant.TelegramChatID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Service) seedDraftFromMerchant(ctx context.Context, merchant *models.Merchant, draft *Draft) {
	draft.MerchantType = merchant.MerchantType
	draft.CityID = merchant.CityID
	draft.DistrictID = merchant.DistrictID
	draft.PPrice = merchant.PPrice
	draft.PPPrice = merchant.PPPrice
	draft.AdvSentence = merchant.AdvSentence
	draft.ChannelUsername = merchant.ChannelUsername
	if merchant.PublishTime != nil {
		draft.PublishDate = merchant.PublishTime.Format("2006-01-02")
		draft.PublishSlot = merchant.PublishTime.Format("15:04")
	}
	if keywords, err := s.repo.ListMerchantKeywords(ctx, merchant.ID); err == nil {
		for _, k := range keywords {
			draft.KeywordIDs = append(draft.KeywordIDs, k.ID)
		}
	}
}

// finishFieldEdit closes an edit round: keyword edits take effect right away
// instead of waiting for a submission, and the draft returns to wherever the
// user left the flow.
func (s *Service) finishFieldEdit(ctx context.Context, merchant *models.Merchant, field string, draft *Draft) (*ApplyResult, error) {
	if field == "keywords" {
		ids := draft.KeywordIDs
		if len(ids) > MaxKeywords {
			ids = ids[:MaxKeywords]
		}
		if err := s.repo.ReplaceMerchantKeywords(ctx, merchant.ID, ids, nil); err != nil {
			return nil, err
		}
	}

	draft.EditMode = false
	draft.CurrentStep = draft.ReturnStep
	if draft.CurrentStep < 1 {
		draft.CurrentStep = 1
	}
	draft.ReturnStep = 0
	if err := s.saveDraft(ctx, merchant.TelegramChatID, draft); err != nil {
		return nil, err
	}
	return &ApplyResult{NextStep: draft.CurrentStep, EditDone: true}, nil
}

func (s *Service) applySchedule(ctx context.Context, merchant *models.Merchant, raw string, draft *Draft) (*ApplyResult, error) {
	const step = 9

	switch {
	case len(raw) > 5 && raw[:5] == "date:":
		date := raw[5:]
		valid := false
		for _, d := range s.NextPublishDates() {
			if d == date {
				valid = true
				break
			}
		}
		if !valid {
			return &ApplyResult{NextStep: step, ErrorMsg: "该日期不可选，请重新选择。"}, nil
		}
		draft.PublishDate = date
		draft.PublishSlot = ""
		return nil, nil

	case len(raw) > 5 && raw[:5] == "slot:":
		slot := raw[5:]
		if draft.PublishDate == "" {
			return &ApplyResult{NextStep: step, ErrorMsg: "请先选择日期。"}, nil
		}
		occupied, err := s.occupiedSet(ctx, draft.PublishDate, merchant)
		if err != nil {
			return nil, err
		}
		if occupied[slot] {
			return &ApplyResult{NextStep: step, ErrorMsg: "该时间段已被占用，请选择其他时间。"}, nil
		}
		draft.PublishSlot = slot
		publishTime, err := time.ParseInLocation("2006-01-02 15:04", draft.PublishDate+" "+slot, time.Local)
		if err != nil {
			return &ApplyResult{NextStep: step, ErrorMsg: "时间格式不正确，请重新选择。"}, nil
		}
		merchant.PublishTime = &publishTime
		return nil, nil
	}

	return &ApplyResult{NextStep: step, ErrorMsg: "请选择日期或时间。"}, nil
}

func (s *Service) occupiedSet(ctx context.Context, date string, merchant *models.Merchant) (map[string]bool, error) {
	var exclude *uint
	if merchant != nil && merchant.ID != 0 {
		exclude = &merchant.ID
	}
	slots, err := s.repo.OccupiedTimeSlots(ctx, date, exclude)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(slots))
	for _, slot := range slots {
		set[slot] = true
	}
	return set, nil
}

type SubmitResult struct {
	OK       bool
	Missing  []string
	ErrorMsg string
}

// SubmitForReview runs the final gate: all required fields present, six media
// items uploaded and the chosen slot still free. On success the merchant moves
// to pending_approval, keywords are replaced transactionally and the draft is
// cleared.
//
// The slot re-check is best effort: two submissions racing between the check
// and the commit can both pass, and the conflict is resolved during review.
func (s *Service) SubmitForReview(ctx context.Context, merchant *models.Merchant, draft *Draft) (*SubmitResult, error) {
	var missing []string
	if draft.MerchantType == "" {
		missing = append(missing, "商家类型")
	}
	if draft.CityID == nil {
		missing = append(missing, "城市")
	}
	if draft.CityID != nil && draft.DistrictID == nil {
		// A district is only required when the chosen city offers one.
		districts, err := s.repo.ListDistricts(ctx, *draft.CityID, true)
		if err != nil {
			return nil, err
		}
		if len(districts) > 0 {
			missing = append(missing, "区域")
		}
	}
	if draft.PPrice == "" {
		missing = append(missing, "P价格")
	}
	if draft.PPPrice == "" {
		missing = append(missing, "PP价格")
	}
	if draft.AdvSentence == "" {
		missing = append(missing, "一句话优势")
	}
	if draft.ChannelUsername == "" {
		missing = append(missing, "频道")
	}
	if draft.PublishDate == "" || draft.PublishSlot == "" {
		missing = append(missing, "发布时间")
	}
	if len(missing) > 0 {
		return &SubmitResult{Missing: missing}, nil
	}

	items, err := s.repo.ListMedia(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}
	if len(items) != RequiredMedia {
		return &SubmitResult{ErrorMsg: fmt.Sprintf("需要%d个媒体文件，当前%d个。", RequiredMedia, len(items))}, nil
	}

	occupied, err := s.occupiedSet(ctx, draft.PublishDate, merchant)
	if err != nil {
		return nil, err
	}
	if occupied[draft.PublishSlot] {
		return &SubmitResult{ErrorMsg: "所选时间段已被占用，请重新选择发布时间。"}, nil
	}

	publishTime, err := time.ParseInLocation("2006-01-02 15:04", draft.PublishDate+" "+draft.PublishSlot, time.Local)
	if err != nil {
		return &SubmitResult{ErrorMsg: "发布时间无效，请重新选择。"}, nil
	}

	merchant.MerchantType = draft.MerchantType
	merchant.CityID = draft.CityID
	merchant.DistrictID = draft.DistrictID
	merchant.PPrice = draft.PPrice
	merchant.PPPrice = draft.PPPrice
	merchant.AdvSentence = draft.AdvSentence
	merchant.ChannelUsername = draft.ChannelUsername
	merchant.PublishTime = &publishTime
	merchant.Status = models.StatusPendingApproval

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMerchant(ctx, merchant, tx); err != nil {
		s.repo.Rollback(tx)
		return nil, err
	}
	keywordIDs := draft.KeywordIDs
	if len(keywordIDs) > MaxKeywords {
		keywordIDs = keywordIDs[:MaxKeywords]
	}
	if err := s.repo.ReplaceMerchantKeywords(ctx, merchant.ID, keywordIDs, tx); err != nil {
		s.repo.Rollback(tx)
		return nil, err
	}
	if err := s.repo.Commit(tx); err != nil {
		return nil, err
	}

	if err := s.ClearDraft(ctx, merchant.TelegramChatID); err != nil {
		s.logger.Errorf("Failed to clear draft for user %d: %v", merchant.TelegramChatID, err)
	}

	s.LogActivity(ctx, merchant.TelegramChatID, models.ActionMerchantRegistration, map[string]interface{}{
		"merchant_id": merchant.ID,
	}, nil, &merchant.ID)

	return &SubmitResult{OK: true}, nil
}

// ApplyEdit validates and writes a single field straight onto an existing
// merchant row. The returned string is a user-facing rejection message.
func (s *Service) ApplyEdit(ctx context.Context, merchant *models.Merchant, field, raw string) (string, error) {
	switch field {
	case "merchant_type":
		if raw != "teacher" && raw != "business" {
			return "请选择有效的类型。", nil
		}
		merchant.MerchantType = raw
	case "p_price":
		if !ValidPrice(raw) {
			return "价格格式不正确，请输入数字（最多两位小数）。", nil
		}
		merchant.PPrice = raw
	case "pp_price":
		if !ValidPrice(raw) {
			return "价格格式不正确，请输入数字（最多两位小数）。", nil
		}
		merchant.PPPrice = raw
	case "adv_sentence":
		if raw == "" {
			return "请输入内容。", nil
		}
		merchant.AdvSentence = raw
	case "custom_description":
		merchant.CustomDescription = raw
	case "contact_info":
		merchant.ContactInfo = raw
	case "channel":
		username, ok := NormalizeChannelUsername(raw)
		if !ok {
			return "频道用户名格式不正确，请输入 @用户名 或 t.me 链接。", nil
		}
		merchant.ChannelUsername = username
		merchant.ChannelLink = "https://t.me/" + username[1:]
	default:
		return "", fmt.Errorf("unknown editable field %q", field)
	}

	if err := s.repo.UpdateMerchant(ctx, merchant, nil); err != nil {
		return "", err
	}
	return "", nil
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
