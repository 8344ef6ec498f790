package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"merchant-bot/config"
	"merchant-bot/internal/models"
	"merchant-bot/utils"

	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository used by the service tests.
type fakeRepo struct {
	mu     sync.Mutex
	nextID uint

	codes      map[string]models.BindingCode
	merchants  map[uint]models.Merchant
	media      map[uint][]models.MediaItem
	cities     map[uint]models.City
	districts  map[uint]models.District
	slots      map[uint]models.PostingTimeSlot
	keywords   map[uint]models.Keyword
	merchantKw map[uint][]uint
	logs       []models.ActivityLog
	fsm        map[int64]models.FSMState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		codes:      make(map[string]models.BindingCode),
		merchants:  make(map[uint]models.Merchant),
		media:      make(map[uint][]models.MediaItem),
		cities:     make(map[uint]models.City),
		districts:  make(map[uint]models.District),
		slots:      make(map[uint]models.PostingTimeSlot),
		keywords:   make(map[uint]models.Keyword),
		merchantKw: make(map[uint][]uint),
		fsm:        make(map[int64]models.FSMState),
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

// --- binding codes ---

func (f *fakeRepo) CreateBindingCode(_ context.Context, code *models.BindingCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code.ID = f.id()
	f.codes[code.Code] = *code
	return nil
}

func (f *fakeRepo) GetBindingCodeByCode(_ context.Context, code string) (*models.BindingCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bc, ok := f.codes[code]; ok {
		out := bc
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetValidBindingCode(_ context.Context, code string, now time.Time) (*models.BindingCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bc, ok := f.codes[code]
	if !ok || bc.IsUsed {
		return nil, nil
	}
	if bc.ExpiresAt != nil && !bc.ExpiresAt.After(now) {
		return nil, nil
	}
	out := bc
	return &out, nil
}

func (f *fakeRepo) MarkBindingCodeUsed(_ context.Context, code string, merchantID uint, username, fullName string, usedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bc, ok := f.codes[code]
	if !ok || bc.IsUsed {
		return 0, nil
	}
	bc.IsUsed = true
	bc.UsedAt = &usedAt
	bc.MerchantID = &merchantID
	bc.BoundUsername = username
	bc.BoundFullName = fullName
	f.codes[code] = bc
	return 1, nil
}

func (f *fakeRepo) ListBindingCodes(_ context.Context, limit int) ([]models.BindingCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.BindingCode, 0, len(f.codes))
	for _, bc := range f.codes {
		out = append(out, bc)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) DeleteBindingCode(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, bc := range f.codes {
		if bc.ID == id {
			delete(f.codes, code)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) DeleteExpiredBindingCodes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for code, bc := range f.codes {
		if !bc.IsUsed && bc.ExpiresAt != nil && !bc.ExpiresAt.After(now) {
			delete(f.codes, code)
			deleted++
		}
	}
	return deleted, nil
}

// --- merchants ---

func (f *fakeRepo) GetMerchantByChatID(_ context.Context, chatID int64) (*models.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.merchants {
		if m.TelegramChatID == chatID {
			out := m
			f.attachRegions(&out)
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetMerchantByID(_ context.Context, id uint) (*models.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.merchants[id]; ok {
		out := m
		f.attachRegions(&out)
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) attachRegions(m *models.Merchant) {
	if m.CityID != nil {
		if city, ok := f.cities[*m.CityID]; ok {
			c := city
			m.City = &c
		}
	}
	if m.DistrictID != nil {
		if district, ok := f.districts[*m.DistrictID]; ok {
			d := district
			m.District = &d
		}
	}
}

func (f *fakeRepo) CreateMerchant(_ context.Context, merchant *models.Merchant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	merchant.ID = f.id()
	if merchant.CreatedAt.IsZero() {
		merchant.CreatedAt = time.Now()
	}
	f.merchants[merchant.ID] = *merchant
	return nil
}

func (f *fakeRepo) UpdateMerchant(_ context.Context, merchant *models.Merchant, _ *gorm.DB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merchants[merchant.ID] = *merchant
	return nil
}

func (f *fakeRepo) DeleteMerchant(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.merchants, id)
	return nil
}

func (f *fakeRepo) ListMerchants(_ context.Context) ([]models.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Merchant, 0, len(f.merchants))
	for _, m := range f.merchants {
		item := m
		f.attachRegions(&item)
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRepo) OccupiedTimeSlots(_ context.Context, date string, excludeMerchantID *uint) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	holding := map[string]bool{
		models.StatusPendingApproval: true,
		models.StatusApproved:        true,
		models.StatusPublished:       true,
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range f.merchants {
		if m.PublishTime == nil || !holding[m.Status] {
			continue
		}
		if excludeMerchantID != nil && m.ID == *excludeMerchantID {
			continue
		}
		if m.PublishTime.Format("2006-01-02") != date {
			continue
		}
		slot := m.PublishTime.Format("15:04")
		if !seen[slot] {
			seen[slot] = true
			out = append(out, slot)
		}
	}
	return out, nil
}

// --- media ---

func (f *fakeRepo) ListMedia(_ context.Context, merchantID uint) ([]models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]models.MediaItem(nil), f.media[merchantID]...)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].SortOrder < items[i].SortOrder {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	return items, nil
}

func (f *fakeRepo) CreateMedia(_ context.Context, item *models.MediaItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.id()
	f.media[item.MerchantID] = append(f.media[item.MerchantID], *item)
	return nil
}

func (f *fakeRepo) UpdateMedia(_ context.Context, item *models.MediaItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.media[item.MerchantID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = *item
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) DeleteMediaByMerchant(_ context.Context, merchantID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.media, merchantID)
	return nil
}

// --- regions ---

func (f *fakeRepo) ListCities(_ context.Context, activeOnly bool) ([]models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.City
	for _, c := range f.cities {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) GetCity(_ context.Context, id uint) (*models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cities[id]; ok {
		out := c
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) CreateCity(_ context.Context, city *models.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	city.ID = f.id()
	f.cities[city.ID] = *city
	return nil
}

func (f *fakeRepo) UpdateCity(_ context.Context, city *models.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cities[city.ID] = *city
	return nil
}

func (f *fakeRepo) DeleteCity(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cities, id)
	return nil
}

func (f *fakeRepo) CountDistrictsByCity(_ context.Context, cityID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, d := range f.districts {
		if d.CityID == cityID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ListDistricts(_ context.Context, cityID uint, activeOnly bool) ([]models.District, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.District
	for _, d := range f.districts {
		if d.CityID != cityID {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepo) GetDistrict(_ context.Context, id uint) (*models.District, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.districts[id]; ok {
		out := d
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) CreateDistrict(_ context.Context, district *models.District) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	district.ID = f.id()
	f.districts[district.ID] = *district
	return nil
}

func (f *fakeRepo) UpdateDistrict(_ context.Context, district *models.District) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.districts[district.ID] = *district
	return nil
}

func (f *fakeRepo) DeleteDistrict(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.districts, id)
	return nil
}

// --- time slots ---

func (f *fakeRepo) ListTimeSlots(_ context.Context, activeOnly bool) ([]models.PostingTimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PostingTimeSlot
	for _, s := range f.slots {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) GetTimeSlot(_ context.Context, id uint) (*models.PostingTimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[id]; ok {
		out := s
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) CreateTimeSlot(_ context.Context, slot *models.PostingTimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot.ID = f.id()
	f.slots[slot.ID] = *slot
	return nil
}

func (f *fakeRepo) UpdateTimeSlot(_ context.Context, slot *models.PostingTimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slot.ID] = *slot
	return nil
}

func (f *fakeRepo) DeleteTimeSlot(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, id)
	return nil
}

// --- keywords ---

// CreateKeyword is a seeding helper; the production schema manages keywords
// out of band.
func (f *fakeRepo) CreateKeyword(_ context.Context, keyword *models.Keyword) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	keyword.ID = f.id()
	f.keywords[keyword.ID] = *keyword
	return nil
}

func (f *fakeRepo) ListKeywords(_ context.Context) ([]models.Keyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Keyword
	for _, k := range f.keywords {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeRepo) ListMerchantKeywords(_ context.Context, merchantID uint) ([]models.Keyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Keyword
	for _, id := range f.merchantKw[merchantID] {
		if k, ok := f.keywords[id]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceMerchantKeywords(_ context.Context, merchantID uint, keywordIDs []uint, _ *gorm.DB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merchantKw[merchantID] = append([]uint(nil), keywordIDs...)
	return nil
}

// --- activity log ---

func (f *fakeRepo) CreateActivityLog(_ context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = f.id()
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeRepo) ListActivitySince(_ context.Context, since time.Time) ([]models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityLog
	for _, e := range f.logs {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteActivityBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.ActivityLog
	var deleted int64
	for _, e := range f.logs {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.logs = kept
	return deleted, nil
}

// --- fsm drafts ---

func (f *fakeRepo) GetFSMState(_ context.Context, userID int64) (*models.FSMState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.fsm[userID]; ok {
		out := s
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRepo) SaveFSMState(_ context.Context, state *models.FSMState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fsm[state.UserID] = *state
	return nil
}

func (f *fakeRepo) DeleteFSMState(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fsm, userID)
	return nil
}

// --- transactions ---

func (f *fakeRepo) BeginTransaction(_ context.Context) (*gorm.DB, error) { return nil, nil }
func (f *fakeRepo) Commit(_ *gorm.DB) error                             { return nil }
func (f *fakeRepo) Rollback(_ *gorm.DB)                                 {}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	cfg := &config.Config{CodeExpiryHours: 24, LogRetentionDays: 90}
	svc, err := NewService(repo, cfg, utils.InitLogger())
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}
