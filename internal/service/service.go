package service

import (
	"context"
	"time"

	"merchant-bot/config"
	"merchant-bot/internal/models"
	"merchant-bot/utils"

	"github.com/jaevor/go-nanoid"
	"gorm.io/gorm"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Service struct {
	repo    Repository
	logger  *utils.Logger
	config  *config.Config
	newCode func() string
	now     func() time.Time
}

type Repository interface {
	CreateBindingCode(ctx context.Context, code *models.BindingCode) error
	GetBindingCodeByCode(ctx context.Context, code string) (*models.BindingCode, error)
	GetValidBindingCode(ctx context.Context, code string, now time.Time) (*models.BindingCode, error)
	MarkBindingCodeUsed(ctx context.Context, code string, merchantID uint, username, fullName string, usedAt time.Time) (int64, error)
	ListBindingCodes(ctx context.Context, limit int) ([]models.BindingCode, error)
	DeleteBindingCode(ctx context.Context, id uint) error
	DeleteExpiredBindingCodes(ctx context.Context, now time.Time) (int64, error)

	GetMerchantByChatID(ctx context.Context, chatID int64) (*models.Merchant, error)
	GetMerchantByID(ctx context.Context, id uint) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, merchant *models.Merchant) error
	UpdateMerchant(ctx context.Context, merchant *models.Merchant, tx *gorm.DB) error
	DeleteMerchant(ctx context.Context, id uint) error
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
	OccupiedTimeSlots(ctx context.Context, date string, excludeMerchantID *uint) ([]string, error)

	ListMedia(ctx context.Context, merchantID uint) ([]models.MediaItem, error)
	CreateMedia(ctx context.Context, item *models.MediaItem) error
	UpdateMedia(ctx context.Context, item *models.MediaItem) error
	DeleteMediaByMerchant(ctx context.Context, merchantID uint) error

	ListCities(ctx context.Context, activeOnly bool) ([]models.City, error)
	GetCity(ctx context.Context, id uint) (*models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	UpdateCity(ctx context.Context, city *models.City) error
	DeleteCity(ctx context.Context, id uint) error
	CountDistrictsByCity(ctx context.Context, cityID uint) (int64, error)
	ListDistricts(ctx context.Context, cityID uint, activeOnly bool) ([]models.District, error)
	GetDistrict(ctx context.Context, id uint) (*models.District, error)
	CreateDistrict(ctx context.Context, district *models.District) error
	UpdateDistrict(ctx context.Context, district *models.District) error
	DeleteDistrict(ctx context.Context, id uint) error

	ListTimeSlots(ctx context.Context, activeOnly bool) ([]models.PostingTimeSlot, error)
	GetTimeSlot(ctx context.Context, id uint) (*models.PostingTimeSlot, error)
	CreateTimeSlot(ctx context.Context, slot *models.PostingTimeSlot) error
	UpdateTimeSlot(ctx context.Context, slot *models.PostingTimeSlot) error
	DeleteTimeSlot(ctx context.Context, id uint) error

	ListKeywords(ctx context.Context) ([]models.Keyword, error)
	ListMerchantKeywords(ctx context.Context, merchantID uint) ([]models.Keyword, error)
	ReplaceMerchantKeywords(ctx context.Context, merchantID uint, keywordIDs []uint, tx *gorm.DB) error

	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error
	ListActivitySince(ctx context.Context, since time.Time) ([]models.ActivityLog, error)
	DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetFSMState(ctx context.Context, userID int64) (*models.FSMState, error)
	SaveFSMState(ctx context.Context, state *models.FSMState) error
	DeleteFSMState(ctx context.Context, userID int64) error

	BeginTransaction(ctx context.Context) (*gorm.DB, error)
	Commit(tx *gorm.DB) error
	Rollback(tx *gorm.DB)
}

func NewService(repo Repository, cfg *config.Config, logger *utils.Logger) (*Service, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, 8)
	if err != nil {
		return nil, err
	}

	return &Service{
		repo:    repo,
		logger:  logger,
		config:  cfg,
		newCode: gen,
		now:     time.Now,
	}, nil
}
