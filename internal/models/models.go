package models

import "time"

type BindingCode struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Code          string     `gorm:"uniqueIndex;size:8" json:"code"`
	IsUsed        bool       `gorm:"default:false" json:"is_used"`
	ExpiresAt     *time.Time `json:"expires_at"`
	UsedAt        *time.Time `json:"used_at"`
	MerchantID    *uint      `gorm:"index" json:"merchant_id"`
	BoundUsername string     `json:"bound_username"`
	BoundFullName string     `json:"bound_full_name"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Merchant struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TelegramChatID    int64      `gorm:"uniqueIndex" json:"telegram_chat_id"`
	Name              string     `json:"name"`
	MerchantType      string     `json:"merchant_type"` // teacher, business
	CityID            *uint      `gorm:"index" json:"city_id"`
	City              *City      `gorm:"foreignKey:CityID" json:"city,omitempty"`
	DistrictID        *uint      `gorm:"index" json:"district_id"`
	District          *District  `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	PPrice            string     `json:"p_price"`
	PPPrice           string     `json:"pp_price"`
	CustomDescription string     `json:"custom_description"`
	AdvSentence       string     `json:"adv_sentence"`
	ChannelUsername   string     `json:"channel_username"`
	ChannelLink       string     `json:"channel_link"`
	ContactInfo       string     `json:"contact_info"`
	PublishTime       *time.Time `json:"publish_time"`
	Status            string     `gorm:"default:pending_submission;index" json:"status"`
	UserInfo          string     `gorm:"type:jsonb;default:'{}'" json:"user_info"`

	MediaItems []MediaItem `gorm:"foreignKey:MerchantID" json:"media_items,omitempty"`
	Keywords   []Keyword   `gorm:"many2many:merchant_keywords" json:"keywords,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MediaItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MerchantID     uint      `gorm:"index" json:"merchant_id"`
	TelegramFileID string    `json:"telegram_file_id"`
	MediaType      string    `gorm:"default:photo" json:"media_type"` // photo, video
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

type City struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex" json:"name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

type District struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CityID       uint   `gorm:"index" json:"city_id"`
	Name         string `json:"name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

type PostingTimeSlot struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	TimeStr      string `gorm:"uniqueIndex;size:5" json:"time_str"` // HH:MM
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

type Keyword struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex" json:"name"`
	DisplayOrder int    `json:"display_order"`
}

// ActivityLog is append-only; rows are only ever removed by the retention sweep.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"index" json:"user_id"`
	ActionType string    `gorm:"index" json:"action_type"`
	Details    string    `gorm:"type:jsonb;default:'{}'" json:"details"`
	ButtonID   *int      `json:"button_id"`
	MerchantID *uint     `json:"merchant_id"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}

// FSMState persists a user's onboarding draft so the flow survives restarts.
type FSMState struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	State     string    `json:"state"`
	Data      string    `gorm:"type:jsonb;default:'{}'" json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}
