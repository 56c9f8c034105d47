package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationAchievementEarned = "achievement_earned"
	NotificationBadgeEarned       = "badge_earned"
	NotificationLevelUp           = "level_up"
	NotificationReminder          = "reminder"
	NotificationQuizResult        = "quiz_result"
)

type Notification struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	NotificationType string    `gorm:"size:50" json:"notification_type"`
	IsRead           bool      `gorm:"default:false" json:"is_read"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
