package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    *string   `gorm:"size:50" json:"first_name,omitempty"`
	LastName     *string   `gorm:"size:50" json:"last_name,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	// Learning preferences
	LearningStyle          *string    `gorm:"size:50" json:"learning_style,omitempty"` // visual, auditory, kinesthetic, reading
	PreferredDifficulty    string     `gorm:"size:20;default:intermediate" json:"preferred_difficulty"`
	DailyGoalMinutes       int        `gorm:"default:30" json:"daily_goal_minutes"`
	StudyRemindersEnabled  bool       `gorm:"default:true" json:"study_reminders_enabled"`
	NotificationEmail      bool       `gorm:"default:true" json:"notification_email"`
	LastLogin              *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
