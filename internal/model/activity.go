package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity types recorded against a user.
const (
	ActivityLearningPathCompleted = "learning_path_completed"
	ActivityResourceViewed        = "resource_viewed"
	ActivityQuizCompleted         = "quiz_completed"
	ActivityNoteCreated           = "note_created"
)

type UserActivity struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;index:idx_activity_user_type,priority:1;not null" json:"user_id"`
	User         User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActivityType string            `gorm:"size:50;index:idx_activity_user_type,priority:2;not null" json:"activity_type"`
	Timestamp    time.Time         `gorm:"autoCreateTime;index" json:"timestamp"`
	Details      map[string]string `gorm:"serializer:json" json:"details,omitempty"`
}

func (a *UserActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
