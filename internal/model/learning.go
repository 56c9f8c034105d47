package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LearningPath struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title              string    `gorm:"size:200;not null" json:"title"`
	Description        *string   `gorm:"type:text" json:"description,omitempty"`
	Subject            string    `gorm:"size:100;not null" json:"subject"`
	DifficultyLevel    string    `gorm:"size:20;default:beginner" json:"difficulty_level"`
	EstimatedHours     int       `gorm:"default:10" json:"estimated_hours"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`
	ProgressPercentage float64   `gorm:"default:0" json:"progress_percentage"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Topics []Topic `gorm:"constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

func (p *LearningPath) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Topic struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LearningPathID uuid.UUID  `gorm:"type:uuid;index;not null" json:"learning_path_id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	OrderIndex     int        `gorm:"default:0" json:"order_index"`
	IsCompleted    bool       `gorm:"default:false" json:"is_completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Resources []Resource `gorm:"constraint:OnDelete:CASCADE" json:"resources,omitempty"`
	Quizzes   []Quiz     `gorm:"constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Resource struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID         uuid.UUID `gorm:"type:uuid;index;not null" json:"topic_id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Description     *string   `gorm:"type:text" json:"description,omitempty"`
	ResourceType    string    `gorm:"size:50;not null" json:"resource_type"` // video, article, book, course
	URL             *string   `gorm:"size:500" json:"url,omitempty"`
	Content         *string   `gorm:"type:text" json:"content,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	DifficultyLevel string    `gorm:"size:20;default:intermediate" json:"difficulty_level"`
	IsCompleted     bool      `gorm:"default:false" json:"is_completed"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID          uuid.UUID `gorm:"type:uuid;index;not null" json:"topic_id"`
	Title            string    `gorm:"size:200;not null" json:"title"`
	Description      *string   `gorm:"type:text" json:"description,omitempty"`
	DifficultyLevel  string    `gorm:"size:20;default:intermediate" json:"difficulty_level"`
	TimeLimitMinutes int       `gorm:"default:15" json:"time_limit_minutes"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`

	Questions []Question    `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Attempts  []QuizAttempt `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        uuid.UUID `gorm:"type:uuid;index;not null" json:"quiz_id"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	QuestionType  string    `gorm:"size:50;default:multiple_choice" json:"question_type"` // multiple_choice, true_false, short_answer
	CorrectAnswer string    `gorm:"type:text;not null" json:"correct_answer"`
	Options       []string  `gorm:"serializer:json" json:"options,omitempty"`
	Explanation   *string   `gorm:"type:text" json:"explanation,omitempty"`
	Points        int       `gorm:"default:1" json:"points"`
	OrderIndex    int       `gorm:"default:0" json:"order_index"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuizAttempt struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID         `gorm:"type:uuid;index;not null" json:"user_id"`
	User             User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	QuizID           uuid.UUID         `gorm:"type:uuid;index;not null" json:"quiz_id"`
	Score            float64           `gorm:"default:0" json:"score"`
	MaxScore         float64           `gorm:"default:0" json:"max_score"`
	Percentage       float64           `gorm:"default:0" json:"percentage"`
	TimeTakenMinutes *int              `json:"time_taken_minutes,omitempty"`
	Answers          map[string]string `gorm:"serializer:json" json:"answers,omitempty"` // question id -> given answer
	StartedAt        time.Time         `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Note struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ResourceID *uuid.UUID `gorm:"type:uuid;index" json:"resource_id,omitempty"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Tags       []string   `gorm:"serializer:json" json:"tags,omitempty"`
	IsFavorite bool       `gorm:"default:false" json:"is_favorite"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
