package model

import (
	"time"

	"github.com/google/uuid"
)

// PointCategory is the bucket a point award counts towards on UserLevel.
type PointCategory string

const (
	PointCategoryLearning    PointCategory = "learning"
	PointCategoryQuiz        PointCategory = "quiz"
	PointCategoryAchievement PointCategory = "achievement"
	PointCategorySocial      PointCategory = "social"
)

func (c PointCategory) Valid() bool {
	switch c {
	case PointCategoryLearning, PointCategoryQuiz, PointCategoryAchievement, PointCategorySocial:
		return true
	}
	return false
}

// ConditionType selects how an achievement's progress metric is computed.
type ConditionType string

const (
	ConditionCount  ConditionType = "count"  // rows matching ConditionResource
	ConditionStreak ConditionType = "streak" // current learning streak
	ConditionScore  ConditionType = "score"  // average quiz percentage
	ConditionTime   ConditionType = "time"   // total accumulated points
)

// Metric names used as ConditionResource values.
const (
	MetricLearningPathsCompleted = "learning_paths_completed"
	MetricQuizzesCompleted       = "quizzes_completed"
	MetricResourcesViewed        = "resources_viewed"
	MetricNotesCreated           = "notes_created"
	MetricLearningStreak         = "learning_streak"
	MetricAverageQuizScore       = "average_quiz_score"
	MetricTotalPoints            = "total_points"
)

type BadgeConditionType string

const (
	BadgeConditionLevel        BadgeConditionType = "level"
	BadgeConditionAchievements BadgeConditionType = "achievements"
	BadgeConditionPoints       BadgeConditionType = "points"
)

type LeaderboardType string

const (
	LeaderboardWeekly  LeaderboardType = "weekly"
	LeaderboardMonthly LeaderboardType = "monthly"
	LeaderboardAllTime LeaderboardType = "all_time"
)

type LeaderboardCategory string

const (
	LeaderboardCategoryPoints  LeaderboardCategory = "points"
	LeaderboardCategoryQuizzes LeaderboardCategory = "quizzes"
	LeaderboardCategoryStreak  LeaderboardCategory = "streak"
)

func (t LeaderboardType) Valid() bool {
	switch t {
	case LeaderboardWeekly, LeaderboardMonthly, LeaderboardAllTime:
		return true
	}
	return false
}

func (c LeaderboardCategory) Valid() bool {
	switch c {
	case LeaderboardCategoryPoints, LeaderboardCategoryQuizzes, LeaderboardCategoryStreak:
		return true
	}
	return false
}

// UserLevel tracks a user's cumulative points, derived level and learning streak.
// Created lazily on the first gamification interaction; at most one row per user.
type UserLevel struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CurrentLevel      int       `gorm:"default:1" json:"current_level"`
	TotalPoints       int       `gorm:"default:0" json:"total_points"`
	PointsToNextLevel int       `gorm:"default:400" json:"points_to_next_level"`

	// Experience breakdown
	LearningPoints    int `gorm:"default:0" json:"learning_points"`
	QuizPoints        int `gorm:"default:0" json:"quiz_points"`
	AchievementPoints int `gorm:"default:0" json:"achievement_points"`
	SocialPoints      int `gorm:"default:0" json:"social_points"`

	// Streaks
	CurrentLearningStreak int        `gorm:"default:0" json:"current_learning_streak"`
	LongestLearningStreak int        `gorm:"default:0" json:"longest_learning_streak"`
	LastActivityDate      *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Achievement is an immutable catalog entry seeded at startup.
type Achievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`
	Icon        string `gorm:"size:50;not null" json:"icon"`
	Category    string `gorm:"size:50;not null" json:"category"` // learning, quiz, social, milestone
	Points      int    `gorm:"default:0" json:"points"`
	Rarity      string `gorm:"size:20;default:common" json:"rarity"` // common, rare, epic, legendary

	ConditionType     ConditionType `gorm:"size:50;not null" json:"condition_type"`
	ConditionTarget   int           `gorm:"not null" json:"condition_target"`
	ConditionResource string        `gorm:"size:50;not null" json:"condition_resource"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	EarnedAt      time.Time   `gorm:"autoCreateTime" json:"earned_at"`
	ProgressValue int         `gorm:"default:0" json:"progress_value"`
}

type Badge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`
	Icon        string `gorm:"size:50;not null" json:"icon"`
	Color       string `gorm:"size:20;not null" json:"color"`
	Category    string `gorm:"size:50;not null" json:"category"`

	ConditionType  BadgeConditionType `gorm:"size:50;not null" json:"condition_type"`
	ConditionValue int                `gorm:"not null" json:"condition_value"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge,priority:1" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge,priority:2" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// LeaderboardEntry holds one user's rank within a (type, category, period) key.
// Entries for a key are replaced wholesale on every rebuild.
type LeaderboardEntry struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_entry,priority:1" json:"user_id"`
	User            User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	LeaderboardType LeaderboardType     `gorm:"size:50;not null;uniqueIndex:idx_leaderboard_entry,priority:2" json:"leaderboard_type"`
	Category        LeaderboardCategory `gorm:"size:50;not null;uniqueIndex:idx_leaderboard_entry,priority:3" json:"category"`
	Score           int                 `gorm:"not null" json:"score"`
	Rank            int                 `gorm:"not null" json:"rank"`
	PeriodStart     time.Time           `gorm:"type:date;not null;uniqueIndex:idx_leaderboard_entry,priority:4" json:"period_start"`
	PeriodEnd       time.Time           `gorm:"type:date;not null" json:"period_end"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}
