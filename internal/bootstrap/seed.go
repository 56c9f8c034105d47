package bootstrap

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.LearningPath{},
		&model.Topic{},
		&model.Resource{},
		&model.Quiz{},
		&model.Question{},
		&model.QuizAttempt{},
		&model.Note{},
		&model.UserActivity{},
		&model.Notification{},
		&model.UserLevel{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.Badge{},
		&model.UserBadge{},
		&model.LeaderboardEntry{},
	)
}

// SeedAchievements inserts the default achievement catalog. Existing rows
// (matched by name) are left untouched so operators can tune live values.
func SeedAchievements(db *gorm.DB) error {
	achievements := []model.Achievement{
		{Name: "First Steps", Description: "Complete your first learning path", Icon: "graduation-cap", Category: "learning", Points: 100, Rarity: "common",
			ConditionType: model.ConditionCount, ConditionTarget: 1, ConditionResource: model.MetricLearningPathsCompleted, IsActive: true},
		{Name: "Learning Enthusiast", Description: "Complete 5 learning paths", Icon: "book-open", Category: "learning", Points: 500, Rarity: "rare",
			ConditionType: model.ConditionCount, ConditionTarget: 5, ConditionResource: model.MetricLearningPathsCompleted, IsActive: true},
		{Name: "Knowledge Master", Description: "Complete 10 learning paths", Icon: "crown", Category: "learning", Points: 1000, Rarity: "epic",
			ConditionType: model.ConditionCount, ConditionTarget: 10, ConditionResource: model.MetricLearningPathsCompleted, IsActive: true},

		{Name: "Quiz Rookie", Description: "Complete your first quiz", Icon: "brain", Category: "quiz", Points: 50, Rarity: "common",
			ConditionType: model.ConditionCount, ConditionTarget: 1, ConditionResource: model.MetricQuizzesCompleted, IsActive: true},
		{Name: "Quiz Champion", Description: "Complete 25 quizzes", Icon: "trophy", Category: "quiz", Points: 750, Rarity: "rare",
			ConditionType: model.ConditionCount, ConditionTarget: 25, ConditionResource: model.MetricQuizzesCompleted, IsActive: true},
		{Name: "Perfect Score", Description: "Achieve 95% average quiz score", Icon: "star", Category: "quiz", Points: 1500, Rarity: "epic",
			ConditionType: model.ConditionScore, ConditionTarget: 95, ConditionResource: model.MetricAverageQuizScore, IsActive: true},

		{Name: "Consistent Learner", Description: "Maintain a 7-day learning streak", Icon: "calendar", Category: "milestone", Points: 300, Rarity: "rare",
			ConditionType: model.ConditionStreak, ConditionTarget: 7, ConditionResource: model.MetricLearningStreak, IsActive: true},
		{Name: "Dedication Master", Description: "Maintain a 30-day learning streak", Icon: "flame", Category: "milestone", Points: 2000, Rarity: "legendary",
			ConditionType: model.ConditionStreak, ConditionTarget: 30, ConditionResource: model.MetricLearningStreak, IsActive: true},

		{Name: "Curious Explorer", Description: "View 50 learning resources", Icon: "search", Category: "learning", Points: 200, Rarity: "common",
			ConditionType: model.ConditionCount, ConditionTarget: 50, ConditionResource: model.MetricResourcesViewed, IsActive: true},
		{Name: "Note Taker", Description: "Create 10 notes", Icon: "file-text", Category: "learning", Points: 150, Rarity: "common",
			ConditionType: model.ConditionCount, ConditionTarget: 10, ConditionResource: model.MetricNotesCreated, IsActive: true},

		{Name: "Rising Star", Description: "Earn 1,000 total points", Icon: "trending-up", Category: "milestone", Points: 100, Rarity: "rare",
			ConditionType: model.ConditionTime, ConditionTarget: 1000, ConditionResource: model.MetricTotalPoints, IsActive: true},
		{Name: "Point Collector", Description: "Earn 5,000 total points", Icon: "gem", Category: "milestone", Points: 500, Rarity: "epic",
			ConditionType: model.ConditionTime, ConditionTarget: 5000, ConditionResource: model.MetricTotalPoints, IsActive: true},
	}

	for _, achievement := range achievements {
		var count int64
		if err := db.Model(&model.Achievement{}).
			Where("name = ?", achievement.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&achievement).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded achievement catalog (%d definitions)", len(achievements))
	return nil
}

func SeedBadges(db *gorm.DB) error {
	badges := []model.Badge{
		{Name: "Novice", Description: "Reach level 5", Icon: "shield", Color: "#10B981", Category: "level",
			ConditionType: model.BadgeConditionLevel, ConditionValue: 5, IsActive: true},
		{Name: "Apprentice", Description: "Reach level 10", Icon: "shield", Color: "#3B82F6", Category: "level",
			ConditionType: model.BadgeConditionLevel, ConditionValue: 10, IsActive: true},
		{Name: "Expert", Description: "Reach level 20", Icon: "shield", Color: "#8B5CF6", Category: "level",
			ConditionType: model.BadgeConditionLevel, ConditionValue: 20, IsActive: true},
		{Name: "Master", Description: "Reach level 50", Icon: "shield", Color: "#F59E0B", Category: "level",
			ConditionType: model.BadgeConditionLevel, ConditionValue: 50, IsActive: true},

		{Name: "Achiever", Description: "Earn 5 achievements", Icon: "award", Color: "#EF4444", Category: "achievement",
			ConditionType: model.BadgeConditionAchievements, ConditionValue: 5, IsActive: true},
		{Name: "Overachiever", Description: "Earn 10 achievements", Icon: "award", Color: "#DC2626", Category: "achievement",
			ConditionType: model.BadgeConditionAchievements, ConditionValue: 10, IsActive: true},

		{Name: "Point Hunter", Description: "Earn 2,500 points", Icon: "target", Color: "#06B6D4", Category: "points",
			ConditionType: model.BadgeConditionPoints, ConditionValue: 2500, IsActive: true},
		{Name: "Point Master", Description: "Earn 10,000 points", Icon: "target", Color: "#0891B2", Category: "points",
			ConditionType: model.BadgeConditionPoints, ConditionValue: 10000, IsActive: true},
	}

	for _, badge := range badges {
		var count int64
		if err := db.Model(&model.Badge{}).
			Where("name = ?", badge.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&badge).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded badge catalog (%d definitions)", len(badges))
	return nil
}

// SeedDevUser creates a known local account outside production.
func SeedDevUser(db *gorm.DB) error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "dev@skillpath.local").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Dev user already exists, skipping seed")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("devpassword"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		Username:     "dev",
		Email:        "dev@skillpath.local",
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	log.Println("Seeded dev user dev@skillpath.local")
	return nil
}

func Seed(db *gorm.DB) error {
	if err := SeedAchievements(db); err != nil {
		return err
	}
	if err := SeedBadges(db); err != nil {
		return err
	}
	return SeedDevUser(db)
}
