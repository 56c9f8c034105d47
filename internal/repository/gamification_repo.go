package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"skillpath.app/backend/internal/model"
)

// GamificationRepository owns the gamification tables. UpdateUserLevel is the
// only mutation path for UserLevel rows; it locks the row so concurrent awards
// for the same user cannot interleave a partial point update with the level
// recalculation. Grants rely on the unique constraints as the at-most-once
// guarantee: a conflicting insert reports granted=false instead of an error.
type GamificationRepository interface {
	GetUserLevel(ctx context.Context, userID uuid.UUID) (*model.UserLevel, error)
	UpdateUserLevel(ctx context.Context, userID uuid.UUID, mutate func(*model.UserLevel) error) (*model.UserLevel, error)

	ActiveAchievements(ctx context.Context) ([]model.Achievement, error)
	UserAchievements(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error)
	CountUserAchievements(ctx context.Context, userID uuid.UUID) (int64, error)
	GrantAchievement(ctx context.Context, grant *model.UserAchievement) (bool, error)

	ActiveBadges(ctx context.Context) ([]model.Badge, error)
	UserBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error)
	GrantBadge(ctx context.Context, grant *model.UserBadge) (bool, error)
}

type gamificationRepository struct {
	db *gorm.DB
}

func NewGamificationRepository(db *gorm.DB) GamificationRepository {
	return &gamificationRepository{db: db}
}

// GetUserLevel returns the user's level row, creating it lazily on first use.
func (r *gamificationRepository) GetUserLevel(ctx context.Context, userID uuid.UUID) (*model.UserLevel, error) {
	level := model.UserLevel{UserID: userID, CurrentLevel: 1, PointsToNextLevel: 400}
	err := r.db.WithContext(ctx).
		Where(model.UserLevel{UserID: userID}).
		Attrs(level).
		FirstOrCreate(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *gamificationRepository) UpdateUserLevel(ctx context.Context, userID uuid.UUID, mutate func(*model.UserLevel) error) (*model.UserLevel, error) {
	var level model.UserLevel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level = model.UserLevel{UserID: userID, CurrentLevel: 1, PointsToNextLevel: 400}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(model.UserLevel{UserID: userID}).
			Attrs(level).
			FirstOrCreate(&level).Error; err != nil {
			return err
		}
		if err := mutate(&level); err != nil {
			return err
		}
		return tx.Save(&level).Error
	})
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *gamificationRepository) ActiveAchievements(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&achievements).Error
	return achievements, err
}

func (r *gamificationRepository) UserAchievements(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error) {
	var grants []model.UserAchievement
	err := r.db.WithContext(ctx).Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&grants).Error
	return grants, err
}

func (r *gamificationRepository) CountUserAchievements(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *gamificationRepository) GrantAchievement(ctx context.Context, grant *model.UserAchievement) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gamificationRepository) ActiveBadges(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&badges).Error
	return badges, err
}

func (r *gamificationRepository) UserBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error) {
	var grants []model.UserBadge
	err := r.db.WithContext(ctx).Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&grants).Error
	return grants, err
}

func (r *gamificationRepository) GrantBadge(ctx context.Context, grant *model.UserBadge) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
