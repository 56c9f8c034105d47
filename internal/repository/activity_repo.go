package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.UserActivity) error
	FindByUser(ctx context.Context, userID uuid.UUID, activityType string, limit, offset int) ([]model.UserActivity, int64, error)
	CountByType(ctx context.Context, userID uuid.UUID, activityType string) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.UserActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) FindByUser(ctx context.Context, userID uuid.UUID, activityType string, limit, offset int) ([]model.UserActivity, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.UserActivity{}).Where("user_id = ?", userID)
	if activityType != "" {
		query = query.Where("activity_type = ?", activityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []model.UserActivity
	err := query.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&activities).Error
	return activities, total, err
}

func (r *activityRepository) CountByType(ctx context.Context, userID uuid.UUID, activityType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserActivity{}).
		Where("user_id = ? AND activity_type = ?", userID, activityType).
		Count(&count).Error
	return count, err
}
