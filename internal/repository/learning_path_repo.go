package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/pkg/apperror"
)

type LearningPathFilter struct {
	Subject         string
	DifficultyLevel string
	ActiveOnly      bool
}

type LearningPathRepository interface {
	Create(ctx context.Context, path *model.LearningPath) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LearningPath, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter LearningPathFilter) ([]model.LearningPath, error)
	Update(ctx context.Context, path *model.LearningPath) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateTopic(ctx context.Context, topic *model.Topic) error
	FindTopicByID(ctx context.Context, id uuid.UUID) (*model.Topic, error)
	UpdateTopic(ctx context.Context, topic *model.Topic) error
	CountTopics(ctx context.Context, pathID uuid.UUID) (total int64, completed int64, err error)
}

type learningPathRepository struct {
	db *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) LearningPathRepository {
	return &learningPathRepository{db: db}
}

func (r *learningPathRepository) Create(ctx context.Context, path *model.LearningPath) error {
	return r.db.WithContext(ctx).Create(path).Error
}

func (r *learningPathRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LearningPath, error) {
	var path model.LearningPath
	err := r.db.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("topics.order_index") }).
		Preload("Topics.Resources").
		Preload("Topics.Quizzes").
		First(&path, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &path, nil
}

func (r *learningPathRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter LearningPathFilter) ([]model.LearningPath, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.DifficultyLevel != "" {
		query = query.Where("difficulty_level = ?", filter.DifficultyLevel)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var paths []model.LearningPath
	err := query.Preload("Topics").Order("created_at DESC").Find(&paths).Error
	return paths, err
}

func (r *learningPathRepository) Update(ctx context.Context, path *model.LearningPath) error {
	return r.db.WithContext(ctx).Save(path).Error
}

func (r *learningPathRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.LearningPath{}, "id = ?", id).Error
}

func (r *learningPathRepository) CreateTopic(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *learningPathRepository) FindTopicByID(ctx context.Context, id uuid.UUID) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.WithContext(ctx).Preload("Resources").Preload("Quizzes").First(&topic, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &topic, nil
}

func (r *learningPathRepository) UpdateTopic(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Save(topic).Error
}

func (r *learningPathRepository) CountTopics(ctx context.Context, pathID uuid.UUID) (int64, int64, error) {
	var total, completed int64
	base := r.db.WithContext(ctx).Model(&model.Topic{}).Where("learning_path_id = ?", pathID)
	if err := base.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err := r.db.WithContext(ctx).Model(&model.Topic{}).
		Where("learning_path_id = ? AND is_completed = ?", pathID, true).
		Count(&completed).Error
	return total, completed, err
}
