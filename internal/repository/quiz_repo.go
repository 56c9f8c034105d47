package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/pkg/apperror"
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	FindByTopic(ctx context.Context, topicID uuid.UUID) ([]model.Quiz, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddQuestion(ctx context.Context, question *model.Question) error

	CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error
	FindAttemptByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error)
	UpdateAttempt(ctx context.Context, attempt *model.QuizAttempt) error
	AttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.QuizAttempt, error)

	// Achievement metrics
	CountCompletedAttempts(ctx context.Context, userID uuid.UUID) (int64, error)
	AverageCompletedPercentage(ctx context.Context, userID uuid.UUID) (float64, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.order_index") }).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByTopic(ctx context.Context, topicID uuid.UUID) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.WithContext(ctx).Where("topic_id = ? AND is_active = ?", topicID, true).Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Quiz{}, "id = ?", id).Error
}

func (r *quizRepository) AddQuestion(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) FindAttemptByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *quizRepository) UpdateAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *quizRepository) AttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *quizRepository) CountCompletedAttempts(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.QuizAttempt{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *quizRepository) AverageCompletedPercentage(ctx context.Context, userID uuid.UUID) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&model.QuizAttempt{}).
		Select("AVG(percentage)").
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
