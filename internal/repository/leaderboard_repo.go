package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
)

type LeaderboardRepository interface {
	// RankedUserLevels returns user levels ordered by the category's score
	// descending, ties broken by user id ascending.
	RankedUserLevels(ctx context.Context, category model.LeaderboardCategory, limit int) ([]model.UserLevel, error)
	// ReplaceEntries atomically swaps all entries for one (type, category,
	// period_start) key with the freshly ranked set.
	ReplaceEntries(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time, entries []model.LeaderboardEntry) error
	Entries(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time, limit int) ([]model.LeaderboardEntry, error)
	UserEntry(ctx context.Context, userID uuid.UUID, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time) (*model.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func scoreColumn(category model.LeaderboardCategory) string {
	switch category {
	case model.LeaderboardCategoryQuizzes:
		return "quiz_points"
	case model.LeaderboardCategoryStreak:
		return "longest_learning_streak"
	default:
		return "total_points"
	}
}

func (r *leaderboardRepository) RankedUserLevels(ctx context.Context, category model.LeaderboardCategory, limit int) ([]model.UserLevel, error) {
	var levels []model.UserLevel
	err := r.db.WithContext(ctx).
		Order(scoreColumn(category) + " DESC, user_id ASC").
		Limit(limit).
		Find(&levels).Error
	return levels, err
}

func (r *leaderboardRepository) ReplaceEntries(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time, entries []model.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"leaderboard_type = ? AND category = ? AND period_start = ?",
			lbType, category, periodStart,
		).Delete(&model.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *leaderboardRepository) Entries(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.db.WithContext(ctx).Preload("User").
		Where("leaderboard_type = ? AND category = ? AND period_start = ?", lbType, category, periodStart).
		Order("rank ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) UserEntry(ctx context.Context, userID uuid.UUID, lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time) (*model.LeaderboardEntry, error) {
	var entry model.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND leaderboard_type = ? AND category = ? AND period_start = ?",
			userID, lbType, category, periodStart).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
