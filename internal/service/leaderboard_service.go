package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

// Leaderboards keep the top N users per (type, category, period) key.
const leaderboardSize = 100

// allTimeEpoch is the fixed period start for all_time leaderboards.
var allTimeEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type LeaderboardService interface {
	// Rebuild recomputes every (type, category) leaderboard for the periods
	// containing asOf. Idempotent: rerunning with unchanged data produces
	// identical rank assignments.
	Rebuild(ctx context.Context, asOf time.Time) error
	GetLeaderboard(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, asOf time.Time, limit int) ([]model.LeaderboardEntry, error)
	UserPosition(ctx context.Context, userID uuid.UUID, lbType model.LeaderboardType, category model.LeaderboardCategory, asOf time.Time) (*model.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo repository.LeaderboardRepository

	// serializes delete+insert per leaderboard key; rebuilds of distinct keys
	// may run concurrently
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLeaderboardService(repo repository.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// periodBounds returns the period containing asOf for a leaderboard type.
// Weekly runs Monday through Sunday of the ISO week; monthly covers the
// calendar month; all_time is pinned to the project epoch.
func periodBounds(lbType model.LeaderboardType, asOf time.Time) (time.Time, time.Time) {
	day := dateOnly(asOf)
	switch lbType {
	case model.LeaderboardWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		start := day.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 6)
	case model.LeaderboardMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	default:
		return allTimeEpoch, day
	}
}

func categoryScore(category model.LeaderboardCategory, level model.UserLevel) int {
	switch category {
	case model.LeaderboardCategoryQuizzes:
		return level.QuizPoints
	case model.LeaderboardCategoryStreak:
		return level.LongestLearningStreak
	default:
		return level.TotalPoints
	}
}

func (s *leaderboardService) keyLock(lbType model.LeaderboardType, category model.LeaderboardCategory, periodStart time.Time) *sync.Mutex {
	key := fmt.Sprintf("%s:%s:%s", lbType, category, periodStart.Format("2006-01-02"))
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *leaderboardService) Rebuild(ctx context.Context, asOf time.Time) error {
	types := []model.LeaderboardType{model.LeaderboardWeekly, model.LeaderboardMonthly, model.LeaderboardAllTime}
	categories := []model.LeaderboardCategory{model.LeaderboardCategoryPoints, model.LeaderboardCategoryQuizzes, model.LeaderboardCategoryStreak}

	for _, lbType := range types {
		for _, category := range categories {
			if err := s.rebuildKey(ctx, lbType, category, asOf); err != nil {
				return fmt.Errorf("rebuild %s/%s leaderboard: %w", lbType, category, err)
			}
		}
	}
	return nil
}

func (s *leaderboardService) rebuildKey(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, asOf time.Time) error {
	periodStart, periodEnd := periodBounds(lbType, asOf)

	lock := s.keyLock(lbType, category, periodStart)
	lock.Lock()
	defer lock.Unlock()

	levels, err := s.repo.RankedUserLevels(ctx, category, leaderboardSize)
	if err != nil {
		return err
	}

	entries := make([]model.LeaderboardEntry, 0, len(levels))
	for i, level := range levels {
		entries = append(entries, model.LeaderboardEntry{
			UserID:          level.UserID,
			LeaderboardType: lbType,
			Category:        category,
			Score:           categoryScore(category, level),
			Rank:            i + 1,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
		})
	}

	return s.repo.ReplaceEntries(ctx, lbType, category, periodStart, entries)
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, lbType model.LeaderboardType, category model.LeaderboardCategory, asOf time.Time, limit int) ([]model.LeaderboardEntry, error) {
	if !lbType.Valid() {
		return nil, fmt.Errorf("unknown leaderboard type %q: %w", lbType, apperror.ErrInvalidInput)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown leaderboard category %q: %w", category, apperror.ErrInvalidInput)
	}
	if limit <= 0 || limit > leaderboardSize {
		limit = leaderboardSize
	}

	periodStart, _ := periodBounds(lbType, asOf)
	return s.repo.Entries(ctx, lbType, category, periodStart, limit)
}

func (s *leaderboardService) UserPosition(ctx context.Context, userID uuid.UUID, lbType model.LeaderboardType, category model.LeaderboardCategory, asOf time.Time) (*model.LeaderboardEntry, error) {
	periodStart, _ := periodBounds(lbType, asOf)
	return s.repo.UserEntry(ctx, userID, lbType, category, periodStart)
}
