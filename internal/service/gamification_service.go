package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

// pointsForLevel is the cumulative point total required to reach a level.
// Quadratic growth: level 1 = 100, level 2 = 400, level 3 = 900, ...
func pointsForLevel(level int) int {
	return level * level * 100
}

// UserStats is the aggregate gamification view for one user.
type UserStats struct {
	Level                *model.UserLevel         `json:"level"`
	Achievements         []model.UserAchievement  `json:"achievements"`
	Badges               []model.UserBadge        `json:"badges"`
	LeaderboardPositions map[string]int           `json:"leaderboard_positions"`
}

// AchievementStatus is an achievement definition plus the user's standing.
type AchievementStatus struct {
	model.Achievement
	Earned             bool       `json:"earned"`
	EarnedAt           *time.Time `json:"earned_at,omitempty"`
	Progress           float64    `json:"progress"`
	ProgressPercentage float64    `json:"progress_percentage"`
}

type BadgeStatus struct {
	model.Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

type GamificationService interface {
	AwardPoints(ctx context.Context, userID uuid.UUID, points int, category model.PointCategory) (*model.UserLevel, error)
	TouchStreak(ctx context.Context, userID uuid.UUID, today time.Time) (*model.UserLevel, error)
	CheckAchievements(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error)
	CheckBadges(ctx context.Context, userID uuid.UUID) ([]model.Badge, error)
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
	GetUserLevel(ctx context.Context, userID uuid.UUID) (*model.UserLevel, error)
	AchievementProgress(ctx context.Context, userID uuid.UUID, achievement model.Achievement) (float64, error)
	AchievementOverview(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error)
	BadgeOverview(ctx context.Context, userID uuid.UUID) ([]BadgeStatus, error)
	RecentAchievements(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserAchievement, error)
}

type gamificationService struct {
	repo                repository.GamificationRepository
	activityRepo        repository.ActivityRepository
	quizRepo            repository.QuizRepository
	noteRepo            repository.NoteRepository
	leaderboardRepo     repository.LeaderboardRepository
	notificationService NotificationService

	now func() time.Time
}

func NewGamificationService(
	repo repository.GamificationRepository,
	activityRepo repository.ActivityRepository,
	quizRepo repository.QuizRepository,
	noteRepo repository.NoteRepository,
	leaderboardRepo repository.LeaderboardRepository,
	notificationService NotificationService,
) GamificationService {
	return &gamificationService{
		repo:                repo,
		activityRepo:        activityRepo,
		quizRepo:            quizRepo,
		noteRepo:            noteRepo,
		leaderboardRepo:     leaderboardRepo,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

func (s *gamificationService) GetUserLevel(ctx context.Context, userID uuid.UUID) (*model.UserLevel, error) {
	return s.repo.GetUserLevel(ctx, userID)
}

// AwardPoints adds points to the category subtotal and the total, then
// recalculates the level. Negative awards are rejected: no upstream caller has
// a legitimate deduction path, so a negative value is always a caller bug.
func (s *gamificationService) AwardPoints(ctx context.Context, userID uuid.UUID, points int, category model.PointCategory) (*model.UserLevel, error) {
	if points < 0 {
		return nil, fmt.Errorf("point award must not be negative: %w", apperror.ErrInvalidInput)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown point category %q: %w", category, apperror.ErrInvalidInput)
	}

	var levelBefore, levelAfter int
	level, err := s.repo.UpdateUserLevel(ctx, userID, func(l *model.UserLevel) error {
		switch category {
		case model.PointCategoryLearning:
			l.LearningPoints += points
		case model.PointCategoryQuiz:
			l.QuizPoints += points
		case model.PointCategoryAchievement:
			l.AchievementPoints += points
		case model.PointCategorySocial:
			l.SocialPoints += points
		}
		l.TotalPoints += points

		levelBefore = l.CurrentLevel
		// A single large award may cross several level boundaries.
		for l.TotalPoints >= pointsForLevel(l.CurrentLevel+1) {
			l.CurrentLevel++
		}
		l.PointsToNextLevel = pointsForLevel(l.CurrentLevel+1) - l.TotalPoints
		levelAfter = l.CurrentLevel
		return nil
	})
	if err != nil {
		return nil, err
	}

	if levelAfter > levelBefore {
		s.notify(ctx, userID, model.NotificationLevelUp,
			fmt.Sprintf("Level up! You reached level %d with %d points.", levelAfter, level.TotalPoints))
	}

	return level, nil
}

// TouchStreak records learning activity for the given day and updates the
// consecutive-day streak. Repeat same-day calls are no-ops for the streak; a
// gap of exactly one day extends it; any other gap, including a clock-skewed
// negative one, resets it to 1.
func (s *gamificationService) TouchStreak(ctx context.Context, userID uuid.UUID, today time.Time) (*model.UserLevel, error) {
	day := dateOnly(today)

	level, err := s.repo.UpdateUserLevel(ctx, userID, func(l *model.UserLevel) error {
		if l.LastActivityDate == nil {
			l.CurrentLearningStreak = 1
		} else {
			gap := daysBetween(dateOnly(*l.LastActivityDate), day)
			switch {
			case gap == 0:
				// same-day activity, streak unchanged
			case gap == 1:
				l.CurrentLearningStreak++
			default:
				l.CurrentLearningStreak = 1
			}
		}
		if l.CurrentLearningStreak > l.LongestLearningStreak {
			l.LongestLearningStreak = l.CurrentLearningStreak
		}
		l.LastActivityDate = &day
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.CheckAchievements(ctx, userID); err != nil {
		return nil, err
	}

	return level, nil
}

// CheckAchievements grants every ungranted active achievement whose metric has
// reached its target. Metrics that depend on the point total are evaluated
// against the total as it stood before this call, so point rewards granted
// during the pass cannot cascade into further grants; the next check picks
// those up.
func (s *gamificationService) CheckAchievements(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error) {
	snapshot, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	achievements, err := s.repo.ActiveAchievements(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.UserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	grantedIDs := make(map[uint]struct{}, len(existing))
	for _, g := range existing {
		grantedIDs[g.AchievementID] = struct{}{}
	}

	var newlyEarned []model.Achievement
	for _, achievement := range achievements {
		if _, ok := grantedIDs[achievement.ID]; ok {
			continue
		}

		progress, err := s.progressFor(ctx, userID, achievement, snapshot)
		if err != nil {
			return newlyEarned, err
		}
		if progress < float64(achievement.ConditionTarget) {
			continue
		}

		granted, err := s.repo.GrantAchievement(ctx, &model.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			ProgressValue: int(progress),
		})
		if err != nil {
			return newlyEarned, err
		}
		if !granted {
			// lost the race to a concurrent check; the constraint already
			// guaranteed the single grant and its point award
			continue
		}

		if _, err := s.AwardPoints(ctx, userID, achievement.Points, model.PointCategoryAchievement); err != nil {
			return newlyEarned, err
		}

		s.notify(ctx, userID, model.NotificationAchievementEarned,
			fmt.Sprintf("Achievement earned: %s (+%d points)", achievement.Name, achievement.Points))

		newlyEarned = append(newlyEarned, achievement)
	}

	return newlyEarned, nil
}

// AchievementProgress reports the user's current metric value for an
// achievement, for UI progress bars.
func (s *gamificationService) AchievementProgress(ctx context.Context, userID uuid.UUID, achievement model.Achievement) (float64, error) {
	snapshot, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.progressFor(ctx, userID, achievement, snapshot)
}

func (s *gamificationService) progressFor(ctx context.Context, userID uuid.UUID, achievement model.Achievement, snapshot *model.UserLevel) (float64, error) {
	switch achievement.ConditionType {
	case model.ConditionCount:
		var (
			count int64
			err   error
		)
		switch achievement.ConditionResource {
		case model.MetricLearningPathsCompleted:
			count, err = s.activityRepo.CountByType(ctx, userID, model.ActivityLearningPathCompleted)
		case model.MetricQuizzesCompleted:
			count, err = s.quizRepo.CountCompletedAttempts(ctx, userID)
		case model.MetricResourcesViewed:
			count, err = s.activityRepo.CountByType(ctx, userID, model.ActivityResourceViewed)
		case model.MetricNotesCreated:
			count, err = s.noteRepo.CountByUser(ctx, userID)
		default:
			return 0, fmt.Errorf("unknown count resource %q: %w", achievement.ConditionResource, apperror.ErrInvalidInput)
		}
		return float64(count), err

	case model.ConditionStreak:
		if achievement.ConditionResource != model.MetricLearningStreak {
			return 0, fmt.Errorf("unknown streak resource %q: %w", achievement.ConditionResource, apperror.ErrInvalidInput)
		}
		return float64(snapshot.CurrentLearningStreak), nil

	case model.ConditionScore:
		if achievement.ConditionResource != model.MetricAverageQuizScore {
			return 0, fmt.Errorf("unknown score resource %q: %w", achievement.ConditionResource, apperror.ErrInvalidInput)
		}
		return s.quizRepo.AverageCompletedPercentage(ctx, userID)

	case model.ConditionTime:
		if achievement.ConditionResource != model.MetricTotalPoints {
			return 0, fmt.Errorf("unknown time resource %q: %w", achievement.ConditionResource, apperror.ErrInvalidInput)
		}
		return float64(snapshot.TotalPoints), nil
	}

	return 0, fmt.Errorf("unknown condition type %q: %w", achievement.ConditionType, apperror.ErrInvalidInput)
}

// CheckBadges grants every ungranted active badge whose threshold is met.
// Badges are cosmetic and carry no point reward.
func (s *gamificationService) CheckBadges(ctx context.Context, userID uuid.UUID) ([]model.Badge, error) {
	level, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.repo.ActiveBadges(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	grantedIDs := make(map[uint]struct{}, len(existing))
	for _, g := range existing {
		grantedIDs[g.BadgeID] = struct{}{}
	}

	var newlyEarned []model.Badge
	for _, badge := range badges {
		if _, ok := grantedIDs[badge.ID]; ok {
			continue
		}

		met, err := s.badgeConditionMet(ctx, userID, badge, level)
		if err != nil {
			return newlyEarned, err
		}
		if !met {
			continue
		}

		granted, err := s.repo.GrantBadge(ctx, &model.UserBadge{UserID: userID, BadgeID: badge.ID})
		if err != nil {
			return newlyEarned, err
		}
		if !granted {
			continue
		}

		s.notify(ctx, userID, model.NotificationBadgeEarned,
			fmt.Sprintf("Badge earned: %s", badge.Name))

		newlyEarned = append(newlyEarned, badge)
	}

	return newlyEarned, nil
}

func (s *gamificationService) badgeConditionMet(ctx context.Context, userID uuid.UUID, badge model.Badge, level *model.UserLevel) (bool, error) {
	switch badge.ConditionType {
	case model.BadgeConditionLevel:
		return level.CurrentLevel >= badge.ConditionValue, nil
	case model.BadgeConditionAchievements:
		count, err := s.repo.CountUserAchievements(ctx, userID)
		if err != nil {
			return false, err
		}
		return count >= int64(badge.ConditionValue), nil
	case model.BadgeConditionPoints:
		return level.TotalPoints >= badge.ConditionValue, nil
	}
	return false, fmt.Errorf("unknown badge condition type %q: %w", badge.ConditionType, apperror.ErrInvalidInput)
}

// GetUserStats aggregates level info, grants, and the user's position across
// all nine leaderboards for the current period (missing key = unranked).
func (s *gamificationService) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	level, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	achievements, err := s.repo.UserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.repo.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int)
	asOf := s.now()
	for _, lbType := range []model.LeaderboardType{model.LeaderboardWeekly, model.LeaderboardMonthly, model.LeaderboardAllTime} {
		for _, category := range []model.LeaderboardCategory{model.LeaderboardCategoryPoints, model.LeaderboardCategoryQuizzes, model.LeaderboardCategoryStreak} {
			periodStart, _ := periodBounds(lbType, asOf)
			entry, err := s.leaderboardRepo.UserEntry(ctx, userID, lbType, category, periodStart)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				positions[fmt.Sprintf("%s_%s", lbType, category)] = entry.Rank
			}
		}
	}

	return &UserStats{
		Level:                level,
		Achievements:         achievements,
		Badges:               badges,
		LeaderboardPositions: positions,
	}, nil
}

// AchievementOverview lists every active achievement with earned state and
// current progress toward the target; earned first, then by category and name.
func (s *gamificationService) AchievementOverview(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	achievements, err := s.repo.ActiveAchievements(ctx)
	if err != nil {
		return nil, err
	}

	granted, err := s.repo.UserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	grantedByID := make(map[uint]model.UserAchievement, len(granted))
	for _, g := range granted {
		grantedByID[g.AchievementID] = g
	}

	snapshot, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]AchievementStatus, 0, len(achievements))
	for _, achievement := range achievements {
		status := AchievementStatus{Achievement: achievement}
		if grant, ok := grantedByID[achievement.ID]; ok {
			earnedAt := grant.EarnedAt
			status.Earned = true
			status.EarnedAt = &earnedAt
			status.Progress = float64(grant.ProgressValue)
			status.ProgressPercentage = 100
		} else {
			progress, err := s.progressFor(ctx, userID, achievement, snapshot)
			if err != nil {
				return nil, err
			}
			status.Progress = progress
			if achievement.ConditionTarget > 0 {
				status.ProgressPercentage = math.Min(100, progress/float64(achievement.ConditionTarget)*100)
			}
		}
		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].Earned != statuses[j].Earned {
			return statuses[i].Earned
		}
		if statuses[i].Category != statuses[j].Category {
			return statuses[i].Category < statuses[j].Category
		}
		return statuses[i].Name < statuses[j].Name
	})

	return statuses, nil
}

func (s *gamificationService) BadgeOverview(ctx context.Context, userID uuid.UUID) ([]BadgeStatus, error) {
	badges, err := s.repo.ActiveBadges(ctx)
	if err != nil {
		return nil, err
	}

	granted, err := s.repo.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	grantedByID := make(map[uint]model.UserBadge, len(granted))
	for _, g := range granted {
		grantedByID[g.BadgeID] = g
	}

	statuses := make([]BadgeStatus, 0, len(badges))
	for _, badge := range badges {
		status := BadgeStatus{Badge: badge}
		if grant, ok := grantedByID[badge.ID]; ok {
			earnedAt := grant.EarnedAt
			status.Earned = true
			status.EarnedAt = &earnedAt
		}
		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].Earned != statuses[j].Earned {
			return statuses[i].Earned
		}
		if statuses[i].Category != statuses[j].Category {
			return statuses[i].Category < statuses[j].Category
		}
		return statuses[i].Name < statuses[j].Name
	})

	return statuses, nil
}

func (s *gamificationService) RecentAchievements(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserAchievement, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	granted, err := s.repo.UserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(granted, func(i, j int) bool {
		return granted[i].EarnedAt.After(granted[j].EarnedAt)
	})

	if len(granted) > limit {
		granted = granted[:limit]
	}
	return granted, nil
}

// notify is best-effort: a failed notification never fails the gamification
// operation that produced it.
func (s *gamificationService) notify(ctx context.Context, userID uuid.UUID, notificationType, message string) {
	if s.notificationService == nil {
		return
	}
	err := s.notificationService.Create(ctx, &model.Notification{
		UserID:           userID,
		Message:          message,
		NotificationType: notificationType,
	})
	if err != nil {
		log.Printf("failed to create %s notification for user %s: %v", notificationType, userID, err)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
