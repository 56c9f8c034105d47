package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

func setupGamificationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
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
	require.NoError(t, err)

	return db
}

func newTestGamificationService(db *gorm.DB) GamificationService {
	return NewGamificationService(
		repository.NewGamificationRepository(db),
		repository.NewActivityRepository(db),
		repository.NewQuizRepository(db),
		repository.NewNoteRepository(db),
		repository.NewLeaderboardRepository(db),
		nil,
	)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()

	user := model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestAwardPointsAccumulates(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	level, err := svc.AwardPoints(ctx, userID, 100, model.PointCategoryLearning)
	require.NoError(t, err)

	assert.Equal(t, 100, level.TotalPoints)
	assert.Equal(t, 100, level.LearningPoints)
	assert.Equal(t, 0, level.QuizPoints)
	assert.Equal(t, 1, level.CurrentLevel)
	assert.Equal(t, 300, level.PointsToNextLevel)
}

func TestAwardPointsLevelBoundary(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, userID, 399, model.PointCategoryLearning)
	require.NoError(t, err)

	// Crossing 400 total promotes to level 2
	level, err := svc.AwardPoints(ctx, userID, 1, model.PointCategoryLearning)
	require.NoError(t, err)

	assert.Equal(t, 400, level.TotalPoints)
	assert.Equal(t, 2, level.CurrentLevel)
	assert.Equal(t, 500, level.PointsToNextLevel)
}

func TestAwardPointsMultiLevelJump(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	// 1000 points clears both the level-2 (400) and level-3 (900) thresholds
	level, err := svc.AwardPoints(ctx, userID, 1000, model.PointCategoryQuiz)
	require.NoError(t, err)

	assert.Equal(t, 3, level.CurrentLevel)
	assert.Equal(t, 1000, level.TotalPoints)
	assert.Equal(t, 600, level.PointsToNextLevel)
}

func TestAwardPointsRejectsNegative(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, userID, -10, model.PointCategoryLearning)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	level, err := svc.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, level.TotalPoints)
}

func TestAwardPointsRejectsUnknownCategory(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")

	_, err := svc.AwardPoints(context.Background(), userID, 10, model.PointCategory("bogus"))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestTouchStreakSameDayIsNoOp(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	day := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	level, err := svc.TouchStreak(ctx, userID, day)
	require.NoError(t, err)
	assert.Equal(t, 1, level.CurrentLearningStreak)

	// later the same day
	level, err = svc.TouchStreak(ctx, userID, day.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, level.CurrentLearningStreak)
	assert.Equal(t, 1, level.LongestLearningStreak)
}

func TestTouchStreakConsecutiveDays(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	day := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := svc.TouchStreak(ctx, userID, day.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	level, err := svc.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, level.CurrentLearningStreak)
	assert.Equal(t, 3, level.LongestLearningStreak)
}

func TestTouchStreakGapResets(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	day := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.TouchStreak(ctx, userID, day)
	require.NoError(t, err)
	_, err = svc.TouchStreak(ctx, userID, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	// two missed days
	level, err := svc.TouchStreak(ctx, userID, day.AddDate(0, 0, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, level.CurrentLearningStreak)
	assert.Equal(t, 2, level.LongestLearningStreak, "longest streak must survive the reset")
}

func TestTouchStreakBackwardsClockResets(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	day := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.TouchStreak(ctx, userID, day)
	require.NoError(t, err)
	_, err = svc.TouchStreak(ctx, userID, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	// activity stamped before the last recorded day
	level, err := svc.TouchStreak(ctx, userID, day.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Equal(t, 1, level.CurrentLearningStreak)
}

func TestCheckAchievementsGrantsOnce(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	achievement := model.Achievement{
		Name:              "Note Taker",
		Description:       "Create your first note",
		Icon:              "📝",
		Category:          "learning",
		Points:            25,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   1,
		ConditionResource: model.MetricNotesCreated,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&achievement).Error)

	note := model.Note{UserID: userID, Title: "First", Content: "hello"}
	require.NoError(t, db.Create(&note).Error)

	earned, err := svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Note Taker", earned[0].Name)

	level, err := svc.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, level.AchievementPoints)
	assert.Equal(t, 25, level.TotalPoints)

	// a second pass must not grant or award again
	earned, err = svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, earned)

	level, err = svc.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, level.TotalPoints)
}

func TestCheckAchievementsSkipsUnmetTargets(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	achievement := model.Achievement{
		Name:              "Prolific Writer",
		Description:       "Create 25 notes",
		Icon:              "✍️",
		Category:          "learning",
		Points:            100,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   25,
		ConditionResource: model.MetricNotesCreated,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&achievement).Error)

	note := model.Note{UserID: userID, Title: "Only one", Content: "hello"}
	require.NoError(t, db.Create(&note).Error)

	earned, err := svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestCheckAchievementsPointRewardsDoNotCascade(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	noteAchievement := model.Achievement{
		Name:              "Note Taker",
		Description:       "Create your first note",
		Icon:              "📝",
		Category:          "learning",
		Points:            500,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   1,
		ConditionResource: model.MetricNotesCreated,
		IsActive:          true,
	}
	pointAchievement := model.Achievement{
		Name:              "Point Collector",
		Description:       "Earn 100 points",
		Icon:              "💯",
		Category:          "milestone",
		Points:            50,
		ConditionType:     model.ConditionTime,
		ConditionTarget:   100,
		ConditionResource: model.MetricTotalPoints,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&noteAchievement).Error)
	require.NoError(t, db.Create(&pointAchievement).Error)

	note := model.Note{UserID: userID, Title: "First", Content: "hello"}
	require.NoError(t, db.Create(&note).Error)

	// The 500 points from Note Taker land mid-pass, but Point Collector is
	// evaluated against the total as it stood when the pass started.
	earned, err := svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Note Taker", earned[0].Name)

	earned, err = svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Point Collector", earned[0].Name)
}

func TestCheckAchievementsQuizMetrics(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	countAchievement := model.Achievement{
		Name:              "Quiz Novice",
		Description:       "Complete your first quiz",
		Icon:              "🎯",
		Category:          "quiz",
		Points:            50,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   1,
		ConditionResource: model.MetricQuizzesCompleted,
		IsActive:          true,
	}
	scoreAchievement := model.Achievement{
		Name:              "Perfectionist",
		Description:       "Average 85% across completed quizzes",
		Icon:              "⭐",
		Category:          "quiz",
		Points:            100,
		ConditionType:     model.ConditionScore,
		ConditionTarget:   85,
		ConditionResource: model.MetricAverageQuizScore,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&countAchievement).Error)
	require.NoError(t, db.Create(&scoreAchievement).Error)

	completed := time.Now()
	attempts := []model.QuizAttempt{
		{UserID: userID, QuizID: uuid.New(), Percentage: 80, CompletedAt: &completed},
		{UserID: userID, QuizID: uuid.New(), Percentage: 90, CompletedAt: &completed},
		{UserID: userID, QuizID: uuid.New(), Percentage: 40}, // abandoned, must not count
	}
	for i := range attempts {
		require.NoError(t, db.Create(&attempts[i]).Error)
	}

	earned, err := svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 2)

	names := []string{earned[0].Name, earned[1].Name}
	assert.Contains(t, names, "Quiz Novice")
	assert.Contains(t, names, "Perfectionist")
}

func TestCheckBadges(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	levelBadge := model.Badge{
		Name:           "Bronze Scholar",
		Description:    "Reach level 2",
		Icon:           "🥉",
		Color:          "#CD7F32",
		Category:       "level",
		ConditionType:  model.BadgeConditionLevel,
		ConditionValue: 2,
		IsActive:       true,
	}
	pointBadge := model.Badge{
		Name:           "Point Hoarder",
		Description:    "Collect 10000 points",
		Icon:           "💰",
		Color:          "#FFD700",
		Category:       "points",
		ConditionType:  model.BadgeConditionPoints,
		ConditionValue: 10000,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&levelBadge).Error)
	require.NoError(t, db.Create(&pointBadge).Error)

	_, err := svc.AwardPoints(ctx, userID, 400, model.PointCategoryLearning)
	require.NoError(t, err)

	earned, err := svc.CheckBadges(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Bronze Scholar", earned[0].Name)

	// badges carry no point reward
	level, err := svc.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 400, level.TotalPoints)

	earned, err = svc.CheckBadges(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestCheckBadgesAchievementCount(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	badge := model.Badge{
		Name:           "Collector",
		Description:    "Earn 2 achievements",
		Icon:           "🏆",
		Color:          "#C0C0C0",
		Category:       "achievements",
		ConditionType:  model.BadgeConditionAchievements,
		ConditionValue: 2,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&badge).Error)

	for i, name := range []string{"First", "Second"} {
		achievement := model.Achievement{
			Name:              name,
			Description:       name,
			Icon:              "🎖",
			Category:          "milestone",
			ConditionType:     model.ConditionCount,
			ConditionTarget:   1,
			ConditionResource: model.MetricNotesCreated,
			IsActive:          true,
		}
		require.NoError(t, db.Create(&achievement).Error)
		grant := model.UserAchievement{UserID: userID, AchievementID: achievement.ID, ProgressValue: i + 1}
		require.NoError(t, db.Create(&grant).Error)
	}

	earned, err := svc.CheckBadges(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Collector", earned[0].Name)
}

func TestAchievementOverview(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	earnedDef := model.Achievement{
		Name:              "Note Taker",
		Description:       "Create your first note",
		Icon:              "📝",
		Category:          "learning",
		Points:            25,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   1,
		ConditionResource: model.MetricNotesCreated,
		IsActive:          true,
	}
	unearnedDef := model.Achievement{
		Name:              "Prolific Writer",
		Description:       "Create 10 notes",
		Icon:              "✍️",
		Category:          "learning",
		Points:            100,
		ConditionType:     model.ConditionCount,
		ConditionTarget:   10,
		ConditionResource: model.MetricNotesCreated,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&earnedDef).Error)
	require.NoError(t, db.Create(&unearnedDef).Error)

	note := model.Note{UserID: userID, Title: "First", Content: "hello"}
	require.NoError(t, db.Create(&note).Error)

	_, err := svc.CheckAchievements(ctx, userID)
	require.NoError(t, err)

	overview, err := svc.AchievementOverview(ctx, userID)
	require.NoError(t, err)
	require.Len(t, overview, 2)

	// earned entries sort first
	assert.True(t, overview[0].Earned)
	assert.Equal(t, "Note Taker", overview[0].Name)
	assert.Equal(t, float64(100), overview[0].ProgressPercentage)

	assert.False(t, overview[1].Earned)
	assert.Equal(t, float64(1), overview[1].Progress)
	assert.Equal(t, float64(10), overview[1].ProgressPercentage)
}

func TestGetUserStats(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestGamificationService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, userID, 150, model.PointCategoryQuiz)
	require.NoError(t, err)

	stats, err := svc.GetUserStats(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 150, stats.Level.TotalPoints)
	assert.Equal(t, 150, stats.Level.QuizPoints)
	assert.Empty(t, stats.Achievements)
	assert.Empty(t, stats.Badges)
	assert.Empty(t, stats.LeaderboardPositions, "unranked users have no positions")
}
