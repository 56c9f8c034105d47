package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
)

func newTestLeaderboardService(db *gorm.DB) LeaderboardService {
	return NewLeaderboardService(repository.NewLeaderboardRepository(db))
}

func seedUserLevel(t *testing.T, db *gorm.DB, userID uuid.UUID, total, quiz, streak int) {
	t.Helper()

	level := model.UserLevel{
		UserID:                userID,
		CurrentLevel:          1,
		TotalPoints:           total,
		QuizPoints:            quiz,
		LongestLearningStreak: streak,
	}
	require.NoError(t, db.Create(&level).Error)
}

func TestRebuildRanksByScore(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestLeaderboardService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	seedUserLevel(t, db, alice, 300, 50, 3)
	seedUserLevel(t, db, bob, 100, 80, 9)
	seedUserLevel(t, db, carol, 200, 20, 5)

	asOf := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Rebuild(ctx, asOf))

	entries, err := svc.GetLeaderboard(ctx, model.LeaderboardAllTime, model.LeaderboardCategoryPoints, asOf, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, alice, entries[0].UserID)
	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, carol, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, bob, entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)

	// the quizzes category orders by quiz points instead
	entries, err = svc.GetLeaderboard(ctx, model.LeaderboardAllTime, model.LeaderboardCategoryQuizzes, asOf, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, bob, entries[0].UserID)
	assert.Equal(t, 80, entries[0].Score)

	// the streak category orders by longest streak
	entries, err = svc.GetLeaderboard(ctx, model.LeaderboardAllTime, model.LeaderboardCategoryStreak, asOf, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, bob, entries[0].UserID)
	assert.Equal(t, 9, entries[0].Score)
}

func TestRebuildTieBreaksByUserID(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestLeaderboardService(db)
	ctx := context.Background()

	first := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	second := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	for _, id := range []uuid.UUID{second, first} {
		user := model.User{ID: id, Username: "user-" + id.String()[:8], Email: id.String() + "@example.com", PasswordHash: "hashed"}
		require.NoError(t, db.Create(&user).Error)
		seedUserLevel(t, db, id, 500, 0, 0)
	}

	asOf := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Rebuild(ctx, asOf))

	entries, err := svc.GetLeaderboard(ctx, model.LeaderboardAllTime, model.LeaderboardCategoryPoints, asOf, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// equal scores: the lower user id wins the higher rank
	assert.Equal(t, first, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, second, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestRebuildIsIdempotent(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestLeaderboardService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	seedUserLevel(t, db, alice, 250, 100, 4)

	asOf := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Rebuild(ctx, asOf))
	require.NoError(t, svc.Rebuild(ctx, asOf))

	var count int64
	require.NoError(t, db.Model(&model.LeaderboardEntry{}).Count(&count).Error)
	// 3 types x 3 categories, one entry each for the single user
	assert.Equal(t, int64(9), count)
}

func TestUserPosition(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestLeaderboardService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	seedUserLevel(t, db, alice, 300, 0, 0)
	seedUserLevel(t, db, bob, 100, 0, 0)

	asOf := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Rebuild(ctx, asOf))

	entry, err := svc.UserPosition(ctx, bob, model.LeaderboardAllTime, model.LeaderboardCategoryPoints, asOf)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Rank)

	// a user absent from the board yields no entry, not an error
	entry, err = svc.UserPosition(ctx, uuid.New(), model.LeaderboardAllTime, model.LeaderboardCategoryPoints, asOf)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetLeaderboardRejectsUnknownKey(t *testing.T) {
	db := setupGamificationTestDB(t)
	svc := newTestLeaderboardService(db)
	ctx := context.Background()

	_, err := svc.GetLeaderboard(ctx, model.LeaderboardType("daily"), model.LeaderboardCategoryPoints, time.Now(), 10)
	assert.Error(t, err)

	_, err = svc.GetLeaderboard(ctx, model.LeaderboardWeekly, model.LeaderboardCategory("karma"), time.Now(), 10)
	assert.Error(t, err)
}

func TestPeriodBounds(t *testing.T) {
	// Wednesday, March 11 2026
	wednesday := time.Date(2026, time.March, 11, 15, 30, 0, 0, time.UTC)

	start, end := periodBounds(model.LeaderboardWeekly, wednesday)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), start, "week starts Monday")
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), end, "week ends Sunday")

	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	start, _ = periodBounds(model.LeaderboardWeekly, sunday)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), start)

	start, end = periodBounds(model.LeaderboardMonthly, wednesday)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), end)

	start, _ = periodBounds(model.LeaderboardAllTime, wednesday)
	assert.Equal(t, allTimeEpoch, start)
}
