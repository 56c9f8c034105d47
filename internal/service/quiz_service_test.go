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
	"skillpath.app/backend/pkg/apperror"
)

func setupQuizTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := setupGamificationTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.LearningPath{}, &model.Topic{}, &model.Resource{}))
	return db
}

func newTestQuizService(db *gorm.DB) QuizService {
	return NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewLearningPathRepository(db),
		repository.NewActivityRepository(db),
		newTestGamificationService(db),
	)
}

func seedQuizFixture(t *testing.T, db *gorm.DB, userID uuid.UUID) *model.Quiz {
	t.Helper()

	path := model.LearningPath{UserID: userID, Title: "Go Basics", Subject: "programming"}
	require.NoError(t, db.Create(&path).Error)

	topic := model.Topic{LearningPathID: path.ID, Title: "Concurrency"}
	require.NoError(t, db.Create(&topic).Error)

	quiz := model.Quiz{TopicID: topic.ID, Title: "Channels", DifficultyLevel: "intermediate", TimeLimitMinutes: 15, IsActive: true}
	require.NoError(t, db.Create(&quiz).Error)

	questions := []model.Question{
		{
			QuizID:        quiz.ID,
			QuestionText:  "Which keyword starts a goroutine?",
			QuestionType:  "multiple_choice",
			CorrectAnswer: "go",
			Options:       []string{"go", "run", "spawn", "async"},
			Points:        2,
		},
		{
			QuizID:        quiz.ID,
			QuestionText:  "Unbuffered channel sends block until received.",
			QuestionType:  "true_false",
			CorrectAnswer: "true",
			Points:        1,
		},
		{
			QuizID:        quiz.ID,
			QuestionText:  "Name the function that closes a channel.",
			QuestionType:  "short_answer",
			CorrectAnswer: "close",
			Points:        1,
		},
	}
	for i := range questions {
		require.NoError(t, db.Create(&questions[i]).Error)
	}
	quiz.Questions = questions
	return &quiz
}

func TestStartAttemptHidesAnswers(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	userID := createTestUser(t, db, "learner")
	quiz := seedQuizFixture(t, db, userID)
	ctx := context.Background()

	started, err := svc.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	assert.Equal(t, userID, started.Attempt.UserID)
	assert.Equal(t, float64(4), started.Attempt.MaxScore)
	assert.Nil(t, started.Attempt.CompletedAt)
	require.Len(t, started.Questions, 3)
	for _, q := range started.Questions {
		assert.NotEmpty(t, q.QuestionText)
	}
}

func TestStartAttemptRequiresQuestions(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	userID := createTestUser(t, db, "learner")
	ctx := context.Background()

	path := model.LearningPath{UserID: userID, Title: "Empty", Subject: "misc"}
	require.NoError(t, db.Create(&path).Error)
	topic := model.Topic{LearningPathID: path.ID, Title: "Empty"}
	require.NoError(t, db.Create(&topic).Error)
	quiz := model.Quiz{TopicID: topic.ID, Title: "No Questions", IsActive: true}
	require.NoError(t, db.Create(&quiz).Error)

	_, err := svc.StartAttempt(ctx, userID, quiz.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestStartAttemptRejectsForeignQuiz(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	owner := createTestUser(t, db, "owner")
	intruder := createTestUser(t, db, "intruder")
	quiz := seedQuizFixture(t, db, owner)

	_, err := svc.StartAttempt(context.Background(), intruder, quiz.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSubmitAttemptGrades(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	userID := createTestUser(t, db, "learner")
	quiz := seedQuizFixture(t, db, userID)
	ctx := context.Background()

	started, err := svc.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	// correct MC (case-insensitive), wrong true/false, correct short answer
	// with surrounding whitespace
	answers := map[string]string{
		quiz.Questions[0].ID.String(): "GO",
		quiz.Questions[1].ID.String(): "false",
		quiz.Questions[2].ID.String(): "  close  ",
	}

	result, err := svc.SubmitAttempt(ctx, userID, started.Attempt.ID, SubmitAttemptInput{Answers: answers})
	require.NoError(t, err)

	assert.Equal(t, float64(3), result.Score)
	assert.Equal(t, float64(4), result.MaxScore)
	assert.Equal(t, float64(75), result.Percentage)
	// 75% of the 50-point base
	assert.Equal(t, 37, result.PointsAwarded)
	require.Len(t, result.DetailedResults, 3)
	assert.True(t, result.DetailedResults[0].IsCorrect)
	assert.False(t, result.DetailedResults[1].IsCorrect)
	assert.True(t, result.DetailedResults[2].IsCorrect)

	level, err := newTestGamificationService(db).GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 37, level.QuizPoints)
	assert.Equal(t, 1, level.CurrentLearningStreak)

	var count int64
	require.NoError(t, db.Model(&model.UserActivity{}).
		Where("user_id = ? AND activity_type = ?", userID, model.ActivityQuizCompleted).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitAttemptRejectsResubmission(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	userID := createTestUser(t, db, "learner")
	quiz := seedQuizFixture(t, db, userID)
	ctx := context.Background()

	started, err := svc.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	answers := map[string]string{quiz.Questions[0].ID.String(): "go"}
	_, err = svc.SubmitAttempt(ctx, userID, started.Attempt.ID, SubmitAttemptInput{Answers: answers})
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(ctx, userID, started.Attempt.ID, SubmitAttemptInput{Answers: answers})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSubmitAttemptRejectsEmptyAnswers(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	userID := createTestUser(t, db, "learner")
	quiz := seedQuizFixture(t, db, userID)
	ctx := context.Background()

	started, err := svc.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(ctx, userID, started.Attempt.ID, SubmitAttemptInput{Answers: map[string]string{}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestSubmitAttemptRejectsForeignAttempt(t *testing.T) {
	db := setupQuizTestDB(t)
	svc := newTestQuizService(db)
	owner := createTestUser(t, db, "owner")
	intruder := createTestUser(t, db, "intruder")
	quiz := seedQuizFixture(t, db, owner)
	ctx := context.Background()

	started, err := svc.StartAttempt(ctx, owner, quiz.ID)
	require.NoError(t, err)

	answers := map[string]string{quiz.Questions[0].ID.String(): "go"}
	_, err = svc.SubmitAttempt(ctx, intruder, started.Attempt.ID, SubmitAttemptInput{Answers: answers})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGradeAnswer(t *testing.T) {
	mc := model.Question{QuestionType: "multiple_choice", CorrectAnswer: "Paris"}
	assert.True(t, gradeAnswer(mc, "paris"))
	assert.False(t, gradeAnswer(mc, "London"))
	assert.False(t, gradeAnswer(mc, ""))

	sa := model.Question{QuestionType: "short_answer", CorrectAnswer: " close "}
	assert.True(t, gradeAnswer(sa, "CLOSE"))

	tf := model.Question{QuestionType: "true_false", CorrectAnswer: "true"}
	assert.True(t, gradeAnswer(tf, "True"))
	assert.False(t, gradeAnswer(tf, "false"))
}

func TestSubmitAttemptTimeTaken(t *testing.T) {
	db := setupQuizTestDB(t)
	userID := createTestUser(t, db, "learner")
	quiz := seedQuizFixture(t, db, userID)
	ctx := context.Background()

	raw := NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewLearningPathRepository(db),
		repository.NewActivityRepository(db),
		newTestGamificationService(db),
	)
	svc := raw.(*quizService)

	started, err := svc.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return started.Attempt.StartedAt.Add(12 * time.Minute) }

	answers := map[string]string{quiz.Questions[0].ID.String(): "go"}
	result, err := svc.SubmitAttempt(ctx, userID, started.Attempt.ID, SubmitAttemptInput{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 12, result.TimeTakenMinutes)
}
