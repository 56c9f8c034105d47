package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

// quizPointsBase is the quiz-category award for a perfect score; partial
// scores earn a proportional share.
const quizPointsBase = 50

type CreateQuizInput struct {
	TopicID          uuid.UUID `json:"topic_id" binding:"required"`
	Title            string    `json:"title" binding:"required,max=200"`
	Description      *string   `json:"description"`
	DifficultyLevel  string    `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
	TimeLimitMinutes int       `json:"time_limit_minutes" binding:"omitempty,min=1"`
}

type AddQuestionInput struct {
	QuestionText  string   `json:"question_text" binding:"required"`
	QuestionType  string   `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer"`
	CorrectAnswer string   `json:"correct_answer" binding:"required"`
	Options       []string `json:"options"`
	Explanation   *string  `json:"explanation"`
	Points        int      `json:"points" binding:"omitempty,min=1"`
	OrderIndex    int      `json:"order_index"`
}

type SubmitAttemptInput struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

type QuestionResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	IsCorrect     bool      `json:"is_correct"`
	PointsEarned  int       `json:"points_earned"`
	Explanation   *string   `json:"explanation,omitempty"`
}

type AttemptResult struct {
	AttemptID        uuid.UUID        `json:"attempt_id"`
	Score            float64          `json:"score"`
	MaxScore         float64          `json:"max_score"`
	Percentage       float64          `json:"percentage"`
	TimeTakenMinutes int              `json:"time_taken_minutes"`
	PointsAwarded    int              `json:"points_awarded"`
	NewAchievements  []model.Achievement `json:"new_achievements"`
	NewBadges        []model.Badge    `json:"new_badges"`
	DetailedResults  []QuestionResult `json:"detailed_results"`
}

// StartedAttempt is the attempt plus its questions with answers stripped.
type StartedAttempt struct {
	Attempt   *model.QuizAttempt `json:"attempt"`
	Questions []AttemptQuestion  `json:"questions"`
}

type AttemptQuestion struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	QuestionType string    `json:"question_type"`
	Options      []string  `json:"options,omitempty"`
	Points       int       `json:"points"`
}

type QuizService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateQuizInput) (*model.Quiz, error)
	GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*model.Quiz, error)
	GetByTopic(ctx context.Context, userID, topicID uuid.UUID) ([]model.Quiz, error)
	Delete(ctx context.Context, userID, quizID uuid.UUID) error
	AddQuestion(ctx context.Context, userID, quizID uuid.UUID, input AddQuestionInput) (*model.Question, error)
	AddGeneratedQuestions(ctx context.Context, userID, quizID uuid.UUID, generated []GeneratedQuestion) ([]model.Question, error)
	StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*StartedAttempt, error)
	SubmitAttempt(ctx context.Context, userID, attemptID uuid.UUID, input SubmitAttemptInput) (*AttemptResult, error)
	GetAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]model.QuizAttempt, error)
}

type quizService struct {
	repo         repository.QuizRepository
	pathRepo     repository.LearningPathRepository
	activityRepo repository.ActivityRepository
	gamification GamificationService

	now func() time.Time
}

func NewQuizService(
	repo repository.QuizRepository,
	pathRepo repository.LearningPathRepository,
	activityRepo repository.ActivityRepository,
	gamification GamificationService,
) QuizService {
	return &quizService{
		repo:         repo,
		pathRepo:     pathRepo,
		activityRepo: activityRepo,
		gamification: gamification,
		now:          time.Now,
	}
}

func (s *quizService) ownsTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	topic, err := s.pathRepo.FindTopicByID(ctx, topicID)
	if err != nil {
		return err
	}
	path, err := s.pathRepo.FindByID(ctx, topic.LearningPathID)
	if err != nil {
		return err
	}
	if path.UserID != userID {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *quizService) Create(ctx context.Context, userID uuid.UUID, input CreateQuizInput) (*model.Quiz, error) {
	if err := s.ownsTopic(ctx, userID, input.TopicID); err != nil {
		return nil, err
	}

	difficulty := input.DifficultyLevel
	if difficulty == "" {
		difficulty = "intermediate"
	}
	timeLimit := input.TimeLimitMinutes
	if timeLimit == 0 {
		timeLimit = 15
	}

	quiz := &model.Quiz{
		TopicID:          input.TopicID,
		Title:            input.Title,
		Description:      input.Description,
		DifficultyLevel:  difficulty,
		TimeLimitMinutes: timeLimit,
		IsActive:         true,
	}

	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, err
	}

	return quiz, nil
}

func (s *quizService) GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.repo.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.ownsTopic(ctx, userID, quiz.TopicID); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) GetByTopic(ctx context.Context, userID, topicID uuid.UUID) ([]model.Quiz, error) {
	if err := s.ownsTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}
	return s.repo.FindByTopic(ctx, topicID)
}

func (s *quizService) Delete(ctx context.Context, userID, quizID uuid.UUID) error {
	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, quiz.ID)
}

func (s *quizService) AddQuestion(ctx context.Context, userID, quizID uuid.UUID, input AddQuestionInput) (*model.Question, error) {
	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	if input.QuestionType == "multiple_choice" && len(input.Options) < 2 {
		return nil, fmt.Errorf("multiple choice questions need at least two options: %w", apperror.ErrInvalidInput)
	}

	points := input.Points
	if points == 0 {
		points = 1
	}

	question := &model.Question{
		QuizID:        quiz.ID,
		QuestionText:  input.QuestionText,
		QuestionType:  input.QuestionType,
		CorrectAnswer: input.CorrectAnswer,
		Options:       input.Options,
		Explanation:   input.Explanation,
		Points:        points,
		OrderIndex:    input.OrderIndex,
	}

	if err := s.repo.AddQuestion(ctx, question); err != nil {
		return nil, err
	}

	return question, nil
}

// AddGeneratedQuestions persists AI-generated questions onto an existing quiz.
func (s *quizService) AddGeneratedQuestions(ctx context.Context, userID, quizID uuid.UUID, generated []GeneratedQuestion) ([]model.Question, error) {
	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(generated))
	for i, g := range generated {
		explanation := g.Explanation
		question := model.Question{
			QuizID:        quiz.ID,
			QuestionText:  g.QuestionText,
			QuestionType:  g.QuestionType,
			CorrectAnswer: g.CorrectAnswer,
			Options:       g.Options,
			Explanation:   &explanation,
			Points:        1,
			OrderIndex:    len(quiz.Questions) + i,
		}
		if err := s.repo.AddQuestion(ctx, &question); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	return questions, nil
}

// StartAttempt opens a new attempt and returns the questions with the correct
// answers withheld. Question order and multiple-choice options are shuffled.
func (s *quizService) StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*StartedAttempt, error) {
	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions: %w", apperror.ErrInvalidInput)
	}

	maxScore := 0
	for _, q := range quiz.Questions {
		maxScore += q.Points
	}

	attempt := &model.QuizAttempt{
		UserID:   userID,
		QuizID:   quiz.ID,
		MaxScore: float64(maxScore),
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	questions := make([]AttemptQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		options := q.Options
		if q.QuestionType == "multiple_choice" && len(options) > 0 {
			options = append([]string(nil), q.Options...)
			rand.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })
		}
		questions[i] = AttemptQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      options,
			Points:       q.Points,
		}
	}
	rand.Shuffle(len(questions), func(a, b int) { questions[a], questions[b] = questions[b], questions[a] })

	return &StartedAttempt{Attempt: attempt, Questions: questions}, nil
}

// SubmitAttempt grades the answers, closes the attempt and feeds the result
// into the progression engine: quiz points scaled by the percentage, a streak
// touch, then achievement and badge checks.
func (s *quizService) SubmitAttempt(ctx context.Context, userID, attemptID uuid.UUID, input SubmitAttemptInput) (*AttemptResult, error) {
	attempt, err := s.repo.FindAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	if attempt.CompletedAt != nil {
		return nil, fmt.Errorf("quiz attempt already completed: %w", apperror.ErrConflict)
	}
	if len(input.Answers) == 0 {
		return nil, fmt.Errorf("no answers provided: %w", apperror.ErrInvalidInput)
	}

	quiz, err := s.repo.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	totalPoints := 0
	earnedPoints := 0
	detailed := make([]QuestionResult, 0, len(quiz.Questions))

	for _, question := range quiz.Questions {
		totalPoints += question.Points
		userAnswer := strings.TrimSpace(input.Answers[question.ID.String()])
		isCorrect := gradeAnswer(question, userAnswer)
		if isCorrect {
			earnedPoints += question.Points
		}

		result := QuestionResult{
			QuestionID:    question.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: question.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   question.Explanation,
		}
		if isCorrect {
			result.PointsEarned = question.Points
		}
		detailed = append(detailed, result)
	}

	percentage := 0.0
	if totalPoints > 0 {
		percentage = float64(earnedPoints) / float64(totalPoints) * 100
	}

	now := s.now()
	timeTaken := int(now.Sub(attempt.StartedAt).Minutes())

	attempt.Score = float64(earnedPoints)
	attempt.MaxScore = float64(totalPoints)
	attempt.Percentage = percentage
	attempt.TimeTakenMinutes = &timeTaken
	attempt.Answers = input.Answers
	attempt.CompletedAt = &now

	if err := s.repo.UpdateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: model.ActivityQuizCompleted,
		Details: map[string]string{
			"quiz_id":    quiz.ID.String(),
			"title":      quiz.Title,
			"percentage": fmt.Sprintf("%.1f", percentage),
		},
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	awarded := int(float64(quizPointsBase) * percentage / 100)
	if _, err := s.gamification.AwardPoints(ctx, userID, awarded, model.PointCategoryQuiz); err != nil {
		return nil, err
	}
	if _, err := s.gamification.TouchStreak(ctx, userID, now); err != nil {
		return nil, err
	}
	newAchievements, err := s.gamification.CheckAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	newBadges, err := s.gamification.CheckBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AttemptResult{
		AttemptID:        attempt.ID,
		Score:            attempt.Score,
		MaxScore:         attempt.MaxScore,
		Percentage:       percentage,
		TimeTakenMinutes: timeTaken,
		PointsAwarded:    awarded,
		NewAchievements:  newAchievements,
		NewBadges:        newBadges,
		DetailedResults:  detailed,
	}, nil
}

func (s *quizService) GetAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]model.QuizAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.AttemptsByUser(ctx, userID, limit)
}

// gradeAnswer compares case-insensitively for every question type; short
// answers additionally ignore surrounding whitespace.
func gradeAnswer(question model.Question, userAnswer string) bool {
	if userAnswer == "" {
		return false
	}
	switch question.QuestionType {
	case "multiple_choice", "true_false":
		return strings.EqualFold(userAnswer, question.CorrectAnswer)
	case "short_answer":
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(question.CorrectAnswer))
	default:
		return false
	}
}
