package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"skillpath.app/backend/internal/service"
	"skillpath.app/backend/pkg/response"
	"skillpath.app/backend/pkg/validator"
)

type AIHandler struct {
	ai           service.AIService
	auth         service.AuthService
	gamification service.GamificationService
	paths        service.LearningPathService
	quizzes      service.QuizService
	redisClient  *redis.Client
	rateLimit    time.Duration
}

func NewAIHandler(
	ai service.AIService,
	auth service.AuthService,
	gamification service.GamificationService,
	paths service.LearningPathService,
	quizzes service.QuizService,
	redisClient *redis.Client,
	rateLimit time.Duration,
) *AIHandler {
	return &AIHandler{
		ai:           ai,
		auth:         auth,
		gamification: gamification,
		paths:        paths,
		quizzes:      quizzes,
		redisClient:  redisClient,
		rateLimit:    rateLimit,
	}
}

// checkRateLimit enforces one AI call per user per window. Returns false and
// writes the 429 response when the user is still locked.
func (h *AIHandler) checkRateLimit(c *gin.Context, action string) bool {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return false
	}

	allowed, err := service.CheckAndSetRateLimit(c.Request.Context(), h.redisClient, userID, action, h.rateLimit)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !allowed {
		ttl, _ := service.GetRateLimitTTL(c.Request.Context(), h.redisClient, userID, action)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       fmt.Sprintf("please wait before making another %s request", action),
			"retry_after": int(ttl.Seconds()),
		})
		return false
	}
	return true
}

type generatePathRequest struct {
	Subject    string   `json:"subject" binding:"required,max=100"`
	Difficulty string   `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Goals      []string `json:"goals"`
	Save       bool     `json:"save"`
}

// GeneratePath produces an AI learning path; with save=true it is persisted
// as a real path with topics and resources.
func (h *AIHandler) GeneratePath(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req generatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if !h.checkRateLimit(c, "generate_path") {
		return
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}

	generated, err := h.ai.GenerateLearningPath(c.Request.Context(), req.Subject, difficulty, req.Goals)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !req.Save {
		c.JSON(http.StatusOK, gin.H{"generated": generated})
		return
	}

	path, err := h.paths.ImportGenerated(c.Request.Context(), userID, generated, req.Subject, difficulty)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "learning path generated", "learning_path": path})
}

type generateQuestionsRequest struct {
	QuizID     string `json:"quiz_id" binding:"required,uuid"`
	Topic      string `json:"topic" binding:"required,max=200"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Count      int    `json:"count" binding:"omitempty,min=1,max=20"`
}

func (h *AIHandler) GenerateQuestions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req generateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if !h.checkRateLimit(c, "generate_questions") {
		return
	}

	generated, err := h.ai.GenerateQuizQuestions(c.Request.Context(), req.Topic, req.Difficulty, req.Count)
	if err != nil {
		response.Error(c, err)
		return
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz id"})
		return
	}

	questions, err := h.quizzes.AddGeneratedQuestions(c.Request.Context(), userID, quizID, generated)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "questions generated", "questions": questions})
}

type summarizeRequest struct {
	Content   string `json:"content" binding:"required"`
	MaxLength int    `json:"max_length" binding:"omitempty,min=50,max=2000"`
}

func (h *AIHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if !h.checkRateLimit(c, "summarize") {
		return
	}

	summary, err := h.ai.SummarizeContent(c.Request.Context(), req.Content, req.MaxLength)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	Context  string `json:"context"`
}

func (h *AIHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if !h.checkRateLimit(c, "ask") {
		return
	}

	answer, err := h.ai.AnswerQuestion(c.Request.Context(), req.Question, req.Context)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": req.Question, "answer": answer})
}

// Recommendations builds a progress snapshot from the user's gamification
// stats and asks the model for personalized study advice.
func (h *AIHandler) Recommendations(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !h.checkRateLimit(c, "recommendations") {
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.gamification.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	learningStyle := "mixed"
	if user.LearningStyle != nil {
		learningStyle = *user.LearningStyle
	}

	progress := map[string]any{
		"current_level":   stats.Level.CurrentLevel,
		"total_points":    stats.Level.TotalPoints,
		"learning_points": stats.Level.LearningPoints,
		"quiz_points":     stats.Level.QuizPoints,
		"current_streak":  stats.Level.CurrentLearningStreak,
		"longest_streak":  stats.Level.LongestLearningStreak,
		"achievements":    len(stats.Achievements),
		"daily_goal":      user.DailyGoalMinutes,
		"preferred_level": user.PreferredDifficulty,
	}

	recommendations, err := h.ai.GenerateStudyRecommendations(c.Request.Context(), progress, learningStyle)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

type articleRequest struct {
	Topic  string `json:"topic" binding:"required,max=200"`
	Length int    `json:"length" binding:"omitempty,min=100,max=3000"`
}

func (h *AIHandler) GenerateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if !h.checkRateLimit(c, "article") {
		return
	}

	article, err := h.ai.GenerateArticle(c.Request.Context(), req.Topic, req.Length)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topic": req.Topic, "article": article})
}
