package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"skillpath.app/backend/internal/agent"
	"skillpath.app/backend/internal/config"
	"skillpath.app/backend/internal/handler"
	"skillpath.app/backend/internal/middleware"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/internal/service"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	cron        *cron.Cron
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, generator agent.Generator) *Server {
	// Initialize Meilisearch
	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	pathRepo := repository.NewLearningPathRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	authSvc := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authSvc)

	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	gamificationSvc := service.NewGamificationService(gamificationRepo, activityRepo, quizRepo, noteRepo, leaderboardRepo, notificationSvc)
	leaderboardSvc := service.NewLeaderboardService(leaderboardRepo)
	gamificationHandler := handler.NewGamificationHandler(gamificationSvc, leaderboardSvc)

	activitySvc := service.NewActivityService(activityRepo)
	activityHandler := handler.NewActivityHandler(activitySvc)

	pathSvc := service.NewLearningPathService(pathRepo, resourceRepo, activityRepo, gamificationSvc, searchSvc)
	pathHandler := handler.NewLearningPathHandler(pathSvc)

	resourceSvc := service.NewResourceService(resourceRepo, pathRepo, activityRepo, gamificationSvc, searchSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)

	quizSvc := service.NewQuizService(quizRepo, pathRepo, activityRepo, gamificationSvc)
	quizHandler := handler.NewQuizHandler(quizSvc)

	noteSvc := service.NewNoteService(noteRepo, activityRepo, gamificationSvc, searchSvc)
	noteHandler := handler.NewNoteHandler(noteSvc)

	searchHandler := handler.NewSearchHandler(searchSvc)

	aiSvc := service.NewAIService(generator)
	aiHandler := handler.NewAIHandler(aiSvc, authSvc, gamificationSvc, pathSvc, quizSvc, redisClient, cfg.RateLimitAI)

	// Nightly leaderboard rebuild
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.LeaderboardRebuildSpec, func() {
		log.Println("Rebuilding leaderboards...")
		if err := leaderboardSvc.Rebuild(context.Background(), time.Now()); err != nil {
			log.Printf("leaderboard rebuild failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid leaderboard rebuild schedule %q: %v", cfg.LeaderboardRebuildSpec, err)
	}
	scheduler.Start()

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Profile routes
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Learning path routes
		protected.GET("/learning-paths", pathHandler.List)
		protected.POST("/learning-paths", pathHandler.Create)
		protected.GET("/learning-paths/:id", pathHandler.Get)
		protected.PUT("/learning-paths/:id", pathHandler.Update)
		protected.DELETE("/learning-paths/:id", pathHandler.Delete)
		protected.POST("/learning-paths/:id/topics", pathHandler.AddTopic)
		protected.POST("/learning-paths/:id/topics/:topicId/complete", pathHandler.CompleteTopic)

		// Resource routes
		protected.POST("/resources", resourceHandler.Create)
		protected.GET("/resources/:id", resourceHandler.Get)
		protected.PUT("/resources/:id", resourceHandler.Update)
		protected.DELETE("/resources/:id", resourceHandler.Delete)
		protected.POST("/resources/:id/viewed", resourceHandler.MarkViewed)
		protected.GET("/resources/topic/:topicId", resourceHandler.ByTopic)

		// Quiz routes
		protected.POST("/quizzes", quizHandler.Create)
		protected.GET("/quizzes/:id", quizHandler.Get)
		protected.DELETE("/quizzes/:id", quizHandler.Delete)
		protected.GET("/quizzes/topic/:topicId", quizHandler.ByTopic)
		protected.POST("/quizzes/:id/questions", quizHandler.AddQuestion)
		protected.POST("/quizzes/:id/attempts", quizHandler.StartAttempt)
		protected.POST("/quizzes/attempts/:attemptId/submit", quizHandler.SubmitAttempt)
		protected.GET("/quizzes/attempts", quizHandler.ListAttempts)

		// Note routes
		protected.GET("/notes", noteHandler.List)
		protected.POST("/notes", noteHandler.Create)
		protected.GET("/notes/:id", noteHandler.Get)
		protected.PUT("/notes/:id", noteHandler.Update)
		protected.DELETE("/notes/:id", noteHandler.Delete)

		// Activity routes
		protected.POST("/activities", activityHandler.Log)
		protected.GET("/activities", activityHandler.List)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)

		// Search routes
		protected.GET("/search", searchHandler.Search)
		protected.GET("/search/suggestions", searchHandler.Suggestions)

		// AI routes
		protected.POST("/ai/generate-path", aiHandler.GeneratePath)
		protected.POST("/ai/generate-questions", aiHandler.GenerateQuestions)
		protected.POST("/ai/summarize", aiHandler.Summarize)
		protected.POST("/ai/ask", aiHandler.Ask)
		protected.GET("/ai/recommendations", aiHandler.Recommendations)
		protected.POST("/ai/generate-article", aiHandler.GenerateArticle)

		// Gamification routes
		protected.GET("/gamification/profile", gamificationHandler.Profile)
		protected.GET("/gamification/achievements", gamificationHandler.Achievements)
		protected.GET("/gamification/achievements/recent", gamificationHandler.RecentAchievements)
		protected.GET("/gamification/badges", gamificationHandler.Badges)
		protected.GET("/gamification/leaderboard/:type/:category", gamificationHandler.Leaderboard)
		protected.GET("/gamification/level-progress", gamificationHandler.LevelProgress)
		protected.POST("/gamification/leaderboard/rebuild", gamificationHandler.RebuildLeaderboards)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		cron:        scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
