package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/service"
	"skillpath.app/backend/pkg/response"
)

type GamificationHandler struct {
	gamification service.GamificationService
	leaderboard  service.LeaderboardService
}

func NewGamificationHandler(gamification service.GamificationService, leaderboard service.LeaderboardService) *GamificationHandler {
	return &GamificationHandler{
		gamification: gamification,
		leaderboard:  leaderboard,
	}
}

func (h *GamificationHandler) Profile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.gamification.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": stats})
}

func (h *GamificationHandler) Achievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	achievements, err := h.gamification.AchievementOverview(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

func (h *GamificationHandler) Badges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	badges, err := h.gamification.BadgeOverview(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	lbType := model.LeaderboardType(c.Param("type"))
	category := model.LeaderboardCategory(c.Param("category"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	now := time.Now()
	entries, err := h.leaderboard.GetLeaderboard(c.Request.Context(), lbType, category, now, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	position, err := h.leaderboard.UserPosition(c.Request.Context(), userID, lbType, category, now)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":      entries,
		"user_position":    position,
		"leaderboard_type": lbType,
		"category":         category,
		"total_entries":    len(entries),
	})
}

func (h *GamificationHandler) LevelProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	level, err := h.gamification.GetUserLevel(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	currentLevelPoints := level.CurrentLevel * level.CurrentLevel * 100
	nextLevelPoints := (level.CurrentLevel + 1) * (level.CurrentLevel + 1) * 100
	progressInLevel := level.TotalPoints - currentLevelPoints
	pointsNeeded := nextLevelPoints - currentLevelPoints

	progressPercentage := 0.0
	if pointsNeeded > 0 {
		progressPercentage = float64(progressInLevel) / float64(pointsNeeded) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"level_info": level,
		"progress": gin.H{
			"current_level_points":    currentLevelPoints,
			"next_level_points":       nextLevelPoints,
			"progress_in_level":       progressInLevel,
			"points_needed_for_level": pointsNeeded,
			"progress_percentage":     progressPercentage,
		},
	})
}

func (h *GamificationHandler) RecentAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	recent, err := h.gamification.RecentAchievements(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recent_achievements": recent})
}

// RebuildLeaderboards recomputes all nine leaderboards immediately instead of
// waiting for the nightly job.
func (h *GamificationHandler) RebuildLeaderboards(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.leaderboard.Rebuild(c.Request.Context(), time.Now()); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "leaderboards rebuilt"})
}
