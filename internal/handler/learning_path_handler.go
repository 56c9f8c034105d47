package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/internal/service"
	"skillpath.app/backend/pkg/response"
	"skillpath.app/backend/pkg/validator"
)

type LearningPathHandler struct {
	service service.LearningPathService
}

func NewLearningPathHandler(service service.LearningPathService) *LearningPathHandler {
	return &LearningPathHandler{service: service}
}

func (h *LearningPathHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := repository.LearningPathFilter{
		Subject:         c.Query("subject"),
		DifficultyLevel: c.Query("difficulty"),
		ActiveOnly:      c.Query("is_active") == "true",
	}

	paths, err := h.service.GetPaths(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"learning_paths": paths, "total": len(paths)})
}

func (h *LearningPathHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.CreateLearningPathInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	path, err := h.service.Create(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "learning path created successfully", "learning_path": path})
}

func (h *LearningPathHandler) Get(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid learning path id"})
		return
	}

	path, err := h.service.GetPath(c.Request.Context(), userID, pathID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"learning_path": path})
}

func (h *LearningPathHandler) Update(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid learning path id"})
		return
	}

	var input service.UpdateLearningPathInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	path, err := h.service.Update(c.Request.Context(), userID, pathID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "learning path updated successfully", "learning_path": path})
}

func (h *LearningPathHandler) Delete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid learning path id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, pathID); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "learning path deleted successfully"})
}

func (h *LearningPathHandler) AddTopic(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid learning path id"})
		return
	}

	var input service.CreateTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	topic, err := h.service.AddTopic(c.Request.Context(), userID, pathID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "topic created successfully", "topic": topic})
}

func (h *LearningPathHandler) CompleteTopic(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	topicID, err := uuid.Parse(c.Param("topicId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
		return
	}

	path, err := h.service.CompleteTopic(c.Request.Context(), userID, topicID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "topic completed", "learning_path": path})
}
