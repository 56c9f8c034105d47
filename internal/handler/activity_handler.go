package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"skillpath.app/backend/internal/service"
	"skillpath.app/backend/pkg/response"
	"skillpath.app/backend/pkg/validator"
)

type ActivityHandler struct {
	service service.ActivityService
}

func NewActivityHandler(service service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) Log(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.LogActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	activity, err := h.service.Log(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "activity logged successfully", "activity": activity})
}

func (h *ActivityHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	activities, err := h.service.GetActivities(c.Request.Context(), userID, c.Query("activity_type"), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}
