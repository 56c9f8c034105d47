package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"skillpath.app/backend/internal/service"
	"skillpath.app/backend/pkg/response"
)

type SearchHandler struct {
	service service.SearchService
}

func NewSearchHandler(service service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Search(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.service.Search(userID, query, c.DefaultQuery("scope", "all"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *SearchHandler) Suggestions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	prefix := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	suggestions, err := h.service.Suggestions(userID, prefix, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
