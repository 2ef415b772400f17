package handlers

import (
	"context"
	"errors"
	"net/http"

	"certquiz-service/internal/repository"
	"certquiz-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	Service *service.AnswerService
}

func NewAnswerHandler(s *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{Service: s}
}

// SaveAnswer records an answer and returns the next question or completion.
func (h *AnswerHandler) SaveAnswer(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		Answer     string `json:"answer" binding:"required,len=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SaveAnswer(context.Background(), sessionID, req.QuestionID, req.Answer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found in session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
