package handlers

import (
	"context"
	"errors"
	"net/http"

	"certquiz-service/internal/repository"
	"certquiz-service/internal/service"
	"certquiz-service/internal/upstream"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// ResolveSession starts or resumes a quiz session. The response comes back
// immediately; question generation, if needed, continues in the background
// and the client polls this endpoint to observe progress.
func (h *SessionHandler) ResolveSession(c *gin.Context) {
	var req struct {
		Subject   string `json:"subject" binding:"required"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.Resolve(context.Background(), service.ResolveInput{
		Phone:     c.GetHeader("X-User-Phone"),
		Email:     req.Email,
		Name:      req.Name,
		Subject:   req.Subject,
		SessionID: req.SessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case upstream.IsFatal(err):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Certified API unavailable", "details": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSession returns basic session information.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Service.GetSession(context.Background(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSessionQuestions returns the session's persisted questions in order.
func (h *SessionHandler) GetSessionQuestions(c *gin.Context) {
	questions, err := h.Service.GetSessionQuestions(context.Background(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "count": len(questions)})
}
