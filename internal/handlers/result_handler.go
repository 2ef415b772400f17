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

type ResultHandler struct {
	Service *service.ResultService
}

func NewResultHandler(s *service.ResultService) *ResultHandler {
	return &ResultHandler{Service: s}
}

// SubmitSession scores a finished quiz and forwards the result to the
// certified API for certification.
func (h *ResultHandler) SubmitSession(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		CompletionTime int `json:"completion_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Service.Submit(context.Background(), sessionID, req.CompletionTime)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case upstream.IsFatal(err):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Certified API unavailable", "details": err.Error()})
		default:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
