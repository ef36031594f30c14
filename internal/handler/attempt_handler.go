package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/handler/dto"
)

// AttemptHandler обрабатывает запросы к результатам студента
type AttemptHandler struct {
	attemptService AttemptUseCase
}

// NewAttemptHandler создает новый обработчик результатов
func NewAttemptHandler(attemptService AttemptUseCase) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// ListMine возвращает попытки текущего студента
func (h *AttemptHandler) ListMine(c *gin.Context) {
	attempts, err := h.attemptService.ListMine(c.Request.Context(), actorFromContext(c))
	if err != nil {
		handleServiceError(c, "AttemptHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptListResponse(attempts))
}

// GetAttempt возвращает одну попытку
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), actorFromContext(c), attemptID)
	if err != nil {
		handleServiceError(c, "AttemptHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// Stats возвращает сводку для главной страницы студента
func (h *AttemptHandler) Stats(c *gin.Context) {
	stats, err := h.attemptService.StudentStats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		handleServiceError(c, "AttemptHandler", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
