package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/middleware"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
	"github.com/yourusername/edutest-api/internal/service"
)

// actorFromContext возвращает пользователя, установленного RequireAuth
func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   c.GetUint(middleware.ContextUserID),
		Role: c.GetString(middleware.ContextRole),
	}
}

// queryInt читает положительное целое из query-параметра
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// handleServiceError переводит доменные ошибки в HTTP ответ
func handleServiceError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAnswerRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "answer_required"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "submit_in_progress"})
	case errors.Is(err, apperrors.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "session_closed"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSubmitFailed):
		log.Error().Err(err).Msgf("[%s] Не удалось сохранить попытку", component)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to save the attempt, please retry", "error_type": "submit_failed", "retryable": true})
	case errors.Is(err, apperrors.ErrLoadFailed):
		log.Error().Err(err).Msgf("[%s] Не удалось загрузить вопросы", component)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load the test, return to the course and try again", "error_type": "load_failed"})
	default:
		log.Error().Err(err).Msgf("[%s] Внутренняя ошибка сервера", component)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
