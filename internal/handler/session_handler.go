package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/handler/dto"
	"github.com/yourusername/edutest-api/internal/service/session"
)

// SessionUseCase: управление сессиями прохождения тестов
type SessionUseCase interface {
	StartSession(ctx context.Context, studentID, testID uint) (*session.Session, bool, error)
	Get(sessionID string, studentID uint) (*session.Session, error)
	Submit(ctx context.Context, sessionID string, studentID uint) (*entity.Attempt, error)
	Abandon(sessionID string, studentID uint) error
}

// Действия навигации по вопросам
const (
	navigateNext     = "next"
	navigatePrevious = "previous"
	navigateGoTo     = "goto"
)

// SessionHandler обрабатывает запросы прохождения теста студентом
type SessionHandler struct {
	sessions SessionUseCase
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(sessions SessionUseCase) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// AnswerRequest: выбор варианта ответа.
// Для multiple_choice Selected=false снимает отметку; по умолчанию вариант отмечается.
type AnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Option     string `json:"option" binding:"required"`
	Selected   *bool  `json:"selected"`
}

// NavigateRequest: переход между вопросами
type NavigateRequest struct {
	Action string `json:"action" binding:"required,oneof=next previous goto"`
	Index  int    `json:"index" binding:"omitempty,min=0"`
}

// StartSession начинает прохождение теста или возвращает идущую сессию
func (h *SessionHandler) StartSession(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	actor := actorFromContext(c)

	s, resumed, err := h.sessions.StartSession(c.Request.Context(), actor.ID, testID)
	if err != nil {
		handleServiceError(c, "SessionHandler", err)
		return
	}

	resp := dto.NewSessionResponse(s.Snapshot())
	resp.Resumed = resumed
	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// GetSession возвращает текущее состояние сессии
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(s.Snapshot()))
}

// Answer сохраняет выбор варианта ответа
func (h *SessionHandler) Answer(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	if q := findQuestion(s.Questions(), req.QuestionID); q != nil && q.IsMultiple() {
		selected := req.Selected == nil || *req.Selected
		err = s.ToggleMultiple(req.QuestionID, req.Option, selected)
	} else {
		err = s.SetSingle(req.QuestionID, req.Option)
	}
	if err != nil {
		handleServiceError(c, "SessionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(s.Snapshot()))
}

// Navigate переходит к следующему, предыдущему или выбранному вопросу
func (h *SessionHandler) Navigate(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch req.Action {
	case navigateNext:
		err = s.Next()
	case navigatePrevious:
		err = s.Previous()
	case navigateGoTo:
		err = s.GoTo(req.Index)
	}
	if err != nil {
		handleServiceError(c, "SessionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(s.Snapshot()))
}

// Submit отправляет тест и возвращает сохраненную попытку
func (h *SessionHandler) Submit(c *gin.Context) {
	actor := actorFromContext(c)

	attempt, err := h.sessions.Submit(c.Request.Context(), c.Param("sid"), actor.ID)
	if err != nil {
		handleServiceError(c, "SessionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// Abandon прерывает сессию без сохранения результата
func (h *SessionHandler) Abandon(c *gin.Context) {
	actor := actorFromContext(c)

	if err := h.sessions.Abandon(c.Param("sid"), actor.ID); err != nil {
		handleServiceError(c, "SessionHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	actor := actorFromContext(c)
	s, err := h.sessions.Get(c.Param("sid"), actor.ID)
	if err != nil {
		handleServiceError(c, "SessionHandler", err)
		return nil, false
	}
	return s, true
}

func findQuestion(questions []entity.Question, questionID uint) *entity.Question {
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i]
		}
	}
	return nil
}
