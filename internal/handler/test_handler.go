package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/handler/dto"
	"github.com/yourusername/edutest-api/internal/service"
)

// TestUseCase: операции создания и просмотра тестов
type TestUseCase interface {
	CreateTest(ctx context.Context, actor service.Actor, courseID uint, input service.TestInput) (*entity.Test, error)
	UpdateTest(ctx context.Context, actor service.Actor, testID uint, input service.TestInput) (*entity.Test, error)
	GetTest(ctx context.Context, actor service.Actor, testID uint) (*entity.Test, bool, error)
	RemoveQuestionOption(ctx context.Context, actor service.Actor, testID, questionID uint, index int) (*entity.Test, error)
}

// AttemptUseCase: операции просмотра и выгрузки результатов
type AttemptUseCase interface {
	ListMine(ctx context.Context, actor service.Actor) ([]entity.Attempt, error)
	GetAttempt(ctx context.Context, actor service.Actor, attemptID uint) (*entity.Attempt, error)
	ListForTest(ctx context.Context, actor service.Actor, testID uint) ([]entity.Attempt, error)
	ExportXLSX(ctx context.Context, actor service.Actor, testID uint, w io.Writer) (*entity.Test, error)
	StudentStats(ctx context.Context, actor service.Actor) (*service.StudentStats, error)
}

// TestHandler обрабатывает запросы, связанные с тестами
type TestHandler struct {
	testService    TestUseCase
	attemptService AttemptUseCase
}

// NewTestHandler создает новый обработчик тестов
func NewTestHandler(testService TestUseCase, attemptService AttemptUseCase) *TestHandler {
	return &TestHandler{testService: testService, attemptService: attemptService}
}

// QuestionRequest: вопрос в составе теста
type QuestionRequest struct {
	Text          string          `json:"question_text" binding:"required,notblank,max=2000"`
	Type          string          `json:"type" binding:"omitempty,oneof=single_choice multiple_choice"`
	Options       []string        `json:"options" binding:"required,option_list"`
	CorrectAnswer entity.Response `json:"correct_answer"`
	Points        int             `json:"points" binding:"omitempty,min=1"`
}

// TestRequest представляет запрос на создание или обновление теста
type TestRequest struct {
	Title       string            `json:"title" binding:"required,notblank,max=200"`
	Description string            `json:"description" binding:"omitempty,max=1000"`
	TimeLimit   int               `json:"time_limit" binding:"omitempty,min=1,max=600"`
	Questions   []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

func (r TestRequest) toInput() service.TestInput {
	input := service.TestInput{
		Title:       r.Title,
		Description: r.Description,
		TimeLimit:   r.TimeLimit,
		Questions:   make([]service.QuestionInput, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		input.Questions = append(input.Questions, service.QuestionInput{
			Text:          q.Text,
			Type:          q.Type,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}
	return input
}

// CreateTest создает тест в курсе
func (h *TestHandler) CreateTest(c *gin.Context) {
	courseID := c.MustGet("courseID").(uint)

	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	test, err := h.testService.CreateTest(c.Request.Context(), actorFromContext(c), courseID, req.toInput())
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTestResponse(test, true, true))
}

// GetTest возвращает тест. Ключи ответов видит только преподаватель курса.
func (h *TestHandler) GetTest(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	test, canManage, err := h.testService.GetTest(c.Request.Context(), actorFromContext(c), testID)
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}
	// Студент получает вопросы только через сессию прохождения
	c.JSON(http.StatusOK, dto.NewTestResponse(test, canManage, canManage))
}

// UpdateTest обновляет тест и заменяет его вопросы
func (h *TestHandler) UpdateTest(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	test, err := h.testService.UpdateTest(c.Request.Context(), actorFromContext(c), testID, req.toInput())
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTestResponse(test, true, true))
}

// RemoveOption удаляет вариант ответа у вопроса теста
func (h *TestHandler) RemoveOption(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	questionID := c.MustGet("questionID").(uint)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}

	test, err := h.testService.RemoveQuestionOption(c.Request.Context(), actorFromContext(c), testID, questionID, index)
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTestResponse(test, true, true))
}

// ListAttempts возвращает результаты теста для преподавателя
func (h *TestHandler) ListAttempts(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	attempts, err := h.attemptService.ListForTest(c.Request.Context(), actorFromContext(c), testID)
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptListResponse(attempts))
}

// ExportAttempts выгружает результаты теста в Excel
func (h *TestHandler) ExportAttempts(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	// Пишем в буфер, чтобы ошибка не оборвала уже начатый ответ
	var buf bytes.Buffer
	test, err := h.attemptService.ExportXLSX(c.Request.Context(), actorFromContext(c), testID, &buf)
	if err != nil {
		handleServiceError(c, "TestHandler", err)
		return
	}

	filename := fmt.Sprintf("test_%d_results_%s.xlsx", test.ID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
