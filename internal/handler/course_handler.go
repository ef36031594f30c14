package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/handler/dto"
	"github.com/yourusername/edutest-api/internal/service"
)

// CourseUseCase: операции с курсами и записью студентов
type CourseUseCase interface {
	CreateCourse(ctx context.Context, actor service.Actor, title, description string) (*entity.Course, error)
	ListCourses(ctx context.Context, actor service.Actor) ([]entity.Course, error)
	EnrollByCode(ctx context.Context, actor service.Actor, code string) (*entity.Course, error)
	EnrollByEmail(ctx context.Context, actor service.Actor, courseID uint, email string) (*entity.User, error)
	ListStudents(ctx context.Context, actor service.Actor, courseID uint) ([]entity.User, error)
	ListTests(ctx context.Context, actor service.Actor, courseID uint) ([]entity.Test, error)
}

// CourseHandler обрабатывает запросы, связанные с курсами
type CourseHandler struct {
	courseService CourseUseCase
}

// NewCourseHandler создает новый обработчик курсов
func NewCourseHandler(courseService CourseUseCase) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CreateCourseRequest представляет запрос на создание курса
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// EnrollRequest: запись на курс по коду
type EnrollRequest struct {
	Code string `json:"code" binding:"required,regcode"`
}

// EnrollStudentRequest: запись студента преподавателем по email
type EnrollStudentRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateCourse создает курс преподавателя
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), actorFromContext(c), req.Title, req.Description)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCourseResponse(course, true))
}

// ListCourses возвращает курсы текущего пользователя
func (h *CourseHandler) ListCourses(c *gin.Context) {
	actor := actorFromContext(c)
	courses, err := h.courseService.ListCourses(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCourseListResponse(courses, actor.ID, actor.IsAdmin()))
}

// Enroll записывает студента на курс по коду регистрации
func (h *CourseHandler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseService.EnrollByCode(c.Request.Context(), actorFromContext(c), req.Code)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCourseResponse(course, false))
}

// EnrollStudent записывает студента на курс по email
func (h *CourseHandler) EnrollStudent(c *gin.Context) {
	courseID := c.MustGet("courseID").(uint)

	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.courseService.EnrollByEmail(c.Request.Context(), actorFromContext(c), courseID, req.Email)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(student))
}

// ListStudents возвращает студентов курса
func (h *CourseHandler) ListStudents(c *gin.Context) {
	courseID := c.MustGet("courseID").(uint)

	students, err := h.courseService.ListStudents(c.Request.Context(), actorFromContext(c), courseID)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserListResponse(students))
}

// ListTests возвращает тесты курса
func (h *CourseHandler) ListTests(c *gin.Context) {
	courseID := c.MustGet("courseID").(uint)

	tests, err := h.courseService.ListTests(c.Request.Context(), actorFromContext(c), courseID)
	if err != nil {
		handleServiceError(c, "CourseHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTestListResponse(tests))
}
