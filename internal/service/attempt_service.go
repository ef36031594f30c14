package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// attemptsSheetName: лист с результатами в выгрузке
const attemptsSheetName = "Результаты"

// StudentStats: сводка для главной страницы студента
type StudentStats struct {
	EnrolledCourses int64 `json:"enrolled_courses"`
	AvailableTests  int64 `json:"available_tests"`
	CompletedTests  int64 `json:"completed_tests"`
}

// AttemptService отвечает за просмотр и выгрузку результатов
type AttemptService struct {
	attemptRepo    repository.AttemptRepository
	testRepo       repository.TestRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
}

// NewAttemptService создает сервис результатов
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
) *AttemptService {
	return &AttemptService{
		attemptRepo:    attemptRepo,
		testRepo:       testRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// ListMine возвращает попытки текущего студента
func (s *AttemptService) ListMine(ctx context.Context, actor Actor) ([]entity.Attempt, error) {
	return s.attemptRepo.ListByStudent(ctx, actor.ID)
}

// GetAttempt возвращает попытку ее владельцу, преподавателю курса или администратору
func (s *AttemptService) GetAttempt(ctx context.Context, actor Actor, attemptID uint) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID == actor.ID || actor.IsAdmin() {
		return attempt, nil
	}
	if actor.IsTeacher() {
		if _, err := s.manageableTest(ctx, actor, attempt.TestID); err == nil {
			return attempt, nil
		}
	}
	return nil, fmt.Errorf("%w: no access to attempt #%d", apperrors.ErrForbidden, attemptID)
}

// ListForTest возвращает все попытки теста с именами студентов
func (s *AttemptService) ListForTest(ctx context.Context, actor Actor, testID uint) ([]entity.Attempt, error) {
	if _, err := s.manageableTest(ctx, actor, testID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListByTest(ctx, testID)
}

// ExportXLSX пишет результаты теста в формате Excel и возвращает тест для имени файла
func (s *AttemptService) ExportXLSX(ctx context.Context, actor Actor, testID uint, w io.Writer) (*entity.Test, error) {
	test, err := s.manageableTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if err := writeAttemptsXLSX(w, attempts); err != nil {
		return nil, err
	}
	log.Info().Uint("testID", testID).Int("rows", len(attempts)).Msg("[AttemptService] Результаты выгружены в Excel")
	return test, nil
}

// StudentStats считает количество курсов, доступных и пройденных тестов студента
func (s *AttemptService) StudentStats(ctx context.Context, actor Actor) (*StudentStats, error) {
	courses, err := s.enrollmentRepo.CountByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	available, err := s.testRepo.CountAvailableForStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	completed, err := s.attemptRepo.CountByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &StudentStats{
		EnrolledCourses: courses,
		AvailableTests:  available,
		CompletedTests:  completed,
	}, nil
}

func (s *AttemptService) manageableTest(ctx context.Context, actor Actor, testID uint) (*entity.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, test.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}
	return test, nil
}

// writeAttemptsXLSX использует StreamWriter, чтобы не держать большие листы в памяти
func writeAttemptsXLSX(w io.Writer, attempts []entity.Attempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attemptsSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(attemptsSheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := []interface{}{"Студент", "Email", "Правильных", "Всего вопросов", "Баллы", "Макс. баллы", "Процент", "Начало", "Завершение", "Длительность (мин)"}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for i, a := range attempts {
		var name, email string
		if a.Student != nil {
			name = a.Student.FullName
			email = a.Student.Email
		}
		completed := ""
		if a.IsCompleted() {
			completed = a.CompletedAt.Format("2006-01-02 15:04:05")
		}

		row := []interface{}{
			sanitizeForExcel(name),
			sanitizeForExcel(email),
			a.CorrectAnswers,
			a.TotalQuestions,
			a.EarnedPoints,
			a.TotalPoints,
			a.Percentage,
			a.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			fmt.Sprintf("%.1f", a.Duration().Minutes()),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.Write(w)
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
