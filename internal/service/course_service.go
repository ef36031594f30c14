package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// maxCodeAttempts: сколько раз пробовать сгенерировать свободный код регистрации
const maxCodeAttempts = 5

// CourseService управляет курсами и записью студентов
type CourseService struct {
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	userRepo       repository.UserRepository
	testRepo       repository.TestRepository
	newCode        func() string
}

// NewCourseService создает сервис курсов
func NewCourseService(
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
) *CourseService {
	return &CourseService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		testRepo:       testRepo,
		newCode:        entity.NewRegistrationCode,
	}
}

// CreateCourse создает курс преподавателя со случайным кодом регистрации
func (s *CourseService) CreateCourse(ctx context.Context, actor Actor, title, description string) (*entity.Course, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only teachers can create courses", apperrors.ErrForbidden)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: course title is required", apperrors.ErrValidation)
	}

	course := &entity.Course{
		Title:       title,
		Description: strings.TrimSpace(description),
		TeacherID:   actor.ID,
	}

	var err error
	for i := 0; i < maxCodeAttempts; i++ {
		course.ID = 0
		course.RegistrationCode = s.newCode()
		err = s.courseRepo.Create(ctx, course)
		if err == nil {
			log.Info().Uint("courseID", course.ID).Uint("teacherID", actor.ID).Msg("[CourseService] Курс создан")
			return course, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		log.Warn().Str("code", course.RegistrationCode).Msg("[CourseService] Код регистрации занят, генерируем новый")
	}
	return nil, fmt.Errorf("generate registration code: %w", err)
}

// ListCourses возвращает курсы в зависимости от роли: свои для преподавателя,
// доступные для студента и все для администратора
func (s *CourseService) ListCourses(ctx context.Context, actor Actor) ([]entity.Course, error) {
	switch {
	case actor.IsAdmin():
		return s.courseRepo.List(ctx)
	case actor.IsTeacher():
		return s.courseRepo.ListByTeacher(ctx, actor.ID)
	default:
		return s.courseRepo.ListByStudent(ctx, actor.ID)
	}
}

// GetCourse возвращает курс, если пользователь имеет к нему доступ
func (s *CourseService) GetCourse(ctx context.Context, actor Actor, courseID uint) (*entity.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if actor.canManageCourse(course) {
		return course, nil
	}
	if actor.IsStudent() {
		enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, courseID, actor.ID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return course, nil
		}
	}
	return nil, fmt.Errorf("%w: no access to course #%d", apperrors.ErrForbidden, courseID)
}

// EnrollByCode записывает студента на курс по коду регистрации (без учета регистра)
func (s *CourseService) EnrollByCode(ctx context.Context, actor Actor, code string) (*entity.Course, error) {
	if !actor.IsStudent() {
		return nil, fmt.Errorf("%w: only students can enroll", apperrors.ErrForbidden)
	}
	normalized := entity.NormalizeRegistrationCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: registration code is required", apperrors.ErrValidation)
	}

	course, err := s.courseRepo.GetByRegistrationCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid registration code", apperrors.ErrNotFound)
		}
		return nil, err
	}

	if err := s.enrollmentRepo.Create(ctx, &entity.Enrollment{CourseID: course.ID, StudentID: actor.ID}); err != nil {
		return nil, err
	}
	log.Info().Uint("courseID", course.ID).Uint("studentID", actor.ID).Msg("[CourseService] Студент записан на курс по коду")
	return course, nil
}

// EnrollByEmail записывает студента на курс по email (от имени преподавателя курса)
func (s *CourseService) EnrollByEmail(ctx context.Context, actor Actor, courseID uint, email string) (*entity.User, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}

	student, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user with email %s", apperrors.ErrNotFound, email)
		}
		return nil, err
	}
	if student.Role != entity.RoleStudent {
		return nil, fmt.Errorf("%w: user %s is not a student", apperrors.ErrValidation, email)
	}

	if err := s.enrollmentRepo.Create(ctx, &entity.Enrollment{CourseID: courseID, StudentID: student.ID}); err != nil {
		return nil, err
	}
	log.Info().Uint("courseID", courseID).Uint("studentID", student.ID).Msg("[CourseService] Студент добавлен преподавателем")
	return student, nil
}

// ListStudents возвращает студентов курса
func (s *CourseService) ListStudents(ctx context.Context, actor Actor, courseID uint) ([]entity.User, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}
	return s.enrollmentRepo.ListStudents(ctx, courseID)
}

// ListTests возвращает тесты курса
func (s *CourseService) ListTests(ctx context.Context, actor Actor, courseID uint) ([]entity.Test, error) {
	if _, err := s.GetCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.testRepo.ListByCourse(ctx, courseID)
}
