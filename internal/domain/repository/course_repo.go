package repository

import (
	"context"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// CourseRepository определяет методы для работы с курсами
type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	GetByID(ctx context.Context, id uint) (*entity.Course, error)
	GetByRegistrationCode(ctx context.Context, code string) (*entity.Course, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]entity.Course, error)
	ListByStudent(ctx context.Context, studentID uint) ([]entity.Course, error)
	List(ctx context.Context) ([]entity.Course, error)
}

// EnrollmentRepository определяет методы для работы с записями на курсы
type EnrollmentRepository interface {
	// Create возвращает apperrors.ErrConflict, если студент уже записан
	Create(ctx context.Context, enrollment *entity.Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
	ListStudents(ctx context.Context, courseID uint) ([]entity.User, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
}
