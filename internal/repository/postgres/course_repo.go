package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// CourseRepo реализует repository.CourseRepository
type CourseRepo struct {
	db *gorm.DB
}

// NewCourseRepo создает новый репозиторий курсов
func NewCourseRepo(db *gorm.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

// Create создает курс. Совпадение кода регистрации возвращает apperrors.ErrConflict
func (r *CourseRepo) Create(ctx context.Context, course *entity.Course) error {
	if err := r.db.WithContext(ctx).Omit("Tests").Create(course).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: registration code %s is taken", apperrors.ErrConflict, course.RegistrationCode)
		}
		return err
	}
	return nil
}

// GetByID возвращает курс по ID
func (r *CourseRepo) GetByID(ctx context.Context, id uint) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

// GetByRegistrationCode ищет курс по коду регистрации
func (r *CourseRepo) GetByRegistrationCode(ctx context.Context, code string) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).Where("registration_code = ?", code).First(&course).Error; err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

// ListByTeacher возвращает курсы преподавателя
func (r *CourseRepo) ListByTeacher(ctx context.Context, teacherID uint) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).Where("teacher_id = ?", teacherID).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// ListByStudent возвращает курсы, на которые записан студент
func (r *CourseRepo) ListByStudent(ctx context.Context, studentID uint) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Joins("JOIN course_enrollments ce ON ce.course_id = courses.id").
		Where("ce.student_id = ?", studentID).
		Order("ce.enrolled_at DESC").
		Find(&courses).Error
	return courses, err
}

// List возвращает все курсы
func (r *CourseRepo) List(ctx context.Context) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// EnrollmentRepo реализует repository.EnrollmentRepository
type EnrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo создает новый репозиторий записей на курсы
func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo {
	return &EnrollmentRepo{db: db}
}

// Create записывает студента на курс
func (r *EnrollmentRepo) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	if err := r.db.WithContext(ctx).Omit("Course", "Student").Create(enrollment).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: student #%d already enrolled in course #%d",
				apperrors.ErrConflict, enrollment.StudentID, enrollment.CourseID)
		}
		return err
	}
	return nil
}

// IsEnrolled проверяет запись студента на курс
func (r *EnrollmentRepo) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStudents возвращает студентов курса
func (r *EnrollmentRepo) ListStudents(ctx context.Context, courseID uint) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Joins("JOIN course_enrollments ce ON ce.student_id = profiles.id").
		Where("ce.course_id = ?", courseID).
		Order("profiles.full_name ASC").
		Find(&users).Error
	return users, err
}

// CountByStudent возвращает количество курсов студента
func (r *EnrollmentRepo) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Enrollment{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}
