package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// ============================================================================
// Моки репозиториев для тестов сервисов
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, userID uint, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

// MockCourseRepository реализует repository.CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *entity.Course) error {
	args := m.Called(ctx, course)
	if args.Error(0) == nil {
		course.ID = 100
	}
	return args.Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uint) (*entity.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Course), args.Error(1)
}

func (m *MockCourseRepository) GetByRegistrationCode(ctx context.Context, code string) (*entity.Course, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Course), args.Error(1)
}

func (m *MockCourseRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]entity.Course, error) {
	args := m.Called(ctx, teacherID)
	return args.Get(0).([]entity.Course), args.Error(1)
}

func (m *MockCourseRepository) ListByStudent(ctx context.Context, studentID uint) ([]entity.Course, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]entity.Course), args.Error(1)
}

func (m *MockCourseRepository) List(ctx context.Context) ([]entity.Course, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Course), args.Error(1)
}

// MockEnrollmentRepository реализует repository.EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	args := m.Called(ctx, courseID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEnrollmentRepository) ListStudents(ctx context.Context, courseID uint) ([]entity.User, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockEnrollmentRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTestRepository реализует repository.TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, test *entity.Test) error {
	args := m.Called(ctx, test)
	if args.Error(0) == nil {
		test.ID = 200
	}
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, id uint) (*entity.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepository) Update(ctx context.Context, test *entity.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) ListByCourse(ctx context.Context, courseID uint) ([]entity.Test, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]entity.Test), args.Error(1)
}

func (m *MockTestRepository) CountAvailableForStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttemptRepository реализует repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *entity.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*entity.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByTestAndStudent(ctx context.Context, testID, studentID uint) (*entity.Attempt, error) {
	args := m.Called(ctx, testID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) ListByStudent(ctx context.Context, studentID uint) ([]entity.Attempt, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) ListByTest(ctx context.Context, testID uint) ([]entity.Attempt, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByTestID(ctx context.Context, testID uint) ([]entity.Question, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuestionCache реализует QuestionCache
type MockQuestionCache struct {
	mock.Mock
}

func (m *MockQuestionCache) Invalidate(ctx context.Context, testID uint) {
	m.Called(ctx, testID)
}

// MockTokenInvalidator реализует TokenInvalidator
type MockTokenInvalidator struct {
	mock.Mock
}

func (m *MockTokenInvalidator) InvalidateTokensForUser(userID uint) {
	m.Called(userID)
}

var (
	teacherActor = Actor{ID: 2, Role: entity.RoleTeacher}
	studentActor = Actor{ID: 3, Role: entity.RoleStudent}
	adminActor   = Actor{ID: 1, Role: entity.RoleAdmin}
)

func ownedCourse() *entity.Course {
	return &entity.Course{ID: 5, Title: "Алгебра", TeacherID: teacherActor.ID, RegistrationCode: "ABC123"}
}
