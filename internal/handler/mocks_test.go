package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/service"
	"github.com/yourusername/edutest-api/internal/service/session"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, in service.RegisterInput) (*entity.User, string, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) GetUserByID(ctx context.Context, userID uint) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

type MockCourseUseCase struct {
	mock.Mock
}

func (m *MockCourseUseCase) CreateCourse(ctx context.Context, actor service.Actor, title, description string) (*entity.Course, error) {
	args := m.Called(ctx, actor, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Course), args.Error(1)
}

func (m *MockCourseUseCase) ListCourses(ctx context.Context, actor service.Actor) ([]entity.Course, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]entity.Course), args.Error(1)
}

func (m *MockCourseUseCase) EnrollByCode(ctx context.Context, actor service.Actor, code string) (*entity.Course, error) {
	args := m.Called(ctx, actor, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Course), args.Error(1)
}

func (m *MockCourseUseCase) EnrollByEmail(ctx context.Context, actor service.Actor, courseID uint, email string) (*entity.User, error) {
	args := m.Called(ctx, actor, courseID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockCourseUseCase) ListStudents(ctx context.Context, actor service.Actor, courseID uint) ([]entity.User, error) {
	args := m.Called(ctx, actor, courseID)
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockCourseUseCase) ListTests(ctx context.Context, actor service.Actor, courseID uint) ([]entity.Test, error) {
	args := m.Called(ctx, actor, courseID)
	return args.Get(0).([]entity.Test), args.Error(1)
}

type MockTestUseCase struct {
	mock.Mock
}

func (m *MockTestUseCase) CreateTest(ctx context.Context, actor service.Actor, courseID uint, input service.TestInput) (*entity.Test, error) {
	args := m.Called(ctx, actor, courseID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestUseCase) UpdateTest(ctx context.Context, actor service.Actor, testID uint, input service.TestInput) (*entity.Test, error) {
	args := m.Called(ctx, actor, testID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestUseCase) GetTest(ctx context.Context, actor service.Actor, testID uint) (*entity.Test, bool, error) {
	args := m.Called(ctx, actor, testID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entity.Test), args.Bool(1), args.Error(2)
}

func (m *MockTestUseCase) RemoveQuestionOption(ctx context.Context, actor service.Actor, testID, questionID uint, index int) (*entity.Test, error) {
	args := m.Called(ctx, actor, testID, questionID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

type MockAttemptUseCase struct {
	mock.Mock
}

func (m *MockAttemptUseCase) ListMine(ctx context.Context, actor service.Actor) ([]entity.Attempt, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptUseCase) GetAttempt(ctx context.Context, actor service.Actor, attemptID uint) (*entity.Attempt, error) {
	args := m.Called(ctx, actor, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptUseCase) ListForTest(ctx context.Context, actor service.Actor, testID uint) ([]entity.Attempt, error) {
	args := m.Called(ctx, actor, testID)
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptUseCase) ExportXLSX(ctx context.Context, actor service.Actor, testID uint, w io.Writer) (*entity.Test, error) {
	args := m.Called(ctx, actor, testID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	_, _ = w.Write([]byte("xlsx"))
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockAttemptUseCase) StudentStats(ctx context.Context, actor service.Actor) (*service.StudentStats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StudentStats), args.Error(1)
}

type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) StartSession(ctx context.Context, studentID, testID uint) (*session.Session, bool, error) {
	args := m.Called(ctx, studentID, testID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*session.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionUseCase) Get(sessionID string, studentID uint) (*session.Session, error) {
	args := m.Called(sessionID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionUseCase) Submit(ctx context.Context, sessionID string, studentID uint) (*entity.Attempt, error) {
	args := m.Called(ctx, sessionID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockSessionUseCase) Abandon(sessionID string, studentID uint) error {
	args := m.Called(sessionID, studentID)
	return args.Error(0)
}
