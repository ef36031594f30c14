package session

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) GetByTestID(ctx context.Context, testID uint) ([]entity.Question, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepo) GetByID(ctx context.Context, id uint) (*entity.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepo) GetByTestAndStudent(ctx context.Context, testID, studentID uint) (*entity.Attempt, error) {
	args := m.Called(ctx, testID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepo) ListByStudent(ctx context.Context, studentID uint) ([]entity.Attempt, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepo) ListByTest(ctx context.Context, testID uint) ([]entity.Attempt, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepo) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockTestRepo struct {
	mock.Mock
}

func (m *MockTestRepo) Create(ctx context.Context, test *entity.Test) error {
	return m.Called(ctx, test).Error(0)
}

func (m *MockTestRepo) GetByID(ctx context.Context, id uint) (*entity.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepo) Update(ctx context.Context, test *entity.Test) error {
	return m.Called(ctx, test).Error(0)
}

func (m *MockTestRepo) ListByCourse(ctx context.Context, courseID uint) ([]entity.Test, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Test), args.Error(1)
}

func (m *MockTestRepo) CountAvailableForStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockEnrollmentRepo struct {
	mock.Mock
}

func (m *MockEnrollmentRepo) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	return m.Called(ctx, enrollment).Error(0)
}

func (m *MockEnrollmentRepo) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	args := m.Called(ctx, courseID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEnrollmentRepo) ListStudents(ctx context.Context, courseID uint) ([]entity.User, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockEnrollmentRepo) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheRepo) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.Called(ctx, key, expiration).Error(0)
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *MockCacheRepo) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Вспомогательные типы
// ============================================================================

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	ticks         []int
}

func (n *recordingNotifier) Notify(_ uint, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, note)
}

func (n *recordingNotifier) NotifyTick(_ uint, _ string, remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticks = append(n.ticks, remaining)
}

func (n *recordingNotifier) byLevel(level string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, note := range n.notifications {
		if note.Level == level {
			out = append(out, note)
		}
	}
	return out
}

// fakeTicker никогда не срабатывает сам: тесты вызывают Countdown.Tick напрямую или пишут в канал
type fakeTicker struct {
	ch   chan time.Time
	once sync.Once
	done chan struct{}
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), done: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.done) }) }

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestDeps(attempts *MockAttemptRepo, notifier *recordingNotifier) *Dependencies {
	return &Dependencies{
		AttemptRepo: attempts,
		Notifier:    notifier,
		Clock:       fixedClock,
		NewTicker:   func(time.Duration) Ticker { return newFakeTicker() },
		Config:      DefaultConfig(),
	}
}

func sampleTest() *entity.Test {
	return &entity.Test{ID: 10, CourseID: 5, Title: "Основы Go", TimeLimit: 1}
}

func sampleQuestions() []entity.Question {
	return []entity.Question{
		{
			ID: 1, TestID: 10, OrderIndex: 0, Type: entity.QuestionTypeSingle,
			Text: "Столица Франции?", Options: entity.StringArray{"Berlin", "Paris", "Rome"},
			Points: 1, Key: entity.SingleKey("Paris"),
		},
		{
			ID: 2, TestID: 10, OrderIndex: 1, Type: entity.QuestionTypeMultiple,
			Text: "Простые числа", Options: entity.StringArray{"2", "4", "5", "9"},
			Points: 2, Key: entity.MultipleKey("2", "5"),
		},
	}
}
