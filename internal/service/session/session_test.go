package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

func newTestSession(t *testing.T, attempts *MockAttemptRepo, notifier *recordingNotifier) *Session {
	t.Helper()
	s := Start(newTestDeps(attempts, notifier), sampleTest(), sampleQuestions(), 7)
	t.Cleanup(s.stop)
	return s
}

// answerAll отвечает на оба вопроса sampleQuestions: первый неверно, второй верно
func answerAll(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetSingle(1, "Berlin"))
	require.NoError(t, s.ToggleMultiple(2, "2", true))
	require.NoError(t, s.ToggleMultiple(2, "5", true))
}

func expectCreate(repo *MockAttemptRepo) *mock.Call {
	return repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Attempt")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Attempt).ID = 99 }).
		Return(nil)
}

func TestSession_StartState(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 60, s.RemainingSeconds(), "Лимит в 1 минуту переводится в 60 секунд")
	require.NotNil(t, s.CurrentQuestion())
	assert.Equal(t, uint(1), s.CurrentQuestion().ID)
	assert.Len(t, s.Questions(), 2)
}

func TestSession_NavigationRequiresAnswer(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})

	err := s.Next()
	assert.ErrorIs(t, err, apperrors.ErrAnswerRequired)
	assert.Equal(t, 0, s.CurrentIndex())

	require.NoError(t, s.SetSingle(1, "Paris"))
	require.NoError(t, s.Next())
	assert.Equal(t, 1, s.CurrentIndex())

	assert.ErrorIs(t, s.Next(), apperrors.ErrValidation, "Дальше последнего вопроса перейти нельзя")

	require.NoError(t, s.Previous())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.ErrorIs(t, s.Previous(), apperrors.ErrValidation)
}

func TestSession_GoTo(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})

	assert.ErrorIs(t, s.GoTo(1), apperrors.ErrAnswerRequired)
	assert.ErrorIs(t, s.GoTo(5), apperrors.ErrValidation)

	require.NoError(t, s.SetSingle(1, "Rome"))
	require.NoError(t, s.GoTo(1))
	require.NoError(t, s.GoTo(0), "Назад можно перейти всегда")
}

func TestSession_AnswerValidation(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})

	assert.ErrorIs(t, s.SetSingle(99, "Paris"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.SetSingle(1, "Madrid"), apperrors.ErrValidation)
	assert.ErrorIs(t, s.SetSingle(2, "2"), apperrors.ErrValidation, "Вопрос с несколькими ответами")
	assert.ErrorIs(t, s.ToggleMultiple(1, "Paris", true), apperrors.ErrValidation, "Вопрос с одним ответом")

	require.NoError(t, s.ToggleMultiple(2, "2", true))
	require.NoError(t, s.ToggleMultiple(2, "5", true))
	assert.True(t, s.IsSelected(2, "5"))
	assert.True(t, s.HasAnswer(2))
	assert.False(t, s.HasAnswer(1))
}

func TestSession_SubmitRequiresCurrentAnswer(t *testing.T) {
	attempts := new(MockAttemptRepo)
	s := newTestSession(t, attempts, &recordingNotifier{})

	_, err := s.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrAnswerRequired)
	assert.Equal(t, StateActive, s.State())
	attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSession_SubmitRequiresEveryQuestionAnswered(t *testing.T) {
	attempts := new(MockAttemptRepo)
	s := newTestSession(t, attempts, &recordingNotifier{})
	require.NoError(t, s.SetSingle(1, "Paris"))

	// Второй вопрос ни разу не показан
	_, err := s.Submit(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAnswerRequired)
	assert.Contains(t, err.Error(), "question 2")
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, 0, s.CurrentIndex())
	attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSession_SubmitSuccess(t *testing.T) {
	attempts := new(MockAttemptRepo)
	expectCreate(attempts)
	notifier := &recordingNotifier{}
	s := newTestSession(t, attempts, notifier)

	require.NoError(t, s.SetSingle(1, "Paris"))
	require.NoError(t, s.Next())
	require.NoError(t, s.ToggleMultiple(2, "5", true))
	require.NoError(t, s.ToggleMultiple(2, "2", true))

	attempt, err := s.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint(99), attempt.ID)
	assert.Equal(t, 2, attempt.CorrectAnswers)
	assert.Equal(t, 3, attempt.EarnedPoints)
	assert.Equal(t, 3, attempt.TotalPoints)
	assert.Equal(t, 100, attempt.Percentage)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Same(t, attempt, s.Attempt())

	successes := notifier.byLevel(LevelSuccess)
	require.Len(t, successes, 1)
	assert.Equal(t, "2/2 correct, 3/3 points (100%)", successes[0].Message)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
	assert.ErrorIs(t, s.SetSingle(1, "Rome"), apperrors.ErrSessionClosed)
	attempts.AssertNumberOfCalls(t, "Create", 1)
}

func TestSession_ConcurrentSubmitCreatesOneRecord(t *testing.T) {
	attempts := new(MockAttemptRepo)
	entered := make(chan struct{})
	release := make(chan struct{})
	attempts.On("Create", mock.Anything, mock.AnythingOfType("*entity.Attempt")).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil).Once()
	s := newTestSession(t, attempts, &recordingNotifier{})
	answerAll(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	<-entered

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSubmitInProgress)
	assert.Equal(t, StateSubmitting, s.State())
	assert.ErrorIs(t, s.SetSingle(1, "Rome"), apperrors.ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	attempts.AssertNumberOfCalls(t, "Create", 1)
}

func TestSession_SubmitFailureKeepsStateForRetry(t *testing.T) {
	attempts := new(MockAttemptRepo)
	attempts.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	expectCreate(attempts)
	notifier := &recordingNotifier{}
	s := newTestSession(t, attempts, notifier)
	require.NoError(t, s.SetSingle(1, "Berlin"))
	require.NoError(t, s.ToggleMultiple(2, "4", true))

	_, err := s.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrSubmitFailed)
	assert.Equal(t, StateActive, s.State())
	assert.True(t, s.IsSelected(1, "Berlin"), "Ответы сохраняются после ошибки")
	assert.Len(t, notifier.byLevel(LevelError), 1)

	attempt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, attempt.CorrectAnswers)
	attempts.AssertNumberOfCalls(t, "Create", 2)
}

func TestSession_ConflictClosesSession(t *testing.T) {
	attempts := new(MockAttemptRepo)
	attempts.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrConflict)
	s := newTestSession(t, attempts, &recordingNotifier{})
	answerAll(t, s)

	_, err := s.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSession_AutoSubmitAfterSixtyTicksWithPartialAnswers(t *testing.T) {
	attempts := new(MockAttemptRepo)
	var recorded *entity.Attempt
	attempts.On("Create", mock.Anything, mock.AnythingOfType("*entity.Attempt")).
		Run(func(args mock.Arguments) { recorded = args.Get(1).(*entity.Attempt) }).
		Return(nil)
	notifier := &recordingNotifier{}
	s := newTestSession(t, attempts, notifier)

	// Ответ только на первый вопрос, второй остался без ответа
	require.NoError(t, s.SetSingle(1, "Paris"))
	require.NoError(t, s.Next())

	for i := 0; i < 60; i++ {
		s.countdown.Tick()
	}

	assert.Equal(t, 0, s.RemainingSeconds())
	assert.Equal(t, StateSubmitted, s.State())
	attempts.AssertNumberOfCalls(t, "Create", 1)
	require.NotNil(t, recorded)
	assert.Equal(t, "Paris", recorded.Answers[1].Single)
	assert.Equal(t, 1, recorded.CorrectAnswers)
	assert.Equal(t, 1, recorded.EarnedPoints)
	assert.Equal(t, 3, recorded.TotalPoints)
	assert.Equal(t, 33, recorded.Percentage)
	assert.Len(t, notifier.ticks, 60)
}

func TestSession_TimerAndManualSubmitRecordOnce(t *testing.T) {
	attempts := new(MockAttemptRepo)
	expectCreate(attempts)
	s := newTestSession(t, attempts, &recordingNotifier{})
	answerAll(t, s)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 60; i++ {
			s.countdown.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		_, _ = s.Submit(context.Background())
	}()
	wg.Wait()

	assert.Equal(t, StateSubmitted, s.State())
	attempts.AssertNumberOfCalls(t, "Create", 1)
}

func TestSession_ExpiredSessionRejectsAnswers(t *testing.T) {
	attempts := new(MockAttemptRepo)
	attempts.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	s := newTestSession(t, attempts, &recordingNotifier{})

	for i := 0; i < 60; i++ {
		s.countdown.Tick()
	}

	assert.Equal(t, StateActive, s.State(), "После неудачной автоотправки можно повторить")
	assert.ErrorIs(t, s.SetSingle(1, "Paris"), apperrors.ErrSessionClosed)

	// После истечения времени отправка не требует ответов на все вопросы
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSubmitFailed)
}

func TestSession_SubmitLock(t *testing.T) {
	attempts := new(MockAttemptRepo)
	cache := new(MockCacheRepo)
	deps := newTestDeps(attempts, &recordingNotifier{})
	deps.CacheRepo = cache
	cache.On("SetNX", mock.Anything, "attempt:lock:10:7", mock.Anything, DefaultSubmitTimeout).Return(false, nil).Once()
	s := Start(deps, sampleTest(), sampleQuestions(), 7)
	t.Cleanup(s.stop)
	answerAll(t, s)

	_, err := s.Submit(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrSubmitInProgress)
	assert.Equal(t, StateActive, s.State())
	attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	cache.On("SetNX", mock.Anything, "attempt:lock:10:7", mock.Anything, DefaultSubmitTimeout).Return(true, nil).Once()
	cache.On("DeleteIfValue", mock.Anything, "attempt:lock:10:7", s.id).Return(true, nil).Once()
	expectCreate(attempts)

	_, err = s.Submit(context.Background())
	require.NoError(t, err)
	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSession_SubmitLockReleaseKeepsForeignOwner(t *testing.T) {
	attempts := new(MockAttemptRepo)
	cache := new(MockCacheRepo)
	deps := newTestDeps(attempts, &recordingNotifier{})
	deps.CacheRepo = cache
	s := Start(deps, sampleTest(), sampleQuestions(), 7)
	t.Cleanup(s.stop)
	answerAll(t, s)

	// Пока шла запись, TTL истек и ключ занял другой экземпляр
	cache.On("SetNX", mock.Anything, "attempt:lock:10:7", s.id, DefaultSubmitTimeout).Return(true, nil).Once()
	cache.On("DeleteIfValue", mock.Anything, "attempt:lock:10:7", s.id).Return(false, nil).Once()
	expectCreate(attempts)

	attempt, err := s.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, attempt.CorrectAnswers)
	assert.Equal(t, 2, attempt.EarnedPoints)
	assert.Equal(t, StateSubmitted, s.State())
	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSession_Abandon(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})
	require.NoError(t, s.SetSingle(1, "Paris"))

	require.NoError(t, s.Abandon())

	assert.Equal(t, StateAbandoned, s.State())
	assert.False(t, s.HasAnswer(1))
	assert.ErrorIs(t, s.Abandon(), apperrors.ErrSessionClosed)
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)

	remaining := s.RemainingSeconds()
	s.countdown.Tick()
	assert.Equal(t, remaining, s.RemainingSeconds(), "После прерывания таймер не тикает")
}

func TestSession_EmptyTestSubmitsZero(t *testing.T) {
	attempts := new(MockAttemptRepo)
	expectCreate(attempts)
	s := Start(newTestDeps(attempts, &recordingNotifier{}), sampleTest(), nil, 7)
	t.Cleanup(s.stop)

	assert.Nil(t, s.CurrentQuestion())
	attempt, err := s.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, attempt.TotalPoints)
	assert.Equal(t, 0, attempt.Percentage)
}

func TestSession_Snapshot(t *testing.T) {
	s := newTestSession(t, new(MockAttemptRepo), &recordingNotifier{})
	require.NoError(t, s.SetSingle(1, "Rome"))

	view := s.Snapshot()

	assert.Equal(t, s.ID(), view.ID)
	assert.Equal(t, uint(10), view.TestID)
	assert.Equal(t, 2, view.TotalQuestions)
	assert.Equal(t, 1, view.AnsweredCount)
	assert.Equal(t, 60, view.RemainingSeconds)
	assert.Equal(t, "Rome", view.Answers[1].Single)
	assert.WithinDuration(t, fixedNow, s.StartedAt(), time.Second)
}
