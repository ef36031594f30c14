package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// SubmitLockKey возвращает ключ блокировки отправки попытки
func SubmitLockKey(testID, studentID uint) string {
	return fmt.Sprintf("attempt:lock:%d:%d", testID, studentID)
}

// Session: прохождение одного теста одним студентом, от загрузки вопросов до записи попытки.
// Мьютекс сессии сериализует HTTP-запросы и колбэки таймера.
type Session struct {
	mu        sync.Mutex
	id        string
	test      *entity.Test
	studentID uint
	questions []entity.Question
	positions map[uint]int
	current   int
	tracker   *Tracker
	countdown *Countdown
	state     State
	startedAt time.Time
	attempt   *entity.Attempt

	deps        *Dependencies
	recorder    *Recorder
	onSubmitted func(s *Session, attempt *entity.Attempt, auto bool)
}

// View: согласованный снимок состояния сессии
type View struct {
	ID               string
	TestID           uint
	TestTitle        string
	State            State
	CurrentIndex     int
	TotalQuestions   int
	AnsweredCount    int
	RemainingSeconds int
	CurrentQuestion  *entity.Question
	Answers          entity.AnswerMap
	Attempt          *entity.Attempt
}

// Start создает сессию со свежим трекером и запускает обратный отсчет
func Start(deps *Dependencies, test *entity.Test, questions []entity.Question, studentID uint) *Session {
	deps.withDefaults()
	return start(deps, NewRecorder(deps.AttemptRepo, deps.Clock), test, questions, studentID, nil)
}

func start(
	deps *Dependencies,
	recorder *Recorder,
	test *entity.Test,
	questions []entity.Question,
	studentID uint,
	onSubmitted func(s *Session, attempt *entity.Attempt, auto bool),
) *Session {
	s := &Session{
		id:          uuid.NewString(),
		test:        test,
		studentID:   studentID,
		questions:   questions,
		positions:   make(map[uint]int, len(questions)),
		tracker:     NewTracker(),
		state:       StateActive,
		startedAt:   deps.Clock(),
		deps:        deps,
		recorder:    recorder,
		onSubmitted: onSubmitted,
	}
	for i, q := range questions {
		s.positions[q.ID] = i
	}

	s.countdown = NewCountdown(test.TimeLimitSeconds(), s.handleTick, s.handleExpire)
	s.countdown.Start(deps.Config.TickInterval, deps.NewTicker)

	sessionsStarted.Inc()
	log.Info().Str("sessionID", s.id).Uint("testID", test.ID).Uint("studentID", studentID).
		Int("questions", len(questions)).Int("seconds", test.TimeLimitSeconds()).
		Msg("[Session] Сессия начата")
	return s
}

// ID возвращает идентификатор сессии
func (s *Session) ID() string { return s.id }

// StudentID возвращает идентификатор студента
func (s *Session) StudentID() uint { return s.studentID }

// Test возвращает тест сессии
func (s *Session) Test() *entity.Test { return s.test }

// StartedAt возвращает время начала сессии
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Questions возвращает копию упорядоченного списка вопросов
func (s *Session) Questions() []entity.Question {
	out := make([]entity.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// RemainingSeconds возвращает оставшееся время
func (s *Session) RemainingSeconds() int {
	return s.countdown.Remaining()
}

// State возвращает состояние сессии
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentIndex возвращает индекс текущего вопроса (с нуля)
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentQuestion возвращает текущий вопрос или nil, если вопросов нет
func (s *Session) CurrentQuestion() *entity.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestionLocked()
}

func (s *Session) currentQuestionLocked() *entity.Question {
	if len(s.questions) == 0 {
		return nil
	}
	q := s.questions[s.current]
	return &q
}

// Attempt возвращает записанную попытку после успешной отправки
func (s *Session) Attempt() *entity.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Snapshot возвращает согласованный снимок состояния
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:               s.id,
		TestID:           s.test.ID,
		TestTitle:        s.test.Title,
		State:            s.state,
		CurrentIndex:     s.current,
		TotalQuestions:   len(s.questions),
		AnsweredCount:    s.tracker.Len(),
		RemainingSeconds: s.countdown.Remaining(),
		CurrentQuestion:  s.currentQuestionLocked(),
		Answers:          s.tracker.Snapshot(),
		Attempt:          s.attempt,
	}
}

// Next переходит к следующему вопросу. Без ответа на текущий вопрос возвращает ErrAnswerRequired
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if s.current >= len(s.questions)-1 {
		return fmt.Errorf("%w: already at the last question", apperrors.ErrValidation)
	}
	if !s.tracker.HasAnswer(s.questions[s.current].ID) {
		return fmt.Errorf("%w: question %d", apperrors.ErrAnswerRequired, s.current+1)
	}
	s.current++
	return nil
}

// Previous возвращается к предыдущему вопросу
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if s.current == 0 {
		return fmt.Errorf("%w: already at the first question", apperrors.ErrValidation)
	}
	s.current--
	return nil
}

// GoTo переходит к вопросу по индексу. Перейти вперед можно, только ответив на все вопросы до него
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: question index %d out of range", apperrors.ErrValidation, index)
	}
	for i := s.current; i < index; i++ {
		if !s.tracker.HasAnswer(s.questions[i].ID) {
			return fmt.Errorf("%w: question %d", apperrors.ErrAnswerRequired, i+1)
		}
	}
	s.current = index
	return nil
}

// SetSingle выбирает вариант в вопросе с одним правильным ответом
func (s *Session) SetSingle(questionID uint, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.answerableLocked(questionID, option)
	if err != nil {
		return err
	}
	if q.IsMultiple() {
		return fmt.Errorf("%w: question #%d accepts multiple answers", apperrors.ErrValidation, questionID)
	}
	s.tracker.SetSingle(questionID, option)
	return nil
}

// ToggleMultiple отмечает или снимает вариант в вопросе с несколькими ответами
func (s *Session) ToggleMultiple(questionID uint, option string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.answerableLocked(questionID, option)
	if err != nil {
		return err
	}
	if !q.IsMultiple() {
		return fmt.Errorf("%w: question #%d accepts a single answer", apperrors.ErrValidation, questionID)
	}
	s.tracker.ToggleMultiple(questionID, option, selected)
	return nil
}

// IsSelected проверяет, выбран ли вариант
func (s *Session) IsSelected(questionID uint, option string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.IsSelected(questionID, option)
}

// HasAnswer проверяет, есть ли ответ на вопрос
func (s *Session) HasAnswer(questionID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.HasAnswer(questionID)
}

// Submit отправляет тест вручную. Пока время не вышло, требует ответа на каждый вопрос
func (s *Session) Submit(ctx context.Context) (*entity.Attempt, error) {
	return s.submit(ctx, false)
}

// AutoSubmit отправляет тест по истечении времени, без проверки ответа на текущий вопрос
func (s *Session) AutoSubmit(ctx context.Context) (*entity.Attempt, error) {
	return s.submit(ctx, true)
}

// Abandon прерывает сессию, останавливает таймер и отбрасывает ответы
func (s *Session) Abandon() error {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return apperrors.ErrSubmitInProgress
	case StateSubmitted, StateAbandoned:
		s.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	s.state = StateAbandoned
	s.tracker = NewTracker()
	s.mu.Unlock()

	s.countdown.Stop()
	log.Info().Str("sessionID", s.id).Uint("studentID", s.studentID).Msg("[Session] Сессия прервана")
	return nil
}

// firstUnansweredLocked возвращает индекс первого вопроса без ответа или -1
func (s *Session) firstUnansweredLocked() int {
	for i := range s.questions {
		if !s.tracker.HasAnswer(s.questions[i].ID) {
			return i
		}
	}
	return -1
}

// stop останавливает таймер без изменения состояния
func (s *Session) stop() {
	s.countdown.Stop()
}

func (s *Session) submit(ctx context.Context, auto bool) (*entity.Attempt, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return nil, apperrors.ErrSubmitInProgress
	case StateSubmitted, StateAbandoned:
		s.mu.Unlock()
		return nil, apperrors.ErrSessionClosed
	}
	if !auto && !s.countdown.Expired() {
		if idx := s.firstUnansweredLocked(); idx >= 0 {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: question %d", apperrors.ErrAnswerRequired, idx+1)
		}
	}
	s.state = StateSubmitting
	answers := s.tracker.Snapshot()
	s.mu.Unlock()

	attempt, err := s.record(ctx, answers)

	s.mu.Lock()
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			// Попытка уже записана другим запросом или экземпляром сервиса
			s.state = StateSubmitted
		case s.state == StateSubmitting:
			s.state = StateActive
		}
		closed := s.state == StateSubmitted
		s.mu.Unlock()

		if closed {
			s.countdown.Stop()
		}
		s.notifyFailure(err, auto)
		if closed && s.onSubmitted != nil {
			s.onSubmitted(s, nil, auto)
		}
		return nil, err
	}
	s.state = StateSubmitted
	s.attempt = attempt
	s.mu.Unlock()

	s.countdown.Stop()
	attemptsSubmitted.WithLabelValues(submitMode(auto)).Inc()

	result := Result{
		CorrectAnswers: attempt.CorrectAnswers,
		TotalQuestions: attempt.TotalQuestions,
		EarnedPoints:   attempt.EarnedPoints,
		TotalPoints:    attempt.TotalPoints,
		Score:          attempt.Score,
		Percentage:     attempt.Percentage,
	}
	title := "Test submitted"
	if auto {
		title = "Time is up, test submitted"
	}
	s.deps.Notifier.Notify(s.studentID, Notification{
		Level:   LevelSuccess,
		Title:   title,
		Message: result.Summary(),
		Data: map[string]interface{}{
			"attempt_id": attempt.ID,
			"test_id":    s.test.ID,
			"percentage": attempt.Percentage,
			"auto":       auto,
		},
	})

	if s.onSubmitted != nil {
		s.onSubmitted(s, attempt, auto)
	}
	return attempt, nil
}

// record считает баллы и сохраняет попытку под распределенной блокировкой
func (s *Session) record(ctx context.Context, answers entity.AnswerMap) (*entity.Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Config.SubmitTimeout)
	defer cancel()

	release, err := s.acquireSubmitLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result := Score(s.questions, answers)
	return s.recorder.Commit(ctx, CommitInput{
		TestID:    s.test.ID,
		StudentID: s.studentID,
		Answers:   answers,
		Result:    result,
		StartedAt: s.startedAt,
	})
}

func (s *Session) acquireSubmitLock(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.deps.CacheRepo == nil {
		return noop, nil
	}

	key := SubmitLockKey(s.test.ID, s.studentID)
	ok, err := s.deps.CacheRepo.SetNX(ctx, key, s.id, s.deps.Config.SubmitTimeout)
	if err != nil {
		// Уникальный индекс в БД все равно не даст записать вторую попытку
		log.Warn().Err(err).Str("key", key).Msg("[Session] Не удалось взять блокировку отправки, продолжаем без нее")
		return noop, nil
	}
	if !ok {
		return nil, apperrors.ErrSubmitInProgress
	}
	return func() {
		// Блокировку могла перехватить другая сессия после истечения TTL
		released, err := s.deps.CacheRepo.DeleteIfValue(context.Background(), key, s.id)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("[Session] Не удалось снять блокировку отправки")
			return
		}
		if !released {
			log.Warn().Str("key", key).Msg("[Session] Блокировка отправки истекла до завершения записи")
		}
	}, nil
}

func (s *Session) notifyFailure(err error, auto bool) {
	if errors.Is(err, apperrors.ErrSubmitInProgress) {
		return
	}

	message := "Could not save your attempt. Your answers are kept, please try again."
	if errors.Is(err, apperrors.ErrConflict) {
		message = "An attempt for this test has already been recorded."
	} else {
		submitFailures.Inc()
	}
	log.Error().Err(err).Str("sessionID", s.id).Bool("auto", auto).Msg("[Session] Ошибка отправки теста")

	s.deps.Notifier.Notify(s.studentID, Notification{
		Level:   LevelError,
		Title:   "Submission failed",
		Message: message,
		Data:    map[string]interface{}{"test_id": s.test.ID, "session_id": s.id},
	})
}

func (s *Session) handleTick(remaining int) {
	s.deps.Notifier.NotifyTick(s.studentID, s.id, remaining)
}

func (s *Session) handleExpire() {
	log.Info().Str("sessionID", s.id).Uint("studentID", s.studentID).Msg("[Session] Время вышло, автоматическая отправка")
	if _, err := s.AutoSubmit(context.Background()); err != nil {
		log.Warn().Err(err).Str("sessionID", s.id).Msg("[Session] Автоматическая отправка не удалась")
	}
}

func (s *Session) ensureOpenLocked() error {
	switch s.state {
	case StateSubmitting:
		return apperrors.ErrSubmitInProgress
	case StateSubmitted, StateAbandoned:
		return apperrors.ErrSessionClosed
	}
	return nil
}

func (s *Session) answerableLocked(questionID uint, option string) (*entity.Question, error) {
	if err := s.ensureOpenLocked(); err != nil {
		return nil, err
	}
	if s.countdown.Expired() {
		return nil, fmt.Errorf("%w: time is up", apperrors.ErrSessionClosed)
	}
	pos, ok := s.positions[questionID]
	if !ok {
		return nil, fmt.Errorf("%w: question #%d is not part of this test", apperrors.ErrNotFound, questionID)
	}
	q := &s.questions[pos]
	if !q.HasOption(option) {
		return nil, fmt.Errorf("%w: unknown option %q", apperrors.ErrValidation, option)
	}
	return q, nil
}
