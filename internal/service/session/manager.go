package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

type pairKey struct {
	testID    uint
	studentID uint
}

// Manager хранит активные сессии, не более одной на пару (тест, студент)
type Manager struct {
	deps     *Dependencies
	loader   *Loader
	recorder *Recorder

	mu       sync.Mutex
	sessions map[string]*Session
	byPair   map[pairKey]string
}

// NewManager создает менеджер сессий
func NewManager(deps *Dependencies) *Manager {
	deps.withDefaults()
	return &Manager{
		deps:     deps,
		loader:   NewLoader(deps.QuestionRepo, deps.CacheRepo, deps.Config.QuestionCacheTTL),
		recorder: NewRecorder(deps.AttemptRepo, deps.Clock),
		sessions: make(map[string]*Session),
		byPair:   make(map[pairKey]string),
	}
}

// Loader возвращает загрузчик вопросов (используется для сброса кеша при изменении теста)
func (m *Manager) Loader() *Loader {
	return m.loader
}

// StartSession начинает прохождение теста или возвращает уже идущую сессию.
// Второй результат равен true, если сессия была продолжена.
func (m *Manager) StartSession(ctx context.Context, studentID, testID uint) (*Session, bool, error) {
	test, err := m.deps.TestRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, false, err
	}
	if !test.HasTimeLimit() {
		log.Warn().Uint("testID", testID).Int("timeLimit", test.TimeLimit).Msg("[SessionManager] У теста не задан лимит времени")
		return nil, false, fmt.Errorf("%w: test #%d has no time limit", apperrors.ErrValidation, testID)
	}

	enrolled, err := m.deps.EnrollmentRepo.IsEnrolled(ctx, test.CourseID, studentID)
	if err != nil {
		return nil, false, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, false, fmt.Errorf("%w: student #%d is not enrolled in course #%d", apperrors.ErrForbidden, studentID, test.CourseID)
	}

	if _, err := m.deps.AttemptRepo.GetByTestAndStudent(ctx, testID, studentID); err == nil {
		return nil, false, fmt.Errorf("%w: test #%d already completed", apperrors.ErrConflict, testID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("check previous attempt: %w", err)
	}

	key := pairKey{testID: testID, studentID: studentID}
	if s := m.lookupPair(key); s != nil {
		return s, true, nil
	}

	questions, err := m.loader.Load(ctx, testID)
	if err != nil {
		m.deps.Notifier.Notify(studentID, Notification{
			Level:   LevelError,
			Title:   "Failed to load test",
			Message: "Could not load the test questions. Please return to the course and try again.",
			Data:    map[string]interface{}{"test_id": testID},
		})
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Параллельный запрос мог успеть создать сессию, пока загружались вопросы
	if id, ok := m.byPair[key]; ok {
		if s, ok := m.sessions[id]; ok {
			return s, true, nil
		}
	}

	s := start(m.deps, m.recorder, test, questions, studentID, m.handleSubmitted)
	m.sessions[s.ID()] = s
	m.byPair[key] = s.ID()
	activeSessions.Inc()
	return s, false, nil
}

func (m *Manager) lookupPair(key pairKey) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[key]
	if !ok {
		return nil
	}
	return m.sessions[id]
}

// Get возвращает сессию студента
func (m *Manager) Get(sessionID string, studentID uint) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	if s.StudentID() != studentID {
		return nil, fmt.Errorf("%w: session belongs to another student", apperrors.ErrForbidden)
	}
	return s, nil
}

// Submit отправляет тест вручную
func (m *Manager) Submit(ctx context.Context, sessionID string, studentID uint) (*entity.Attempt, error) {
	s, err := m.Get(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx)
}

// Abandon прерывает сессию и удаляет ее из реестра
func (m *Manager) Abandon(sessionID string, studentID uint) error {
	s, err := m.Get(sessionID, studentID)
	if err != nil {
		return err
	}
	if err := s.Abandon(); err != nil {
		return err
	}
	m.remove(s)
	return nil
}

// ActiveCount возвращает количество активных сессий
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown останавливает таймеры всех сессий
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.byPair = make(map[pairKey]string)
	m.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
	activeSessions.Sub(float64(len(sessions)))
	log.Info().Int("sessions", len(sessions)).Msg("[SessionManager] Таймеры сессий остановлены")
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; !ok {
		return
	}
	delete(m.sessions, s.ID())
	key := pairKey{testID: s.Test().ID, studentID: s.StudentID()}
	if m.byPair[key] == s.ID() {
		delete(m.byPair, key)
	}
	activeSessions.Dec()
}

// handleSubmitted вызывается сессией после записи попытки (или обнаружения уже записанной)
func (m *Manager) handleSubmitted(s *Session, attempt *entity.Attempt, auto bool) {
	m.remove(s)
	if attempt == nil || m.deps.Mailer == nil || m.deps.UserRepo == nil || !m.deps.Config.SendResultEmail {
		return
	}
	go m.sendResultEmail(s.StudentID(), s.Test(), attempt)
}

func (m *Manager) sendResultEmail(studentID uint, test *entity.Test, attempt *entity.Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	student, err := m.deps.UserRepo.GetByID(ctx, studentID)
	if err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Msg("[SessionManager] Не удалось получить профиль для письма с результатом")
		return
	}
	if err := m.deps.Mailer.SendAttemptResult(ctx, student, test, attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("[SessionManager] Не удалось отправить письмо с результатом")
	}
}
