package session

import (
	"context"
	"time"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
)

// Значения по умолчанию
const (
	DefaultTickInterval     = time.Second
	DefaultQuestionCacheTTL = 10 * time.Minute
	DefaultSubmitTimeout    = 10 * time.Second
)

// Config содержит настройки движка сессий
type Config struct {
	TickInterval     time.Duration // Интервал одного тика обратного отсчета
	QuestionCacheTTL time.Duration // Время жизни кеша вопросов теста
	SubmitTimeout    time.Duration // Таймаут записи попытки и TTL блокировки отправки
	SendResultEmail  bool          // Отправлять ли студенту письмо с результатом
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		TickInterval:     DefaultTickInterval,
		QuestionCacheTTL: DefaultQuestionCacheTTL,
		SubmitTimeout:    DefaultSubmitTimeout,
	}
}

// State: состояние сессии
type State string

const (
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateAbandoned  State = "abandoned"
)

// Clock возвращает текущее время. Подменяется в тестах
type Clock func() time.Time

// Ticker: источник тиков обратного отсчета
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory создает тикер с заданным интервалом
type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker возвращает тикер на основе time.Ticker
func NewTimeTicker(interval time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(interval)}
}

// Уровни уведомлений
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notification: неблокирующее уведомление для студента
type Notification struct {
	Level   string                 `json:"level"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Notifier доставляет уведомления и тики таймера студенту
type Notifier interface {
	Notify(studentID uint, n Notification)
	NotifyTick(studentID uint, sessionID string, remainingSeconds int)
}

// NoopNotifier игнорирует все уведомления
type NoopNotifier struct{}

// Notify ничего не делает
func (NoopNotifier) Notify(uint, Notification) {}

// NotifyTick ничего не делает
func (NoopNotifier) NotifyTick(uint, string, int) {}

// Mailer отправляет студенту письмо с результатом попытки
type Mailer interface {
	SendAttemptResult(ctx context.Context, student *entity.User, test *entity.Test, attempt *entity.Attempt) error
}

// Dependencies содержит зависимости движка сессий
type Dependencies struct {
	QuestionRepo   repository.QuestionRepository
	AttemptRepo    repository.AttemptRepository
	TestRepo       repository.TestRepository
	EnrollmentRepo repository.EnrollmentRepository
	UserRepo       repository.UserRepository
	CacheRepo      repository.CacheRepository // Может быть nil: кеш и блокировка отключены
	Notifier       Notifier
	Mailer         Mailer // Может быть nil
	Clock          Clock
	NewTicker      TickerFactory
	Config         *Config
}

// withDefaults заполняет необязательные зависимости
func (d *Dependencies) withDefaults() {
	if d.Config == nil {
		d.Config = DefaultConfig()
	}
	if d.Config.TickInterval <= 0 {
		d.Config.TickInterval = DefaultTickInterval
	}
	if d.Config.SubmitTimeout <= 0 {
		d.Config.SubmitTimeout = DefaultSubmitTimeout
	}
	if d.Notifier == nil {
		d.Notifier = NoopNotifier{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewTicker == nil {
		d.NewTicker = NewTimeTicker
	}
}
