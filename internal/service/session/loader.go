package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// QuestionsCacheKey возвращает ключ кеша вопросов теста
func QuestionsCacheKey(testID uint) string {
	return fmt.Sprintf("test:%d:questions", testID)
}

// cachedQuestion хранит вопрос вместе с сырым ключом ответа, который скрыт из JSON сущности
type cachedQuestion struct {
	Question      entity.Question `json:"question"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
}

// Loader загружает вопросы теста и нормализует ключи ответов
type Loader struct {
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	cacheTTL     time.Duration
}

// NewLoader создает загрузчик вопросов. cacheRepo может быть nil
func NewLoader(questionRepo repository.QuestionRepository, cacheRepo repository.CacheRepository, cacheTTL time.Duration) *Loader {
	return &Loader{
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
	}
}

// Load возвращает вопросы теста в порядке order_index с разобранными ключами ответов.
// Ошибка хранилища возвращается как apperrors.ErrLoadFailed. Пустой список не является ошибкой.
func (l *Loader) Load(ctx context.Context, testID uint) ([]entity.Question, error) {
	if questions, ok := l.fromCache(ctx, testID); ok {
		return NormalizeQuestions(questions), nil
	}

	questions, err := l.questionRepo.GetByTestID(ctx, testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("[Loader] Ошибка загрузки вопросов теста")
		return nil, fmt.Errorf("%w: test #%d: %w", apperrors.ErrLoadFailed, testID, err)
	}

	l.toCache(ctx, testID, questions)
	return NormalizeQuestions(questions), nil
}

// Invalidate удаляет вопросы теста из кеша
func (l *Loader) Invalidate(ctx context.Context, testID uint) {
	if l.cacheRepo == nil {
		return
	}
	if err := l.cacheRepo.Delete(ctx, QuestionsCacheKey(testID)); err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("[Loader] Не удалось сбросить кеш вопросов")
	}
}

func (l *Loader) fromCache(ctx context.Context, testID uint) ([]entity.Question, bool) {
	if l.cacheRepo == nil {
		return nil, false
	}
	var cached []cachedQuestion
	if err := l.cacheRepo.GetJSON(ctx, QuestionsCacheKey(testID), &cached); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Uint("testID", testID).Msg("[Loader] Ошибка чтения кеша вопросов")
		}
		return nil, false
	}
	questions := make([]entity.Question, len(cached))
	for i, c := range cached {
		questions[i] = c.Question
		questions[i].CorrectAnswer = []byte(c.CorrectAnswer)
	}
	return questions, true
}

func (l *Loader) toCache(ctx context.Context, testID uint, questions []entity.Question) {
	if l.cacheRepo == nil {
		return
	}
	cached := make([]cachedQuestion, len(questions))
	for i, q := range questions {
		raw := json.RawMessage(q.CorrectAnswer)
		if !json.Valid(raw) {
			// Старые ключи single_choice хранятся обычным текстом
			encoded, _ := json.Marshal(string(q.CorrectAnswer))
			raw = encoded
		}
		cached[i] = cachedQuestion{Question: q, CorrectAnswer: raw}
	}
	if err := l.cacheRepo.SetJSON(ctx, QuestionsCacheKey(testID), cached, l.cacheTTL); err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("[Loader] Не удалось сохранить вопросы в кеш")
	}
}

// NormalizeQuestions сортирует вопросы по order_index, подставляет баллы по умолчанию
// и разбирает ключи ответов. Неразборчивый ключ помечается как degraded, загрузка продолжается.
func NormalizeQuestions(questions []entity.Question) []entity.Question {
	out := make([]entity.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })

	for i := range out {
		q := &out[i]
		q.Points = q.PointValue()
		if !entity.IsValidQuestionType(q.Type) {
			q.Type = entity.QuestionTypeSingle
		}
		key, err := entity.DecodeAnswerKey(q.Type, q.CorrectAnswer)
		if err != nil {
			log.Warn().Err(err).Uint("questionID", q.ID).Uint("testID", q.TestID).Str("raw", key.Raw).
				Msg("[Loader] Ключ ответа не разобран, вопрос не будет засчитан")
			degradedKeysTotal.Inc()
		}
		q.Key = key
	}
	return out
}
