package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// Типы вопросов
const (
	QuestionTypeSingle   = "single_choice"
	QuestionTypeMultiple = "multiple_choice"
)

// MinOptionsPerQuestion: минимальное количество вариантов ответа
const MinOptionsPerQuestion = 2

// DefaultQuestionPoints: баллы за вопрос, если значение не задано
const DefaultQuestionPoints = 1

var (
	// ErrTooFewOptions: у вопроса меньше двух вариантов ответа
	ErrTooFewOptions = fmt.Errorf("%w: question must keep at least %d options", apperrors.ErrValidation, MinOptionsPerQuestion)

	// ErrMalformedAnswerKey: сохраненный ключ ответа не удалось разобрать
	ErrMalformedAnswerKey = errors.New("malformed answer key")
)

// IsValidQuestionType проверяет тип вопроса
func IsValidQuestionType(t string) bool {
	return t == QuestionTypeSingle || t == QuestionTypeMultiple
}

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// AnswerKey: правильный ответ на вопрос в нормализованном виде.
// Для single_choice заполнено поле Single, для multiple_choice: Multiple (отсортированное множество).
// Degraded означает, что сохраненное значение не удалось разобрать: такой вопрос не засчитывается.
type AnswerKey struct {
	Kind     string   `json:"kind"`
	Single   string   `json:"single,omitempty"`
	Multiple []string `json:"multiple,omitempty"`
	Raw      string   `json:"raw,omitempty"`
	Degraded bool     `json:"degraded,omitempty"`
}

// SingleKey создает ключ для вопроса с одним вариантом ответа
func SingleKey(option string) AnswerKey {
	return AnswerKey{Kind: QuestionTypeSingle, Single: option}
}

// MultipleKey создает ключ для вопроса с несколькими вариантами (дубликаты отбрасываются)
func MultipleKey(options ...string) AnswerKey {
	return AnswerKey{Kind: QuestionTypeMultiple, Multiple: uniqueSorted(options)}
}

// IsMultiple возвращает true для ключа множественного выбора
func (k AnswerKey) IsMultiple() bool {
	return k.Kind == QuestionTypeMultiple
}

// Contains проверяет, входит ли вариант в ключ
func (k AnswerKey) Contains(option string) bool {
	if k.IsMultiple() {
		for _, v := range k.Multiple {
			if v == option {
				return true
			}
		}
		return false
	}
	return k.Single == option
}

// IsEmpty возвращает true, если правильный ответ не выбран
func (k AnswerKey) IsEmpty() bool {
	if k.IsMultiple() {
		return len(k.Multiple) == 0
	}
	return k.Single == ""
}

// Values возвращает значения ключа списком
func (k AnswerKey) Values() []string {
	if k.IsMultiple() {
		out := make([]string, len(k.Multiple))
		copy(out, k.Multiple)
		return out
	}
	if k.Single == "" {
		return nil
	}
	return []string{k.Single}
}

// Encode сериализует ключ в каноническое JSON-представление для колонки correct_answer:
// строка для single_choice и массив строк для multiple_choice.
func (k AnswerKey) Encode() (datatypes.JSON, error) {
	if k.Degraded {
		return nil, fmt.Errorf("%w: cannot encode degraded key", ErrMalformedAnswerKey)
	}
	var (
		data []byte
		err  error
	)
	if k.IsMultiple() {
		values := k.Multiple
		if values == nil {
			values = []string{}
		}
		data, err = json.Marshal(values)
	} else {
		data, err = json.Marshal(k.Single)
	}
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// DecodeAnswerKey разбирает сохраненный ключ ответа.
// multiple_choice принимает JSON-массив или JSON-строку, внутри которой закодирован массив.
// single_choice принимает JSON-строку, число, true/false или произвольный текст (старые записи).
// При ошибке возвращается ключ с Degraded=true и исходным значением в Raw вместе с ошибкой.
func DecodeAnswerKey(kind string, raw []byte) (AnswerKey, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return degradedKey(kind, trimmed), fmt.Errorf("%w: empty value", ErrMalformedAnswerKey)
	}

	if kind == QuestionTypeMultiple {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err == nil {
			if len(values) == 0 {
				return degradedKey(kind, trimmed), fmt.Errorf("%w: empty set", ErrMalformedAnswerKey)
			}
			return MultipleKey(values...), nil
		}

		var encoded string
		if err := json.Unmarshal([]byte(trimmed), &encoded); err != nil {
			return degradedKey(kind, trimmed), fmt.Errorf("%w: %v", ErrMalformedAnswerKey, err)
		}
		if err := json.Unmarshal([]byte(encoded), &values); err != nil {
			return degradedKey(kind, encoded), fmt.Errorf("%w: %v", ErrMalformedAnswerKey, err)
		}
		if len(values) == 0 {
			return degradedKey(kind, encoded), fmt.Errorf("%w: empty set", ErrMalformedAnswerKey)
		}
		return MultipleKey(values...), nil
	}

	var single string
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		if single == "" {
			return degradedKey(kind, trimmed), fmt.Errorf("%w: empty value", ErrMalformedAnswerKey)
		}
		return SingleKey(single), nil
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		// Массив или объект у single_choice не сводится к одному варианту
		return degradedKey(kind, trimmed), fmt.Errorf("%w: unexpected JSON value for %s", ErrMalformedAnswerKey, kind)
	}
	// Числа, true/false и текст старого формата сравниваются как есть
	return SingleKey(trimmed), nil
}

func degradedKey(kind, raw string) AnswerKey {
	if kind != QuestionTypeMultiple {
		kind = QuestionTypeSingle
	}
	return AnswerKey{Kind: kind, Raw: raw, Degraded: true}
}

// Question представляет вопрос теста
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	TestID        uint           `gorm:"not null;index;uniqueIndex:idx_test_order" json:"test_id"`
	OrderIndex    int            `gorm:"not null;uniqueIndex:idx_test_order" json:"order_index"`
	Text          string         `gorm:"column:question_text;size:2000;not null" json:"question_text"`
	Type          string         `gorm:"size:20;not null;default:'single_choice'" json:"type"`
	Options       StringArray    `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswer datatypes.JSON `gorm:"type:jsonb;not null" json:"-"` // Скрыто от клиента
	Points        int            `gorm:"not null;default:1" json:"points"`
	CreatedAt     time.Time      `json:"created_at"`

	// Key заполняется загрузчиком вопросов из CorrectAnswer
	Key AnswerKey `gorm:"-" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsMultiple возвращает true для вопросов с несколькими правильными ответами
func (q *Question) IsMultiple() bool {
	return q.Type == QuestionTypeMultiple
}

// PointValue возвращает баллы за вопрос (1, если значение не задано)
func (q *Question) PointValue() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// HasOption проверяет, что вариант присутствует в списке
func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// RemoveOption удаляет вариант по индексу и убирает его из правильного ответа.
// Нельзя оставить меньше двух вариантов.
func (q *Question) RemoveOption(index int) error {
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("%w: option index %d out of range", apperrors.ErrValidation, index)
	}
	if len(q.Options) <= MinOptionsPerQuestion {
		return ErrTooFewOptions
	}

	removed := q.Options[index]
	options := make(StringArray, 0, len(q.Options)-1)
	options = append(options, q.Options[:index]...)
	options = append(options, q.Options[index+1:]...)
	q.Options = options

	if q.IsMultiple() {
		kept := make([]string, 0, len(q.Key.Multiple))
		for _, v := range q.Key.Multiple {
			if v != removed {
				kept = append(kept, v)
			}
		}
		q.Key = MultipleKey(kept...)
	} else if q.Key.Single == removed {
		q.Key = SingleKey("")
	}
	return nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
