package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Response: ответ студента на один вопрос: строка для single_choice, список для multiple_choice
type Response struct {
	Single   string
	Multiple []string
	IsMulti  bool
}

// SingleResponse создает ответ с одним вариантом
func SingleResponse(option string) Response {
	return Response{Single: option}
}

// MultipleResponse создает ответ с несколькими вариантами
func MultipleResponse(options ...string) Response {
	values := make([]string, len(options))
	copy(values, options)
	return Response{Multiple: values, IsMulti: true}
}

// IsEmpty возвращает true, если ни один вариант не выбран
func (r Response) IsEmpty() bool {
	if r.IsMulti {
		return len(r.Multiple) == 0
	}
	return r.Single == ""
}

// Has проверяет, выбран ли вариант
func (r Response) Has(option string) bool {
	if r.IsMulti {
		for _, v := range r.Multiple {
			if v == option {
				return true
			}
		}
		return false
	}
	return r.Single != "" && r.Single == option
}

// Values возвращает выбранные варианты списком
func (r Response) Values() []string {
	if r.IsMulti {
		out := make([]string, len(r.Multiple))
		copy(out, r.Multiple)
		return out
	}
	if r.Single == "" {
		return nil
	}
	return []string{r.Single}
}

// Clone возвращает глубокую копию ответа
func (r Response) Clone() Response {
	if r.IsMulti {
		return MultipleResponse(r.Multiple...)
	}
	return r
}

// MarshalJSON сериализует ответ как строку или массив строк
func (r Response) MarshalJSON() ([]byte, error) {
	if r.IsMulti {
		values := r.Multiple
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(r.Single)
}

// UnmarshalJSON принимает строку или массив строк
func (r *Response) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var values []string
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return err
		}
		*r = Response{Multiple: values, IsMulti: true}
		return nil
	}
	var single string
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*r = Response{Single: single}
	return nil
}

// AnswerMap: ответы студента по идентификатору вопроса, хранится в JSONB
type AnswerMap map[uint]Response

// Clone возвращает глубокую копию карты ответов
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, r := range m {
		out[id] = r.Clone()
	}
	return out
}

// Scan реализует интерфейс sql.Scanner для AnswerMap
func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = AnswerMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(data) == 0 {
		*m = AnswerMap{}
		return nil
	}

	result := AnswerMap{}
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Value реализует интерфейс driver.Valuer для AnswerMap
func (m AnswerMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Attempt: завершенная попытка прохождения теста. Создается один раз при отправке и не изменяется.
type Attempt struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TestID         uint       `gorm:"not null;index;uniqueIndex:idx_test_student" json:"test_id"`
	StudentID      uint       `gorm:"not null;index;uniqueIndex:idx_test_student" json:"student_id"`
	Answers        AnswerMap  `gorm:"type:jsonb;not null" json:"answers"`
	CorrectAnswers int        `gorm:"not null;default:0" json:"correct_answers"`
	TotalQuestions int        `gorm:"not null;default:0" json:"total_questions"`
	EarnedPoints   int        `gorm:"not null;default:0" json:"earned_points"`
	TotalPoints    int        `gorm:"not null;default:0" json:"total_points"`
	Score          float64    `gorm:"not null;default:0" json:"score"`
	Percentage     int        `gorm:"not null;default:0" json:"percentage"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`

	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Test    *Test `gorm:"foreignKey:TestID" json:"test,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "test_attempts"
}

// IsCompleted возвращает true, если попытка зафиксирована
func (a *Attempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Duration возвращает время прохождения теста
func (a *Attempt) Duration() time.Duration {
	if a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.Sub(a.StartedAt)
}
