package entity

import (
	"time"
)

// DefaultTimeLimitMinutes: лимит, который сохраняется при создании теста без явного значения
const DefaultTimeLimitMinutes = 30

// Test представляет тест внутри курса
type Test struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000;not null;default:''" json:"description"`
	TimeLimit   int        `gorm:"not null;default:30" json:"time_limit"` // в минутах
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	Questions   []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// QuestionCount заполняется сервисом, когда вопросы не загружены
	QuestionCount int `gorm:"-" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Test) TableName() string {
	return "tests"
}

// NumQuestions возвращает количество вопросов теста
func (t *Test) NumQuestions() int {
	if len(t.Questions) > 0 {
		return len(t.Questions)
	}
	return t.QuestionCount
}

// HasTimeLimit возвращает true, если у теста задан положительный лимит времени
func (t *Test) HasTimeLimit() bool {
	return t.TimeLimit > 0
}

// TimeLimitSeconds переводит лимит в минутах в целые секунды.
// Для теста без лимита возвращает 0.
func (t *Test) TimeLimitSeconds() int {
	if !t.HasTimeLimit() {
		return 0
	}
	return t.TimeLimit * 60
}
