package session

import (
	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// Tracker хранит ответы студента во время прохождения теста.
// Не потокобезопасен: доступ сериализуется мьютексом сессии.
type Tracker struct {
	answers entity.AnswerMap
}

// NewTracker создает пустой трекер ответов
func NewTracker() *Tracker {
	return &Tracker{answers: make(entity.AnswerMap)}
}

// SetSingle заменяет ответ на вопрос с одним вариантом
func (t *Tracker) SetSingle(questionID uint, option string) {
	t.answers[questionID] = entity.SingleResponse(option)
}

// ToggleMultiple добавляет или убирает вариант из ответа с несколькими вариантами.
// Повторная установка того же состояния ничего не меняет.
func (t *Tracker) ToggleMultiple(questionID uint, option string, selected bool) {
	current, ok := t.answers[questionID]
	if !ok || !current.IsMulti {
		current = entity.MultipleResponse()
	}

	values := make([]string, 0, len(current.Multiple)+1)
	present := false
	for _, v := range current.Multiple {
		if v == option {
			present = true
			if !selected {
				continue
			}
		}
		values = append(values, v)
	}
	if selected && !present {
		values = append(values, option)
	}

	if len(values) == 0 {
		delete(t.answers, questionID)
		return
	}
	t.answers[questionID] = entity.Response{Multiple: values, IsMulti: true}
}

// IsSelected проверяет, выбран ли вариант
func (t *Tracker) IsSelected(questionID uint, option string) bool {
	r, ok := t.answers[questionID]
	return ok && r.Has(option)
}

// HasAnswer возвращает true для непустого ответа
func (t *Tracker) HasAnswer(questionID uint) bool {
	r, ok := t.answers[questionID]
	return ok && !r.IsEmpty()
}

// Response возвращает копию ответа на вопрос
func (t *Tracker) Response(questionID uint) (entity.Response, bool) {
	r, ok := t.answers[questionID]
	if !ok {
		return entity.Response{}, false
	}
	return r.Clone(), true
}

// Snapshot возвращает глубокую копию всех ответов
func (t *Tracker) Snapshot() entity.AnswerMap {
	return t.answers.Clone()
}

// Len возвращает количество вопросов с непустым ответом
func (t *Tracker) Len() int {
	n := 0
	for _, r := range t.answers {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}
