package dto

import (
	"time"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// QuestionResponse представляет вопрос. CorrectAnswer заполняется только для преподавателя.
type QuestionResponse struct {
	ID            uint             `json:"id"`
	OrderIndex    int              `json:"order_index"`
	Text          string           `json:"question_text"`
	Type          string           `json:"type"`
	Options       []string         `json:"options"`
	Points        int              `json:"points"`
	CorrectAnswer *entity.Response `json:"correct_answer,omitempty"`
}

// TestResponse представляет тест курса
type TestResponse struct {
	ID            uint               `json:"id"`
	CourseID      uint               `json:"course_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	TimeLimit     int                `json:"time_limit"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *entity.Question, includeKey bool) QuestionResponse {
	options := make([]string, len(q.Options))
	copy(options, q.Options)

	resp := QuestionResponse{
		ID:         q.ID,
		OrderIndex: q.OrderIndex,
		Text:       q.Text,
		Type:       q.Type,
		Options:    options,
		Points:     q.PointValue(),
	}
	if includeKey {
		resp.CorrectAnswer = keyToResponse(q)
	}
	return resp
}

// keyToResponse возвращает ключ вопроса в том же формате, что и ответ студента
func keyToResponse(q *entity.Question) *entity.Response {
	key := q.Key
	if key.Kind == "" && len(q.CorrectAnswer) > 0 {
		key, _ = entity.DecodeAnswerKey(q.Type, q.CorrectAnswer)
	}
	if key.Degraded {
		return nil
	}
	var r entity.Response
	if key.IsMultiple() {
		r = entity.MultipleResponse(key.Multiple...)
	} else {
		r = entity.SingleResponse(key.Single)
	}
	return &r
}

// NewTestResponse создает DTO теста
func NewTestResponse(test *entity.Test, includeQuestions, includeKeys bool) *TestResponse {
	resp := &TestResponse{
		ID:            test.ID,
		CourseID:      test.CourseID,
		Title:         test.Title,
		Description:   test.Description,
		TimeLimit:     test.TimeLimit,
		QuestionCount: test.NumQuestions(),
		CreatedAt:     test.CreatedAt,
		UpdatedAt:     test.UpdatedAt,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(test.Questions))
		for i := range test.Questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&test.Questions[i], includeKeys))
		}
	}
	return resp
}

// NewTestListResponse создает DTO для списка тестов без вопросов
func NewTestListResponse(tests []entity.Test) []*TestResponse {
	out := make([]*TestResponse, 0, len(tests))
	for i := range tests {
		out = append(out, NewTestResponse(&tests[i], false, false))
	}
	return out
}
