package dto

import (
	"time"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/service/session"
)

// AttemptResponse представляет зафиксированную попытку
type AttemptResponse struct {
	ID             uint             `json:"id"`
	TestID         uint             `json:"test_id"`
	StudentID      uint             `json:"student_id"`
	StudentName    string           `json:"student_name,omitempty"`
	TestTitle      string           `json:"test_title,omitempty"`
	Answers        entity.AnswerMap `json:"answers"`
	CorrectAnswers int              `json:"correct_answers"`
	TotalQuestions int              `json:"total_questions"`
	EarnedPoints   int              `json:"earned_points"`
	TotalPoints    int              `json:"total_points"`
	Score          float64          `json:"score"`
	Percentage     int              `json:"percentage"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	DurationSec    int              `json:"duration_sec"`
}

// NewAttemptResponse создает DTO попытки
func NewAttemptResponse(attempt *entity.Attempt) *AttemptResponse {
	if attempt == nil {
		return nil
	}
	resp := &AttemptResponse{}
	copyFields(resp, attempt, "attempt")
	if attempt.Student != nil {
		resp.StudentName = attempt.Student.FullName
	}
	if attempt.Test != nil {
		resp.TestTitle = attempt.Test.Title
	}
	resp.DurationSec = int(attempt.Duration().Seconds())
	return resp
}

// NewAttemptListResponse создает DTO для списка попыток
func NewAttemptListResponse(attempts []entity.Attempt) []*AttemptResponse {
	out := make([]*AttemptResponse, 0, len(attempts))
	for i := range attempts {
		out = append(out, NewAttemptResponse(&attempts[i]))
	}
	return out
}

// SessionResponse: состояние сессии прохождения теста для клиента
type SessionResponse struct {
	ID               string            `json:"session_id"`
	TestID           uint              `json:"test_id"`
	TestTitle        string            `json:"test_title"`
	State            string            `json:"state"`
	Resumed          bool              `json:"resumed,omitempty"`
	CurrentIndex     int               `json:"current_index"`
	TotalQuestions   int               `json:"total_questions"`
	AnsweredCount    int               `json:"answered_count"`
	RemainingSeconds int               `json:"remaining_seconds"`
	CurrentQuestion  *QuestionResponse `json:"current_question,omitempty"`
	CurrentAnswer    *entity.Response  `json:"current_answer,omitempty"`
	Answers          entity.AnswerMap  `json:"answers"`
	Attempt          *AttemptResponse  `json:"attempt,omitempty"`
}

// NewSessionResponse создает DTO из снимка сессии. Ключи ответов не раскрываются.
func NewSessionResponse(view session.View) *SessionResponse {
	resp := &SessionResponse{
		ID:               view.ID,
		TestID:           view.TestID,
		TestTitle:        view.TestTitle,
		State:            string(view.State),
		CurrentIndex:     view.CurrentIndex,
		TotalQuestions:   view.TotalQuestions,
		AnsweredCount:    view.AnsweredCount,
		RemainingSeconds: view.RemainingSeconds,
		Answers:          view.Answers,
		Attempt:          NewAttemptResponse(view.Attempt),
	}
	if resp.Answers == nil {
		resp.Answers = entity.AnswerMap{}
	}
	if q := view.CurrentQuestion; q != nil {
		qr := NewQuestionResponse(q, false)
		resp.CurrentQuestion = &qr
		if answer, ok := view.Answers[q.ID]; ok {
			a := answer
			resp.CurrentAnswer = &a
		}
	}
	return resp
}
