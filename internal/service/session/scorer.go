package session

import (
	"fmt"
	"math"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// Result: итог подсчета баллов
type Result struct {
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	EarnedPoints   int     `json:"earned_points"`
	TotalPoints    int     `json:"total_points"`
	Score          float64 `json:"score"`
	Percentage     int     `json:"percentage"`
}

// Summary возвращает строку вида "7/9 correct, 7/9 points (78%)"
func (r Result) Summary() string {
	return fmt.Sprintf("%d/%d correct, %d/%d points (%d%%)",
		r.CorrectAnswers, r.TotalQuestions, r.EarnedPoints, r.TotalPoints, r.Percentage)
}

// Score сравнивает ответы с ключами. Вопрос приносит все баллы или ноль.
func Score(questions []entity.Question, answers entity.AnswerMap) Result {
	var res Result
	res.TotalQuestions = len(questions)

	for i := range questions {
		q := &questions[i]
		points := q.PointValue()
		res.TotalPoints += points

		response, ok := answers[q.ID]
		if ok && IsCorrect(q, response) {
			res.CorrectAnswers++
			res.EarnedPoints += points
		}
	}

	if res.TotalPoints > 0 {
		res.Score = float64(res.EarnedPoints) / float64(res.TotalPoints) * 100
	}
	res.Percentage = int(math.Round(res.Score))
	return res
}

// IsCorrect проверяет ответ на один вопрос.
// single_choice: точное совпадение строки. multiple_choice: совпадение множеств.
func IsCorrect(q *entity.Question, response entity.Response) bool {
	key := q.Key
	if key.Degraded || response.IsEmpty() {
		return false
	}

	if !q.IsMultiple() {
		return !response.IsMulti && !key.IsEmpty() && response.Single == key.Single
	}

	selected := make(map[string]struct{})
	for _, v := range response.Values() {
		selected[v] = struct{}{}
	}
	if len(selected) != len(key.Multiple) {
		return false
	}
	for v := range selected {
		if !key.Contains(v) {
			return false
		}
	}
	return true
}
