package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

func singleQuestion(id uint, key string) entity.Question {
	return entity.Question{
		ID: id, Type: entity.QuestionTypeSingle,
		Options: entity.StringArray{"A", "B", "C", "D"},
		Points:  1, Key: entity.SingleKey(key),
	}
}

func multipleQuestion(id uint, key ...string) entity.Question {
	return entity.Question{
		ID: id, Type: entity.QuestionTypeMultiple,
		Options: entity.StringArray{"A", "B", "C", "D"},
		Points:  1, Key: entity.MultipleKey(key...),
	}
}

func TestIsCorrect(t *testing.T) {
	testCases := []struct {
		name     string
		question entity.Question
		response entity.Response
		expected bool
	}{
		{"single: совпадение", singleQuestion(1, "B"), entity.SingleResponse("B"), true},
		{"single: неверный вариант", singleQuestion(1, "B"), entity.SingleResponse("A"), false},
		{"single: пустой ответ", singleQuestion(1, "B"), entity.SingleResponse(""), false},
		{"single: ответ списком", singleQuestion(1, "B"), entity.MultipleResponse("B"), false},
		{"multiple: порядок не важен", multipleQuestion(1, "A", "C"), entity.MultipleResponse("C", "A"), true},
		{"multiple: не хватает варианта", multipleQuestion(1, "A", "C"), entity.MultipleResponse("A"), false},
		{"multiple: лишний вариант", multipleQuestion(1, "A", "C"), entity.MultipleResponse("A", "C", "D"), false},
		{"multiple: дубликаты не засчитываются за другой вариант", multipleQuestion(1, "A", "C"), entity.MultipleResponse("A", "A"), false},
		{"multiple: пустой набор", multipleQuestion(1, "A", "C"), entity.MultipleResponse(), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsCorrect(&tc.question, tc.response))
		})
	}
}

func TestIsCorrect_DegradedKeyNeverMatches(t *testing.T) {
	q := entity.Question{ID: 1, Type: entity.QuestionTypeMultiple, Options: entity.StringArray{"A", "C"}}
	key, err := entity.DecodeAnswerKey(entity.QuestionTypeMultiple, []byte(`"A, C"`))
	assert.Error(t, err)
	q.Key = key

	assert.False(t, IsCorrect(&q, entity.MultipleResponse("A", "C")))
	assert.False(t, IsCorrect(&q, entity.MultipleResponse("A, C")))
}

func TestIsCorrect_NumericSingleKeyFromStorage(t *testing.T) {
	q := entity.Question{ID: 1, Type: entity.QuestionTypeSingle, Options: entity.StringArray{"2", "4", "8"}}
	key, err := entity.DecodeAnswerKey(entity.QuestionTypeSingle, []byte(`4`))
	assert.NoError(t, err)
	q.Key = key

	assert.True(t, IsCorrect(&q, entity.SingleResponse("4")))
	assert.False(t, IsCorrect(&q, entity.SingleResponse("8")))
}

func TestScore_EmptyQuestionList(t *testing.T) {
	res := Score(nil, entity.AnswerMap{1: entity.SingleResponse("A")})

	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, res.Percentage)
}

func TestScore_SevenOfNine(t *testing.T) {
	questions := make([]entity.Question, 0, 9)
	answers := entity.AnswerMap{}
	for i := uint(1); i <= 9; i++ {
		questions = append(questions, singleQuestion(i, "A"))
		if i <= 7 {
			answers[i] = entity.SingleResponse("A")
		} else {
			answers[i] = entity.SingleResponse("B")
		}
	}

	res := Score(questions, answers)

	assert.Equal(t, 7, res.CorrectAnswers)
	assert.Equal(t, 9, res.TotalQuestions)
	assert.Equal(t, 7, res.EarnedPoints)
	assert.Equal(t, 9, res.TotalPoints)
	assert.InDelta(t, 77.777, res.Score, 0.001)
	assert.Equal(t, 78, res.Percentage)
	assert.Equal(t, "7/9 correct, 7/9 points (78%)", res.Summary())
}

func TestScore_WeightedPointsAndUnanswered(t *testing.T) {
	questions := []entity.Question{
		singleQuestion(1, "B"),
		multipleQuestion(2, "A", "C"),
		singleQuestion(3, "D"),
	}
	questions[1].Points = 3
	questions[2].Points = 0 // считается как 1

	res := Score(questions, entity.AnswerMap{
		2: entity.MultipleResponse("C", "A"),
	})

	assert.Equal(t, 1, res.CorrectAnswers)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 3, res.EarnedPoints)
	assert.Equal(t, 5, res.TotalPoints)
	assert.Equal(t, 60, res.Percentage)
}

func TestScore_AllWrong(t *testing.T) {
	res := Score([]entity.Question{singleQuestion(1, "B")}, entity.AnswerMap{1: entity.SingleResponse("A")})

	assert.Equal(t, 0, res.EarnedPoints)
	assert.Equal(t, 1, res.TotalPoints)
	assert.Equal(t, 0, res.Percentage)
}
