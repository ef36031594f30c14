package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// QuestionCache сбрасывает закешированные вопросы теста после изменения
type QuestionCache interface {
	Invalidate(ctx context.Context, testID uint)
}

// QuestionInput: вопрос в составе создаваемого или обновляемого теста
type QuestionInput struct {
	Text          string
	Type          string
	Options       []string
	CorrectAnswer entity.Response
	Points        int
}

// TestInput: данные теста от преподавателя
type TestInput struct {
	Title       string
	Description string
	TimeLimit   int // в минутах
	Questions   []QuestionInput
}

// TestService управляет созданием и редактированием тестов
type TestService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	questionCache  QuestionCache
}

// NewTestService создает сервис тестов. questionCache может быть nil.
func NewTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	questionCache QuestionCache,
) *TestService {
	return &TestService{
		testRepo:       testRepo,
		questionRepo:   questionRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		questionCache:  questionCache,
	}
}

// CreateTest создает тест в курсе преподавателя
func (s *TestService) CreateTest(ctx context.Context, actor Actor, courseID uint, input TestInput) (*entity.Test, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}

	test := &entity.Test{CourseID: courseID, CreatedBy: actor.ID}
	if err := applyTestInput(test, input); err != nil {
		return nil, err
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, err
	}
	log.Info().Uint("testID", test.ID).Uint("courseID", courseID).Int("questions", len(test.Questions)).Msg("[TestService] Тест создан")
	return test, nil
}

// UpdateTest обновляет тест и полностью заменяет его вопросы
func (s *TestService) UpdateTest(ctx context.Context, actor Actor, testID uint, input TestInput) (*entity.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, test.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}

	if err := applyTestInput(test, input); err != nil {
		return nil, err
	}
	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, err
	}
	if s.questionCache != nil {
		s.questionCache.Invalidate(ctx, test.ID)
	}
	log.Info().Uint("testID", test.ID).Int("questions", len(test.Questions)).Msg("[TestService] Тест обновлен")
	return test, nil
}

// GetTest возвращает тест. Ключи ответов видны только преподавателю курса.
func (s *TestService) GetTest(ctx context.Context, actor Actor, testID uint) (*entity.Test, bool, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, false, err
	}
	course, err := s.courseRepo.GetByID(ctx, test.CourseID)
	if err != nil {
		return nil, false, err
	}
	if actor.canManageCourse(course) {
		questions, err := s.questionRepo.GetByTestID(ctx, testID)
		if err != nil {
			return nil, false, fmt.Errorf("load questions: %w", err)
		}
		test.Questions = questions
		return test, true, nil
	}
	if actor.IsStudent() {
		enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, course.ID, actor.ID)
		if err != nil {
			return nil, false, err
		}
		if enrolled {
			// Студент видит только количество вопросов
			count, err := s.questionRepo.CountByTestID(ctx, testID)
			if err != nil {
				return nil, false, fmt.Errorf("count questions: %w", err)
			}
			test.QuestionCount = int(count)
			return test, false, nil
		}
	}
	return nil, false, fmt.Errorf("%w: no access to test #%d", apperrors.ErrForbidden, testID)
}

// RemoveQuestionOption удаляет вариант ответа у вопроса и убирает его из ключа.
// Изменение отклоняется, если у вопроса не остается правильного ответа.
func (s *TestService) RemoveQuestionOption(ctx context.Context, actor Actor, testID, questionID uint, index int) (*entity.Test, error) {
	test, err := s.CanManageTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.GetByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	test.Questions = questions

	var question *entity.Question
	for i := range test.Questions {
		if test.Questions[i].ID == questionID {
			question = &test.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question #%d not found in test #%d", apperrors.ErrNotFound, questionID, testID)
	}

	key, err := entity.DecodeAnswerKey(question.Type, question.CorrectAnswer)
	if err != nil {
		return nil, fmt.Errorf("%w: question #%d has a malformed answer key, replace the question instead: %v", apperrors.ErrValidation, questionID, err)
	}
	question.Key = key
	if err := question.RemoveOption(index); err != nil {
		return nil, err
	}
	if question.Key.IsEmpty() {
		return nil, fmt.Errorf("%w: removing option %d leaves question #%d without a correct answer", apperrors.ErrValidation, index, questionID)
	}
	encoded, err := question.Key.Encode()
	if err != nil {
		return nil, err
	}
	question.CorrectAnswer = encoded

	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, err
	}
	if s.questionCache != nil {
		s.questionCache.Invalidate(ctx, test.ID)
	}
	log.Info().Uint("testID", test.ID).Uint("questionID", questionID).Int("option", index).Msg("[TestService] Вариант ответа удален")
	return test, nil
}

// CanManageTest проверяет, что пользователь может смотреть результаты теста
func (s *TestService) CanManageTest(ctx context.Context, actor Actor, testID uint) (*entity.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, test.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, fmt.Errorf("%w: not the course teacher", apperrors.ErrForbidden)
	}
	return test, nil
}

func applyTestInput(test *entity.Test, input TestInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("%w: test title is required", apperrors.ErrValidation)
	}
	if input.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must be positive", apperrors.ErrValidation)
	}
	if len(input.Questions) == 0 {
		return fmt.Errorf("%w: test must contain at least one question", apperrors.ErrValidation)
	}

	questions := make([]entity.Question, 0, len(input.Questions))
	for i, qi := range input.Questions {
		question, err := buildQuestion(qi)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		question.OrderIndex = i
		questions = append(questions, *question)
	}

	test.Title = title
	test.Description = strings.TrimSpace(input.Description)
	test.TimeLimit = input.TimeLimit
	if test.TimeLimit == 0 {
		test.TimeLimit = entity.DefaultTimeLimitMinutes
	}
	test.Questions = questions
	return nil
}

// buildQuestion проверяет вопрос и кодирует ключ ответа в каноническом виде
func buildQuestion(input QuestionInput) (*entity.Question, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}

	qType := input.Type
	if qType == "" {
		qType = entity.QuestionTypeSingle
	}
	if !entity.IsValidQuestionType(qType) {
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, qType)
	}

	if len(input.Options) < entity.MinOptionsPerQuestion {
		return nil, entity.ErrTooFewOptions
	}
	options := make(entity.StringArray, 0, len(input.Options))
	for _, o := range input.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, fmt.Errorf("%w: options must not be empty", apperrors.ErrValidation)
		}
		options = append(options, o)
	}

	points := input.Points
	if points == 0 {
		points = entity.DefaultQuestionPoints
	}
	if points < 0 {
		return nil, fmt.Errorf("%w: points must be positive", apperrors.ErrValidation)
	}

	question := &entity.Question{
		Text:    text,
		Type:    qType,
		Options: options,
		Points:  points,
	}

	var key entity.AnswerKey
	if qType == entity.QuestionTypeMultiple {
		values := input.CorrectAnswer.Values()
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: at least one correct option is required", apperrors.ErrValidation)
		}
		key = entity.MultipleKey(trimAll(values)...)
	} else {
		values := input.CorrectAnswer.Values()
		if len(values) != 1 {
			return nil, fmt.Errorf("%w: exactly one correct option is required", apperrors.ErrValidation)
		}
		key = entity.SingleKey(strings.TrimSpace(values[0]))
	}
	for _, v := range key.Values() {
		if !question.HasOption(v) {
			return nil, fmt.Errorf("%w: correct answer %q is not among options", apperrors.ErrValidation, v)
		}
	}

	encoded, err := key.Encode()
	if err != nil {
		return nil, err
	}
	question.Key = key
	question.CorrectAnswer = encoded
	return question, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
