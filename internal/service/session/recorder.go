package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// CommitInput: данные завершенной попытки
type CommitInput struct {
	TestID    uint
	StudentID uint
	Answers   entity.AnswerMap
	Result    Result
	StartedAt time.Time
}

// Recorder сохраняет завершенную попытку одной вставкой
type Recorder struct {
	attemptRepo repository.AttemptRepository
	clock       Clock
}

// NewRecorder создает рекордер попыток
func NewRecorder(attemptRepo repository.AttemptRepository, clock Clock) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{attemptRepo: attemptRepo, clock: clock}
}

// Commit создает запись попытки. Время завершения берется в момент записи.
// Повторная попытка той же пары возвращает apperrors.ErrConflict,
// остальные ошибки хранилища: apperrors.ErrSubmitFailed.
func (r *Recorder) Commit(ctx context.Context, in CommitInput) (*entity.Attempt, error) {
	completedAt := r.clock()
	answers := in.Answers
	if answers == nil {
		answers = entity.AnswerMap{}
	}

	attempt := &entity.Attempt{
		TestID:         in.TestID,
		StudentID:      in.StudentID,
		Answers:        answers,
		CorrectAnswers: in.Result.CorrectAnswers,
		TotalQuestions: in.Result.TotalQuestions,
		EarnedPoints:   in.Result.EarnedPoints,
		TotalPoints:    in.Result.TotalPoints,
		Score:          in.Result.Score,
		Percentage:     in.Result.Percentage,
		StartedAt:      in.StartedAt,
		CompletedAt:    &completedAt,
	}

	if err := r.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			log.Warn().Uint("testID", in.TestID).Uint("studentID", in.StudentID).Msg("[Recorder] Попытка уже записана")
			return nil, fmt.Errorf("%w: attempt already recorded", apperrors.ErrConflict)
		}
		log.Error().Err(err).Uint("testID", in.TestID).Uint("studentID", in.StudentID).Msg("[Recorder] Ошибка записи попытки")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSubmitFailed, err)
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("testID", in.TestID).Uint("studentID", in.StudentID).
		Int("percentage", attempt.Percentage).Msg("[Recorder] Попытка записана")
	return attempt, nil
}
