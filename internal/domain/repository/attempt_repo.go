package repository

import (
	"context"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками прохождения тестов
type AttemptRepository interface {
	// Create вставляет попытку один раз. Повторная попытка по той же паре (тест, студент)
	// возвращает apperrors.ErrConflict.
	Create(ctx context.Context, attempt *entity.Attempt) error
	GetByID(ctx context.Context, id uint) (*entity.Attempt, error)
	GetByTestAndStudent(ctx context.Context, testID, studentID uint) (*entity.Attempt, error)
	ListByStudent(ctx context.Context, studentID uint) ([]entity.Attempt, error)
	// ListByTest возвращает попытки теста вместе с профилями студентов
	ListByTest(ctx context.Context, testID uint) ([]entity.Attempt, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
}
