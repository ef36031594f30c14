package repository

import (
	"context"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// QuestionRepository определяет методы для чтения вопросов теста
type QuestionRepository interface {
	// GetByTestID возвращает вопросы теста, отсортированные по order_index
	GetByTestID(ctx context.Context, testID uint) ([]entity.Question, error)
	CountByTestID(ctx context.Context, testID uint) (int64, error)
}
