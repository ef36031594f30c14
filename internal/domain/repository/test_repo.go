package repository

import (
	"context"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// TestRepository определяет методы для работы с тестами
type TestRepository interface {
	// Create сохраняет тест вместе с вопросами в одной транзакции
	Create(ctx context.Context, test *entity.Test) error
	GetByID(ctx context.Context, id uint) (*entity.Test, error)
	// Update обновляет тест и полностью заменяет его вопросы в одной транзакции
	Update(ctx context.Context, test *entity.Test) error
	ListByCourse(ctx context.Context, courseID uint) ([]entity.Test, error)
	// CountAvailableForStudent возвращает количество тестов в курсах, на которые записан студент
	CountAvailableForStudent(ctx context.Context, studentID uint) (int64, error)
}
