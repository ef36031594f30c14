package repository

import (
	"context"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с профилями пользователей
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateRole(ctx context.Context, userID uint, role string) error
	// List возвращает пользователей, новые первыми, и общее количество
	List(ctx context.Context, limit, offset int) ([]entity.User, int64, error)
}
