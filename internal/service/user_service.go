package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// TokenInvalidator делает недействительными ранее выданные токены пользователя
type TokenInvalidator interface {
	InvalidateTokensForUser(userID uint)
}

// UserService предоставляет методы администрирования пользователей
type UserService struct {
	userRepo    repository.UserRepository
	invalidator TokenInvalidator
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, invalidator TokenInvalidator) *UserService {
	return &UserService{userRepo: userRepo, invalidator: invalidator}
}

// ListUsers возвращает пользователей постранично, новые первыми
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	users, total, err := s.userRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		log.Error().Err(err).Msg("[UserService] Ошибка при получении списка пользователей")
		return nil, 0, err
	}
	return users, total, nil
}

// ChangeRole меняет роль пользователя. Администратор не может снять роль с самого себя.
func (s *UserService) ChangeRole(ctx context.Context, actor Actor, userID uint, role string) (*entity.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can change roles", apperrors.ErrForbidden)
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}
	if actor.ID == userID && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot demote yourself", apperrors.ErrValidation)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateTokensForUser(userID)
	}
	log.Info().Uint("adminID", actor.ID).Uint("userID", userID).Str("role", role).Msg("[UserService] Роль пользователя изменена")
	return s.userRepo.GetByID(ctx, userID)
}
