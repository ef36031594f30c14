package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
	"github.com/yourusername/edutest-api/pkg/auth"
)

// MinPasswordLength: минимальная длина пароля
const MinPasswordLength = 6

// AuthService предоставляет методы регистрации и входа
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	return &AuthService{userRepo: userRepo, jwtService: jwtService}, nil
}

// Register создает профиль студента и возвращает токен доступа
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || fullName == "" {
		return nil, "", fmt.Errorf("%w: email and full name are required", apperrors.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, MinPasswordLength)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email %s already registered", apperrors.ErrConflict, email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	user := &entity.User{
		Email:    email,
		Password: in.Password, // хешируется в BeforeSave
		FullName: fullName,
		Role:     entity.RoleStudent,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		log.Error().Err(err).Str("email", email).Msg("[AuthService] Ошибка создания пользователя")
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	log.Info().Uint("userID", user.ID).Msg("[AuthService] Пользователь зарегистрирован")
	return user, token, nil
}

// Login проверяет email и пароль и возвращает токен доступа
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, "", err
	}
	if !user.CheckPassword(password) {
		log.Warn().Uint("userID", user.ID).Msg("[AuthService] Неверный пароль")
		return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetUserByID возвращает профиль пользователя
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
