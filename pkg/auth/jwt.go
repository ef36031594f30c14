package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// Ошибки проверки токена
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenInvalidated = errors.New("token has been invalidated")
)

const issuer = "edutest-api"

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService предоставляет методы для работы с JWT
type JWTService struct {
	secret        []byte
	expirationHrs int
	// Пользователи, чьи ранее выданные токены недействительны (например, после смены роли)
	invalidatedUsers map[uint]time.Time
	mu               sync.RWMutex
	now              func() time.Time
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secret string, expirationHrs int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secret:           []byte(secret),
		expirationHrs:    expirationHrs,
		invalidatedUsers: make(map[uint]time.Time),
		now:              time.Now,
	}, nil
}

// GenerateToken создает токен доступа с ID, email и ролью пользователя
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.expirationHrs))),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Error().Err(err).Uint("userID", user.ID).Msg("[JWT] Ошибка генерации токена")
		return "", err
	}
	return tokenString, nil
}

// ParseToken проверяет подпись и срок действия токена
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				log.Debug().Uint("userID", claims.UserID).Msg("[JWT] Токен истек")
				return nil, ErrTokenExpired
			}
		}
		log.Debug().Err(err).Msg("[JWT] Ошибка при разборе токена")
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	s.mu.RLock()
	invalidatedAt, exists := s.invalidatedUsers[claims.UserID]
	s.mu.RUnlock()
	if exists && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(invalidatedAt) {
		log.Info().Uint("userID", claims.UserID).Msg("[JWT] Токен инвалидирован")
		return nil, ErrTokenInvalidated
	}
	return claims, nil
}

// InvalidateTokensForUser делает все ранее выданные токены пользователя недействительными
func (s *JWTService) InvalidateTokensForUser(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidatedUsers[userID] = s.now().Truncate(time.Second)
}
