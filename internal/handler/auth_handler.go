package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/handler/dto"
	"github.com/yourusername/edutest-api/internal/service"
)

// AuthUseCase: операции регистрации и входа
type AuthUseCase interface {
	Register(ctx context.Context, in service.RegisterInput) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	GetUserByID(ctx context.Context, userID uint) (*entity.User, error)
}

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	authService AuthUseCase
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService AuthUseCase) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"full_name" binding:"required,notblank,max=200"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register создает профиль студента
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAuthResponse(user, token))
}

// Login выполняет вход по email и паролю
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthResponse(user, token))
}

// Me возвращает профиль текущего пользователя
func (h *AuthHandler) Me(c *gin.Context) {
	actor := actorFromContext(c)
	user, err := h.authService.GetUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
