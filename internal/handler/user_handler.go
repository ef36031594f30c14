package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/handler/dto"
	"github.com/yourusername/edutest-api/internal/service"
)

// UserAdminUseCase: операции администрирования пользователей
type UserAdminUseCase interface {
	ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, int64, error)
	ChangeRole(ctx context.Context, actor service.Actor, userID uint, role string) (*entity.User, error)
}

// UserHandler обрабатывает административные запросы по пользователям
type UserHandler struct {
	userService UserAdminUseCase
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService UserAdminUseCase) *UserHandler {
	return &UserHandler{userService: userService}
}

// ChangeRoleRequest: новая роль пользователя
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// ListUsers возвращает пользователей постранично, новые первыми
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedUsersResponse{
		Users:   dto.NewUserListResponse(users),
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	})
}

// ChangeRole меняет роль пользователя
func (h *UserHandler) ChangeRole(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), actorFromContext(c), userID, req.Role)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
