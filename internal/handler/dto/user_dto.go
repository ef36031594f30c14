package dto

import (
	"time"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// UserResponse: профиль пользователя без пароля
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse возвращается после регистрации и входа
type AuthResponse struct {
	User        *UserResponse `json:"user"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
}

// PaginatedUsersResponse: страница списка пользователей для администратора
type PaginatedUsersResponse struct {
	Users   []*UserResponse `json:"users"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewUserResponse создает DTO профиля
func NewUserResponse(user *entity.User) *UserResponse {
	if user == nil {
		return nil
	}
	resp := &UserResponse{}
	copyFields(resp, user, "user")
	return resp
}

// NewUserListResponse создает DTO для списка пользователей
func NewUserListResponse(users []entity.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// NewAuthResponse создает ответ с токеном доступа
func NewAuthResponse(user *entity.User, token string) *AuthResponse {
	return &AuthResponse{
		User:        NewUserResponse(user),
		AccessToken: token,
		TokenType:   "Bearer",
	}
}
