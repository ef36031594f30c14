package service

import "github.com/yourusername/edutest-api/internal/domain/entity"

// Actor: аутентифицированный пользователь, от имени которого выполняется операция
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin возвращает true для администратора
func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// IsTeacher возвращает true для преподавателя
func (a Actor) IsTeacher() bool { return a.Role == entity.RoleTeacher }

// IsStudent возвращает true для студента
func (a Actor) IsStudent() bool { return a.Role == entity.RoleStudent }

// canManageCourse проверяет, что пользователь: владелец курса или администратор
func (a Actor) canManageCourse(course *entity.Course) bool {
	return a.IsAdmin() || (a.IsTeacher() && course.IsOwnedBy(a.ID))
}
