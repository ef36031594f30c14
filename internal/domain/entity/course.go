package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegistrationCodeLength: длина кода регистрации на курс
const RegistrationCodeLength = 6

// Course представляет курс преподавателя
type Course struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:200;not null" json:"title"`
	Description      string    `gorm:"size:1000;not null;default:''" json:"description"`
	TeacherID        uint      `gorm:"not null;index" json:"teacher_id"`
	RegistrationCode string    `gorm:"size:16;not null;uniqueIndex" json:"registration_code"`
	Tests            []Test    `gorm:"foreignKey:CourseID" json:"tests,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Course) TableName() string {
	return "courses"
}

// IsOwnedBy проверяет, что курс принадлежит преподавателю
func (c *Course) IsOwnedBy(userID uint) bool {
	return c.TeacherID == userID
}

// Enrollment: запись студента на курс
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_course_student;index" json:"student_id"`
	Course     *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Student    *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	EnrolledAt time.Time `gorm:"not null;autoCreateTime" json:"enrolled_at"`
}

// TableName определяет имя таблицы для GORM
func (Enrollment) TableName() string {
	return "course_enrollments"
}

// NewRegistrationCode генерирует код регистрации из шести символов в верхнем регистре
func NewRegistrationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:RegistrationCodeLength])
}

// NormalizeRegistrationCode приводит введенный студентом код к каноническому виду
func NormalizeRegistrationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
