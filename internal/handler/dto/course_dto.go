package dto

import (
	"time"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// CourseResponse представляет курс. Код регистрации виден только преподавателю курса.
type CourseResponse struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	TeacherID        uint      `json:"teacher_id"`
	RegistrationCode string    `json:"registration_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewCourseResponse создает DTO курса
func NewCourseResponse(course *entity.Course, includeCode bool) *CourseResponse {
	resp := &CourseResponse{}
	copyFields(resp, course, "course")
	if !includeCode {
		resp.RegistrationCode = ""
	}
	return resp
}

// NewCourseListResponse создает DTO для списка курсов
func NewCourseListResponse(courses []entity.Course, viewerID uint, isAdmin bool) []*CourseResponse {
	out := make([]*CourseResponse, 0, len(courses))
	for i := range courses {
		c := &courses[i]
		out = append(out, NewCourseResponse(c, isAdmin || c.IsOwnedBy(viewerID)))
	}
	return out
}
