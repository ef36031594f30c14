package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

type courseServiceMocks struct {
	courses     *MockCourseRepository
	enrollments *MockEnrollmentRepository
	users       *MockUserRepository
	tests       *MockTestRepository
}

func newCourseService() (*CourseService, courseServiceMocks) {
	m := courseServiceMocks{
		courses:     new(MockCourseRepository),
		enrollments: new(MockEnrollmentRepository),
		users:       new(MockUserRepository),
		tests:       new(MockTestRepository),
	}
	return NewCourseService(m.courses, m.enrollments, m.users, m.tests), m
}

func TestCourseService_CreateCourse_RetriesTakenCode(t *testing.T) {
	ctx := context.Background()
	svc, m := newCourseService()

	codes := []string{"TAKEN1", "FREE22"}
	svc.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	m.courses.On("Create", ctx, mock.MatchedBy(func(c *entity.Course) bool {
		return c.RegistrationCode == "TAKEN1"
	})).Return(apperrors.ErrConflict).Once()
	m.courses.On("Create", ctx, mock.MatchedBy(func(c *entity.Course) bool {
		return c.RegistrationCode == "FREE22"
	})).Return(nil).Once()

	course, err := svc.CreateCourse(ctx, teacherActor, "  Физика ", "")

	require.NoError(t, err)
	assert.Equal(t, "Физика", course.Title)
	assert.Equal(t, "FREE22", course.RegistrationCode)
	assert.Equal(t, teacherActor.ID, course.TeacherID)
	m.courses.AssertExpectations(t)
}

func TestCourseService_CreateCourse_Rejected(t *testing.T) {
	svc, _ := newCourseService()

	_, err := svc.CreateCourse(context.Background(), studentActor, "Физика", "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.CreateCourse(context.Background(), teacherActor, "   ", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCourseService_ListCourses_ByRole(t *testing.T) {
	ctx := context.Background()
	svc, m := newCourseService()
	m.courses.On("List", ctx).Return([]entity.Course{{ID: 1}, {ID: 2}}, nil)
	m.courses.On("ListByTeacher", ctx, teacherActor.ID).Return([]entity.Course{{ID: 1}}, nil)
	m.courses.On("ListByStudent", ctx, studentActor.ID).Return([]entity.Course{}, nil)

	all, err := svc.ListCourses(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListCourses(ctx, teacherActor)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	enrolled, err := svc.ListCourses(ctx, studentActor)
	require.NoError(t, err)
	assert.Empty(t, enrolled)
}

func TestCourseService_EnrollByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Код без учета регистра", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByRegistrationCode", ctx, "ABC123").Return(ownedCourse(), nil)
		m.enrollments.On("Create", ctx, &entity.Enrollment{CourseID: 5, StudentID: studentActor.ID}).Return(nil)

		course, err := svc.EnrollByCode(ctx, studentActor, " abc123 ")

		require.NoError(t, err)
		assert.Equal(t, uint(5), course.ID)
		m.enrollments.AssertExpectations(t)
	})

	t.Run("Неизвестный код", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByRegistrationCode", ctx, "NOPE00").Return(nil, apperrors.ErrNotFound)

		_, err := svc.EnrollByCode(ctx, studentActor, "nope00")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Повторная запись", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByRegistrationCode", ctx, "ABC123").Return(ownedCourse(), nil)
		m.enrollments.On("Create", ctx, mock.Anything).Return(apperrors.ErrConflict)

		_, err := svc.EnrollByCode(ctx, studentActor, "ABC123")

		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Преподаватель не может записаться", func(t *testing.T) {
		svc, _ := newCourseService()

		_, err := svc.EnrollByCode(ctx, teacherActor, "ABC123")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestCourseService_EnrollByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Успешно", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByID", ctx, uint(5)).Return(ownedCourse(), nil)
		m.users.On("GetByEmail", ctx, "student@example.com").Return(&entity.User{ID: 3, Role: entity.RoleStudent}, nil)
		m.enrollments.On("Create", ctx, &entity.Enrollment{CourseID: 5, StudentID: 3}).Return(nil)

		student, err := svc.EnrollByEmail(ctx, teacherActor, 5, "Student@Example.com")

		require.NoError(t, err)
		assert.Equal(t, uint(3), student.ID)
	})

	t.Run("Чужой курс", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByID", ctx, uint(5)).Return(ownedCourse(), nil)

		_, err := svc.EnrollByEmail(ctx, Actor{ID: 99, Role: entity.RoleTeacher}, 5, "student@example.com")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Пользователь не студент", func(t *testing.T) {
		svc, m := newCourseService()
		m.courses.On("GetByID", ctx, uint(5)).Return(ownedCourse(), nil)
		m.users.On("GetByEmail", ctx, "t@example.com").Return(&entity.User{ID: 4, Role: entity.RoleTeacher}, nil)

		_, err := svc.EnrollByEmail(ctx, teacherActor, 5, "t@example.com")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestCourseService_ListTests_RequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	svc, m := newCourseService()
	m.courses.On("GetByID", ctx, uint(5)).Return(ownedCourse(), nil)
	m.enrollments.On("IsEnrolled", ctx, uint(5), studentActor.ID).Return(false, nil).Once()

	_, err := svc.ListTests(ctx, studentActor, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	m.enrollments.On("IsEnrolled", ctx, uint(5), studentActor.ID).Return(true, nil).Once()
	m.tests.On("ListByCourse", ctx, uint(5)).Return([]entity.Test{{ID: 10}}, nil)

	tests, err := svc.ListTests(ctx, studentActor, 5)
	require.NoError(t, err)
	assert.Len(t, tests, 1)
}
