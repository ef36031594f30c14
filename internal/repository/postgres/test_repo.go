package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// TestRepo реализует repository.TestRepository
type TestRepo struct {
	db *gorm.DB
}

// NewTestRepo создает новый репозиторий тестов
func NewTestRepo(db *gorm.DB) *TestRepo {
	return &TestRepo{db: db}
}

// Create сохраняет тест и его вопросы в одной транзакции
func (r *TestRepo) Create(ctx context.Context, test *entity.Test) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(test).Error; err != nil {
			return err
		}
		return insertQuestions(tx, test)
	})
}

// GetByID возвращает тест без вопросов
func (r *TestRepo) GetByID(ctx context.Context, id uint) (*entity.Test, error) {
	var test entity.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &test, nil
}

// Update обновляет поля теста, удаляет старые вопросы и вставляет новые
func (r *TestRepo) Update(ctx context.Context, test *entity.Test) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Test{}).Where("id = ?", test.ID).Updates(map[string]interface{}{
			"title":       test.Title,
			"description": test.Description,
			"time_limit":  test.TimeLimit,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		if err := tx.Where("test_id = ?", test.ID).Delete(&entity.Question{}).Error; err != nil {
			return err
		}
		return insertQuestions(tx, test)
	})
}

// ListByCourse возвращает тесты курса
func (r *TestRepo) ListByCourse(ctx context.Context, courseID uint) ([]entity.Test, error) {
	var tests []entity.Test
	err := r.db.WithContext(ctx).Where("course_id = ?", courseID).Order("created_at DESC").Find(&tests).Error
	return tests, err
}

// CountAvailableForStudent возвращает количество тестов в курсах студента
func (r *TestRepo) CountAvailableForStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Test{}).
		Joins("JOIN course_enrollments ce ON ce.course_id = tests.course_id").
		Where("ce.student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func insertQuestions(tx *gorm.DB, test *entity.Test) error {
	if len(test.Questions) == 0 {
		return nil
	}
	for i := range test.Questions {
		test.Questions[i].ID = 0
		test.Questions[i].TestID = test.ID
		test.Questions[i].OrderIndex = i
	}
	return tx.Create(&test.Questions).Error
}
