package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/edutest-api/internal/domain/entity"
	apperrors "github.com/yourusername/edutest-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create вставляет попытку одной операцией
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	if err := r.db.WithContext(ctx).Omit("Student", "Test").Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: attempt already recorded for test #%d student #%d",
				apperrors.ErrConflict, attempt.TestID, attempt.StudentID)
		}
		return err
	}
	return nil
}

// GetByID возвращает попытку вместе с тестом
func (r *AttemptRepo) GetByID(ctx context.Context, id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	if err := r.db.WithContext(ctx).Preload("Test").First(&attempt, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// GetByTestAndStudent возвращает попытку студента по тесту
func (r *AttemptRepo) GetByTestAndStudent(ctx context.Context, testID, studentID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&attempt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// ListByStudent возвращает попытки студента, последние первыми
func (r *AttemptRepo) ListByStudent(ctx context.Context, studentID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Where("student_id = ?", studentID).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListByTest возвращает попытки теста с профилями студентов
func (r *AttemptRepo) ListByTest(ctx context.Context, testID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("test_id = ?", testID).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// CountByStudent возвращает количество завершенных тестов студента
func (r *AttemptRepo) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Attempt{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}
