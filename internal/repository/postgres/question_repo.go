package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByTestID возвращает вопросы теста в порядке показа
func (r *QuestionRepo) GetByTestID(ctx context.Context, testID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CountByTestID возвращает количество вопросов теста
func (r *QuestionRepo) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}
