package dto

import (
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

// copyFields переносит совпадающие поля из src в dst.
// Ошибка копирования не прерывает ответ: незаполненные поля остаются нулевыми.
func copyFields(dst, src interface{}, kind string) bool {
	if err := copier.Copy(dst, src); err != nil {
		log.Error().Err(err).Str("dto", kind).Msg("[DTO] Ошибка копирования полей")
		return false
	}
	return true
}
