package handler

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// пользовательские теги валидации
const (
	notBlankTag   = "notblank"
	regCodeTag    = "regcode"
	optionListTag = "option_list"
	roleTag       = "role"
)

// RegisterValidators регистрирует пользовательские правила в валидаторе Gin
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	// В сообщениях об ошибках используем имена JSON полей
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validators := map[string]validator.Func{
		notBlankTag:   notBlankValidation,
		regCodeTag:    regCodeValidation,
		optionListTag: optionListValidation,
		roleTag:       roleValidation,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// regCodeValidation принимает код из букв и цифр в любом регистре
func regCodeValidation(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	code := entity.NormalizeRegistrationCode(str)
	if len(code) != entity.RegistrationCodeLength {
		return false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// optionListValidation требует не меньше двух непустых вариантов
func optionListValidation(fl validator.FieldLevel) bool {
	options, ok := fl.Field().Interface().([]string)
	if !ok || len(options) < entity.MinOptionsPerQuestion {
		return false
	}
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return false
		}
	}
	return true
}

func roleValidation(fl validator.FieldLevel) bool {
	role, ok := fl.Field().Interface().(string)
	return ok && entity.IsValidRole(role)
}
