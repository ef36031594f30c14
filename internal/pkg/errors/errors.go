package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (повторная запись на курс, повторная попытка теста).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки сессии прохождения теста
var (
	// ErrLoadFailed: не удалось загрузить вопросы теста. Сессия не может быть начата.
	ErrLoadFailed = errors.New("failed to load test questions")

	// ErrSubmitFailed: попытка не сохранена. Состояние ответов сохраняется, можно повторить отправку.
	ErrSubmitFailed = errors.New("failed to record attempt")

	// ErrSubmitInProgress: отправка уже выполняется (таймер и ручная отправка одновременно).
	ErrSubmitInProgress = errors.New("submission already in progress")

	// ErrSessionClosed: сессия уже отправлена или прервана.
	ErrSessionClosed = errors.New("session is closed")

	// ErrAnswerRequired: нельзя перейти дальше или отправить тест без ответа на текущий вопрос.
	ErrAnswerRequired = errors.New("answer required for current question")
)
