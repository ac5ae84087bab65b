package domain

import "errors"

// Таксономия ошибок ядра. Хендлеры маппят их в HTTP-коды через errors.Is:
// ErrValidation -> 400, ErrConflict -> 409, ErrNotFound -> 404, ErrStorage -> 500.
var (
	// ErrValidation — некорректная форма или содержимое входных данных.
	ErrValidation = errors.New("validation error")

	// ErrConflict — нарушение уникальности (дубликат content_hash).
	ErrConflict = errors.New("conflict: record already exists")

	// ErrNotFound — промах по ключу.
	ErrNotFound = errors.New("not found")

	// ErrStorage — хранилище недоступно или отказало.
	ErrStorage = errors.New("storage error")
)
