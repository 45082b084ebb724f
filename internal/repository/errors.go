package repository

import "github.com/Dhoini/storefront-billing/internal/domain"

// Ошибки хранилища. Алиасы доменных sentinel-ошибок: вызывающий код
// сверяется с ними через errors.Is независимо от слоя, вернувшего ошибку.
var (
	// ErrNotFound запись не найдена
	ErrNotFound = domain.ErrNotFound

	// ErrDuplicate дубликат записи
	ErrDuplicate = domain.ErrDuplicate

	// ErrNotClaimed подписку не удалось захватить для списания:
	// ее статус уже изменился (например, параллельным запуском процессора)
	ErrNotClaimed = domain.ErrSubscriptionClaimed
)
