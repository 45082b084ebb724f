package repository

import (
	"context"

	"github.com/Dhoini/storefront-billing/internal/domain"
)

// ProductRepository определяет методы для работы с хранилищем продуктов витрины.
type ProductRepository interface {
	// GetByIdentifier возвращает продукт по его ключу.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Product, error)

	// GetByHostname разрешает домен витрины в продукт.
	GetByHostname(ctx context.Context, hostname string) (*domain.Product, error)
}
