package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
)

// InMemoryProductRepository реализация репозитория продуктов в памяти
type InMemoryProductRepository struct {
	products   map[string]domain.Product
	byHostname map[string]string
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewInMemoryProductRepository создает новый репозиторий продуктов в памяти
func NewInMemoryProductRepository(log *logger.Logger) *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products:   make(map[string]domain.Product),
		byHostname: make(map[string]string),
		log:        log,
	}
}

// Put добавляет или обновляет продукт вместе с привязками доменов
func (r *InMemoryProductRepository) Put(ctx context.Context, product domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	r.products[product.Identifier] = product
	for _, hostname := range product.Hostnames {
		r.byHostname[strings.ToLower(hostname)] = product.Identifier
	}

	return nil
}

// GetByIdentifier возвращает продукт по его ключу
func (r *InMemoryProductRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	product, exists := r.products[identifier]
	if !exists {
		return nil, domain.NewNotFoundError("product", identifier)
	}

	return &product, nil
}

// GetByHostname разрешает домен витрины в продукт
func (r *InMemoryProductRepository) GetByHostname(ctx context.Context, hostname string) (*domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identifier, exists := r.byHostname[strings.ToLower(hostname)]
	if !exists {
		return nil, domain.NewNotFoundError("product", hostname)
	}

	product := r.products[identifier]
	return &product, nil
}
