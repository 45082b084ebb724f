package repository

import (
	"context"
	"strings"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
)

// CachedProductRepository реализует ProductRepository с кешированием через Redis.
// Ошибки кеша не прерывают запрос: при любой проблеме с Redis чтение
// уходит в основное хранилище.
type CachedProductRepository struct {
	repo  ProductRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedProductRepository создает новый репозиторий продуктов с кешированием
func NewCachedProductRepository(repo ProductRepository, cache *RedisCacheRepository, log *logger.Logger) ProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByIdentifier возвращает продукт (сначала из кеша, потом из БД)
func (r *CachedProductRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Product, error) {
	cached, err := r.cache.GetCachedProduct(ctx, identifier)
	if err != nil {
		r.log.Warnw("Error getting product from cache", "error", err, "identifier", identifier)
	}
	if cached != nil {
		return cached, nil
	}

	product, err := r.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheProduct(ctx, product); err != nil {
		r.log.Warnw("Failed to cache product", "error", err, "identifier", identifier)
	}

	return product, nil
}

// GetByHostname разрешает домен витрины в продукт (сначала из кеша, потом из БД)
func (r *CachedProductRepository) GetByHostname(ctx context.Context, hostname string) (*domain.Product, error) {
	hostname = strings.ToLower(hostname)

	identifier, err := r.cache.GetCachedHostname(ctx, hostname)
	if err != nil {
		r.log.Warnw("Error getting hostname mapping from cache", "error", err, "hostname", hostname)
	}
	if identifier != "" {
		return r.GetByIdentifier(ctx, identifier)
	}

	product, err := r.repo.GetByHostname(ctx, hostname)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheHostname(ctx, hostname, product.Identifier); err != nil {
		r.log.Warnw("Failed to cache hostname mapping", "error", err, "hostname", hostname)
	}
	if err := r.cache.CacheProduct(ctx, product); err != nil {
		r.log.Warnw("Failed to cache product", "error", err, "identifier", product.Identifier)
	}

	return product, nil
}
