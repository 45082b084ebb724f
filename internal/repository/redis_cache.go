package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префиксы ключей для различных типов данных
	productKeyPrefix  = "product:"
	hostnameKeyPrefix = "hostname:"

	// TTL для кэша продуктов
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование с использованием Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheProduct кеширует продукт в Redis
func (r *RedisCacheRepository) CacheProduct(ctx context.Context, product *domain.Product) error {
	key := productKeyPrefix + product.Identifier

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}

	r.log.Debugw("Product cached", "identifier", product.Identifier)
	return nil
}

// GetCachedProduct получает продукт из кеша.
// Отсутствие ключа не является ошибкой: возвращается (nil, nil).
func (r *RedisCacheRepository) GetCachedProduct(ctx context.Context, identifier string) (*domain.Product, error) {
	key := productKeyPrefix + identifier

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product from cache: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached product: %w", err)
	}

	return &product, nil
}

// CacheHostname кеширует разрешение домена в идентификатор продукта
func (r *RedisCacheRepository) CacheHostname(ctx context.Context, hostname, identifier string) error {
	key := hostnameKeyPrefix + hostname

	if err := r.client.Set(ctx, key, identifier, defaultCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache hostname mapping: %w", err)
	}

	return nil
}

// GetCachedHostname получает идентификатор продукта для домена из кеша
func (r *RedisCacheRepository) GetCachedHostname(ctx context.Context, hostname string) (string, error) {
	key := hostnameKeyPrefix + hostname

	identifier, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get hostname mapping from cache: %w", err)
	}

	return identifier, nil
}
