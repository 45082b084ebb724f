package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProductRepository реализация репозитория продуктов через PostgreSQL
type PostgresProductRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresProductRepository создает новый репозиторий продуктов через PostgreSQL
func NewPostgresProductRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:  db,
		log: log,
	}
}

const productColumns = `
	identifier, name, description, amount_cents, currency,
	interval_days, hostnames, active, created_at, updated_at
`

// scanProduct читает одну строку результата в domain.Product
func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	var description *string

	err := row.Scan(
		&product.Identifier,
		&product.Name,
		&description,
		&product.AmountCents,
		&product.Currency,
		&product.IntervalDays,
		&product.Hostnames,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		product.Description = *description
	}

	return &product, nil
}

// GetByIdentifier возвращает продукт по его ключу
func (r *PostgresProductRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE identifier = $1 AND active`

	product, err := scanProduct(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("product", identifier)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// GetByHostname разрешает домен витрины в продукт
func (r *PostgresProductRepository) GetByHostname(ctx context.Context, hostname string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE $1 = ANY(hostnames) AND active`

	product, err := scanProduct(r.db.QueryRow(ctx, query, strings.ToLower(hostname)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("product", hostname)
		}
		return nil, fmt.Errorf("failed to resolve hostname to product: %w", err)
	}

	return product, nil
}
