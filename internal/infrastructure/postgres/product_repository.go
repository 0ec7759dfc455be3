package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID devuelve el producto o nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, seller_id, sku, name, description, price, count_in_stock,
		       inventory_status, length, width, height, weight, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SellerID, &p.SKU, &p.Name, &p.Description, &p.Price,
		&p.CountInStock, &p.InventoryStatus,
		&p.Dimensions.Length, &p.Dimensions.Width, &p.Dimensions.Height, &p.Dimensions.Weight,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateAggregate persiste el agregado derivado del recálculo de stock.
func (r *ProductRepo) UpdateAggregate(ctx context.Context, productID string, countInStock int, status entity.InventoryStatus) error {
	query := `
		UPDATE products
		SET count_in_stock = $2, inventory_status = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, productID, countInStock, status)
	if err != nil {
		return fmt.Errorf("update product aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update product aggregate: producto %s no existe", productID)
	}
	return nil
}
