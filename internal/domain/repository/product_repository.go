package repository

import (
	"context"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
)

// ProductRepository puerto de lectura/escritura de productos. El motor solo
// toca el agregado de stock; el CRUD de catálogo vive fuera.
type ProductRepository interface {
	// GetByID devuelve el producto o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)

	// UpdateAggregate persiste el agregado derivado (countInStock + status).
	// Se invoca únicamente con el resultado del recálculo, dentro de la
	// transacción que también persiste los registros de stock.
	UpdateAggregate(ctx context.Context, productID string, countInStock int, status entity.InventoryStatus) error
}
