package repository

import (
	"context"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
)

// WarehouseStockRepository puerto de persistencia de los registros de stock
// por bodega. Las mutaciones ocurren solo dentro de la transacción del
// coordinador (variante ForUpdate); nunca de forma optimista.
type WarehouseStockRepository interface {
	// ListByProduct devuelve todos los registros de stock de un producto.
	ListByProduct(ctx context.Context, productID string) ([]*entity.WarehouseStockRecord, error)

	// ListByProductForUpdate devuelve los registros bloqueando las filas
	// (SELECT ... FOR UPDATE) para serializar mutaciones por producto.
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.WarehouseStockRecord, error)

	// Upsert inserta o actualiza el registro único por (product_id, warehouse_id).
	Upsert(ctx context.Context, record *entity.WarehouseStockRecord) error
}
