package stock

import (
	"context"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

// TxRunner ejecuta el callback dentro de una transacción con repositorios
// atados a ella. El coordinador bloquea las filas de stock del producto antes
// de mutar: la transacción serializa las escrituras concurrentes.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.WarehouseStockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// ViewInvalidator invalida las vistas de producto cacheadas tras confirmar un
// cambio de stock. Best-effort: un fallo aquí no revierte la escritura.
type ViewInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string)
}
