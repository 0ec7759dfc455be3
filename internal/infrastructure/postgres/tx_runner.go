package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/stock"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con los
// repositorios atados a la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con repos de stock y producto, y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.WarehouseStockRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewWarehouseStockRepository(tx), NewProductRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ fulfillment.TxRunner = (*FulfillmentTxRunner)(nil)

// FulfillmentTxRunner variante del runner para el despacho: añade el
// repositorio de pedidos a la transacción.
type FulfillmentTxRunner struct {
	pool *pgxpool.Pool
}

// NewFulfillmentTxRunner construye el runner de despacho.
func NewFulfillmentTxRunner(pool *pgxpool.Pool) *FulfillmentTxRunner {
	return &FulfillmentTxRunner{pool: pool}
}

// Run inicia una transacción con repos de stock, producto y pedido.
func (r *FulfillmentTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.WarehouseStockRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewWarehouseStockRepository(tx), NewProductRepository(tx), NewOrderRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
