package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

var _ repository.WarehouseStockRepository = (*WarehouseStockRepo)(nil)

// WarehouseStockRepo implementación de WarehouseStockRepository sobre
// PostgreSQL (usable con pool o tx).
type WarehouseStockRepo struct {
	q Querier
}

// NewWarehouseStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWarehouseStockRepository(q Querier) *WarehouseStockRepo {
	return &WarehouseStockRepo{q: q}
}

const stockColumns = `
	id, product_id, warehouse_id, provider, sku, quantity, location,
	minimum_stock, reorder_point, variants, last_updated, updated_by`

// ListByProduct devuelve todos los registros de stock del producto.
func (r *WarehouseStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.WarehouseStockRecord, error) {
	query := `
		SELECT` + stockColumns + `
		FROM warehouse_stock WHERE product_id = $1
		ORDER BY warehouse_id`
	return r.list(ctx, query, productID)
}

// ListByProductForUpdate devuelve los registros bloqueando las filas para
// serializar las mutaciones concurrentes sobre el mismo producto.
func (r *WarehouseStockRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.WarehouseStockRecord, error) {
	query := `
		SELECT` + stockColumns + `
		FROM warehouse_stock WHERE product_id = $1
		ORDER BY warehouse_id
		FOR UPDATE`
	return r.list(ctx, query, productID)
}

func (r *WarehouseStockRepo) list(ctx context.Context, query, productID string) ([]*entity.WarehouseStockRecord, error) {
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list warehouse stock: %w", err)
	}
	defer rows.Close()

	var records []*entity.WarehouseStockRecord
	for rows.Next() {
		var rec entity.WarehouseStockRecord
		var variants []byte
		err := rows.Scan(
			&rec.ID, &rec.ProductID, &rec.WarehouseID, &rec.Provider, &rec.SKU,
			&rec.Quantity, &rec.Location, &rec.MinimumStock, &rec.ReorderPoint,
			&variants, &rec.LastUpdated, &rec.UpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse stock: %w", err)
		}
		if len(variants) > 0 {
			if err := json.Unmarshal(variants, &rec.Variants); err != nil {
				return nil, fmt.Errorf("deserializar variantes de %s: %w", rec.ID, err)
			}
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar warehouse stock: %w", err)
	}
	return records, nil
}

// Upsert inserta o actualiza el registro único por (product_id, warehouse_id).
func (r *WarehouseStockRepo) Upsert(ctx context.Context, record *entity.WarehouseStockRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	variants, err := json.Marshal(record.Variants)
	if err != nil {
		return fmt.Errorf("serializar variantes: %w", err)
	}

	query := `
		INSERT INTO warehouse_stock (
			id, product_id, warehouse_id, provider, sku, quantity, location,
			minimum_stock, reorder_point, variants, last_updated, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), $11)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			sku = EXCLUDED.sku,
			location = EXCLUDED.location,
			minimum_stock = EXCLUDED.minimum_stock,
			reorder_point = EXCLUDED.reorder_point,
			variants = EXCLUDED.variants,
			last_updated = now(),
			updated_by = EXCLUDED.updated_by`
	_, err = r.q.Exec(ctx, query,
		record.ID, record.ProductID, record.WarehouseID, record.Provider, record.SKU,
		record.Quantity, record.Location, record.MinimumStock, record.ReorderPoint,
		variants, record.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert warehouse stock: %w", err)
	}
	return nil
}
