// Package stock orquesta las mutaciones de stock por bodega: valida,
// propaga al proveedor externo y recalcula el agregado del producto, todo
// dentro de una transacción con las filas del producto bloqueadas.
package stock

import (
	"context"
	"fmt"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/inventory"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// UpdateStockInput datos de una actualización manual de stock de bodega.
type UpdateStockInput struct {
	ProductID    string
	WarehouseID  string
	Provider     provider.Code
	ChannelID    string
	SKU          string
	Quantity     int
	Location     string
	MinimumStock int
	ReorderPoint int
	Variants     []entity.ColorStock
	UserID       string
}

// UpdateStockResult registro persistido más el agregado recalculado.
type UpdateStockResult struct {
	Record       *entity.WarehouseStockRecord
	CountInStock int
	Status       entity.InventoryStatus
}

// UpdateStockUseCase coordinador transaccional de actualizaciones de stock.
// Orden estricto: validar, bloquear filas, propagar al proveedor, persistir,
// recalcular agregado, confirmar. Si el proveedor falla la transacción se
// revierte y el estado local queda intacto.
type UpdateStockUseCase struct {
	registry    *provider.Registry
	tx          TxRunner
	invalidator ViewInvalidator
	log         *logger.Logger
}

// NewUpdateStockUseCase construye el caso de uso.
func NewUpdateStockUseCase(registry *provider.Registry, tx TxRunner, invalidator ViewInvalidator, log *logger.Logger) *UpdateStockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UpdateStockUseCase{registry: registry, tx: tx, invalidator: invalidator, log: log}
}

// Execute aplica la actualización de stock.
func (uc *UpdateStockUseCase) Execute(ctx context.Context, in UpdateStockInput) (*UpdateStockResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	client, err := uc.registry.Get(in.Provider)
	if err != nil {
		return nil, err
	}

	var result UpdateStockResult
	err = uc.tx.Run(ctx, func(stockRepo repository.WarehouseStockRepository, productRepo repository.ProductRepository) error {
		records, err := stockRepo.ListByProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		record := findRecord(records, in.WarehouseID)
		if record == nil {
			record = &entity.WarehouseStockRecord{
				ProductID:   in.ProductID,
				WarehouseID: in.WarehouseID,
				Provider:    in.Provider,
				SKU:         in.SKU,
			}
			records = append(records, record)
		}

		// Propagación al proveedor dentro de la transacción: si la bodega
		// rechaza la cantidad, el estado local no cambia.
		if err := client.UpdateInventory(ctx, in.ChannelID, in.SKU, in.Quantity); err != nil {
			return fmt.Errorf("propagar stock al proveedor %s: %w", in.Provider, err)
		}

		record.SKU = in.SKU
		record.Quantity = in.Quantity
		record.Location = in.Location
		record.MinimumStock = in.MinimumStock
		record.ReorderPoint = in.ReorderPoint
		record.Variants = in.Variants
		record.UpdatedBy = in.UserID

		if err := stockRepo.Upsert(ctx, record); err != nil {
			return err
		}

		agg := inventory.AggregateStock(records)
		if err := productRepo.UpdateAggregate(ctx, in.ProductID, agg.CountInStock, agg.Status); err != nil {
			return err
		}

		result = UpdateStockResult{Record: record, CountInStock: agg.CountInStock, Status: agg.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit: invalidar vistas cacheadas. Best-effort.
	if uc.invalidator != nil {
		uc.invalidator.InvalidateProduct(ctx, in.ProductID)
	}

	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("warehouse_id", in.WarehouseID).
		Str("provider", in.Provider.String()).
		Int("quantity", in.Quantity).
		Int("count_in_stock", result.CountInStock).
		Str("status", string(result.Status)).
		Msg("stock de bodega actualizado")
	return &result, nil
}

func (in UpdateStockInput) validate() error {
	switch {
	case in.ProductID == "":
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	case in.WarehouseID == "":
		return fmt.Errorf("%w: warehouse_id requerido", domain.ErrInvalidInput)
	case !in.Provider.IsValid():
		return fmt.Errorf("%w: proveedor desconocido %q", domain.ErrInvalidInput, in.Provider)
	case in.ChannelID == "":
		return fmt.Errorf("%w: channel_id requerido", domain.ErrInvalidInput)
	case in.SKU == "":
		return fmt.Errorf("%w: sku requerido", domain.ErrInvalidInput)
	case in.Location == "":
		return fmt.Errorf("%w: location requerida", domain.ErrInvalidInput)
	case in.Quantity < 0:
		return fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrInvalidInput)
	case in.MinimumStock < 0 || in.ReorderPoint < 0:
		return fmt.Errorf("%w: mínimos negativos", domain.ErrInvalidInput)
	}
	return validateVariants(in.Variants)
}

func validateVariants(variants []entity.ColorStock) error {
	for _, color := range variants {
		if color.Color == "" {
			return fmt.Errorf("%w: variante sin color", domain.ErrInvalidInput)
		}
		for _, size := range color.Sizes {
			if size.Size == "" {
				return fmt.Errorf("%w: talla sin nombre en el color %s", domain.ErrInvalidInput, color.Color)
			}
			if size.Quantity < 0 {
				return fmt.Errorf("%w: cantidad negativa en %s/%s", domain.ErrInvalidInput, color.Color, size.Size)
			}
		}
	}
	return nil
}

func findRecord(records []*entity.WarehouseStockRecord, warehouseID string) *entity.WarehouseStockRecord {
	for _, r := range records {
		if r.WarehouseID == warehouseID {
			return r
		}
	}
	return nil
}
