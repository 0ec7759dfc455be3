package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/inventory"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// SyncWarehouseInput registro inicial de un producto en una bodega concreta.
type SyncWarehouseInput struct {
	ProductID   string
	WarehouseID string
	Provider    provider.Code
	ChannelID   string
	UserID      string
}

// SyncWarehouseResult resultado del registro y primera sincronización.
type SyncWarehouseResult struct {
	ExternalProductID string
	Quantity          int
	CountInStock      int
	Status            entity.InventoryStatus
}

// ProviderSyncError fallo de un proveedor durante una sincronización
// multi-proveedor. Los demás proveedores no se ven afectados.
type ProviderSyncError struct {
	Provider provider.Code
	Err      error
}

// SyncProductResult resultado de la sincronización de todas las bodegas de
// un producto.
type SyncProductResult struct {
	CountInStock int
	Status       entity.InventoryStatus
	Synced       []provider.Code
	Failures     []ProviderSyncError
}

// SyncUseCase sincroniza el stock local con lo que reportan las bodegas:
// registro inicial producto-bodega y refresco multi-proveedor bajo demanda.
type SyncUseCase struct {
	registry    *provider.Registry
	tx          TxRunner
	products    repository.ProductRepository
	sellers     repository.SellerRepository
	invalidator ViewInvalidator
	log         *logger.Logger
}

// NewSyncUseCase construye el caso de uso.
func NewSyncUseCase(
	registry *provider.Registry,
	tx TxRunner,
	products repository.ProductRepository,
	sellers repository.SellerRepository,
	invalidator ViewInvalidator,
	log *logger.Logger,
) *SyncUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncUseCase{
		registry:    registry,
		tx:          tx,
		products:    products,
		sellers:     sellers,
		invalidator: invalidator,
		log:         log,
	}
}

// SyncWithWarehouse registra el producto en la bodega del proveedor (si un
// intento anterior ya lo registró, reutiliza el existente) y trae la cantidad
// que la bodega reporta como verdad inicial del registro local.
func (uc *SyncUseCase) SyncWithWarehouse(ctx context.Context, in SyncWarehouseInput) (*SyncWarehouseResult, error) {
	switch {
	case in.ProductID == "":
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	case in.WarehouseID == "":
		return nil, fmt.Errorf("%w: warehouse_id requerido", domain.ErrInvalidInput)
	case !in.Provider.IsValid():
		return nil, fmt.Errorf("%w: proveedor desconocido %q", domain.ErrInvalidInput, in.Provider)
	case in.ChannelID == "":
		return nil, fmt.Errorf("%w: channel_id requerido", domain.ErrInvalidInput)
	}

	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}

	client, err := uc.registry.Get(in.Provider)
	if err != nil {
		return nil, err
	}

	externalID, err := client.CreateProduct(ctx, in.ChannelID, provider.ProductInput{
		SKU:      product.SKU,
		Name:     product.Name,
		Quantity: product.CountInStock,
		Dimensions: &provider.Dimensions{
			Length: product.Dimensions.Length,
			Width:  product.Dimensions.Width,
			Height: product.Dimensions.Height,
			Weight: product.Dimensions.Weight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("registrar producto en %s: %w", in.Provider, err)
	}

	items, err := client.GetInventory(ctx, in.ChannelID, []string{product.SKU})
	if err != nil {
		return nil, fmt.Errorf("leer inventario de %s: %w", in.Provider, err)
	}
	quantity := 0
	location := ""
	for _, it := range items {
		if it.SKU == product.SKU {
			quantity += it.Available
			if location == "" {
				location = it.Location
			}
		}
	}

	var result SyncWarehouseResult
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
				SKU:         product.SKU,
			}
			records = append(records, record)
		}
		record.Quantity = quantity
		record.Location = location
		record.UpdatedBy = in.UserID

		if err := stockRepo.Upsert(ctx, record); err != nil {
			return err
		}

		agg := inventory.AggregateStock(records)
		if err := productRepo.UpdateAggregate(ctx, in.ProductID, agg.CountInStock, agg.Status); err != nil {
			return err
		}
		result = SyncWarehouseResult{
			ExternalProductID: externalID,
			Quantity:          quantity,
			CountInStock:      agg.CountInStock,
			Status:            agg.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.invalidator != nil {
		uc.invalidator.InvalidateProduct(ctx, in.ProductID)
	}

	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("provider", in.Provider.String()).
		Str("external_id", externalID).
		Int("quantity", quantity).
		Msg("producto sincronizado con bodega")
	return &result, nil
}

// SyncProductInventory refresca el stock local del producto con lo que
// reportan todos los proveedores donde el vendedor tiene canal. El fallo de
// un proveedor no detiene a los demás; si fallan todos, la operación falla.
func (uc *SyncUseCase) SyncProductInventory(ctx context.Context, productID, userID string) (*SyncProductResult, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}

	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}

	seller, err := uc.sellers.GetByID(ctx, product.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSellerNotFound, product.SellerID)
	}

	// Consultar a los proveedores fuera de la transacción: las llamadas de
	// red no retienen locks de fila.
	type fetched struct {
		code  provider.Code
		items []provider.InventoryItem
	}
	var reports []fetched
	var failures []ProviderSyncError
	for _, code := range uc.registry.Codes() {
		channelID := seller.ChannelFor(code)
		if channelID == "" {
			continue
		}
		client, err := uc.registry.Get(code)
		if err != nil {
			failures = append(failures, ProviderSyncError{Provider: code, Err: err})
			continue
		}
		items, err := client.GetInventory(ctx, channelID, []string{product.SKU})
		if err != nil {
			uc.log.Warn().Err(err).
				Str("product_id", productID).
				Str("provider", code.String()).
				Msg("proveedor no respondió durante la sincronización")
			failures = append(failures, ProviderSyncError{Provider: code, Err: err})
			continue
		}
		reports = append(reports, fetched{code: code, items: items})
	}

	if len(reports) == 0 {
		if len(failures) == 0 {
			return nil, fmt.Errorf("%w: el vendedor %s no tiene canales de fulfillment", domain.ErrInvalidInput, seller.ID)
		}
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, f.Err)
		}
		return nil, fmt.Errorf("ningún proveedor respondió: %w", errors.Join(errs...))
	}

	var result SyncProductResult
	result.Failures = failures
	err = uc.tx.Run(ctx, func(stockRepo repository.WarehouseStockRepository, productRepo repository.ProductRepository) error {
		records, err := stockRepo.ListByProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		for _, report := range reports {
			updated, err := applyProviderReport(ctx, stockRepo, &records, productID, product.SKU, userID, report.code, report.items)
			if err != nil {
				return err
			}
			if updated {
				result.Synced = append(result.Synced, report.code)
			}
		}

		agg := inventory.AggregateStock(records)
		if err := productRepo.UpdateAggregate(ctx, productID, agg.CountInStock, agg.Status); err != nil {
			return err
		}
		result.CountInStock = agg.CountInStock
		result.Status = agg.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.invalidator != nil {
		uc.invalidator.InvalidateProduct(ctx, productID)
	}

	uc.log.Info().
		Str("product_id", productID).
		Int("count_in_stock", result.CountInStock).
		Str("status", string(result.Status)).
		Int("providers_ok", len(result.Synced)).
		Int("providers_failed", len(result.Failures)).
		Msg("inventario del producto sincronizado")
	return &result, nil
}

// applyProviderReport vuelca el reporte de un proveedor sobre los registros
// del producto. Empareja por ubicación; una bodega nueva crea su registro.
func applyProviderReport(
	ctx context.Context,
	stockRepo repository.WarehouseStockRepository,
	records *[]*entity.WarehouseStockRecord,
	productID, sku, userID string,
	code provider.Code,
	items []provider.InventoryItem,
) (bool, error) {
	var ofProvider []*entity.WarehouseStockRecord
	for _, r := range *records {
		if r.Provider == code {
			ofProvider = append(ofProvider, r)
		}
	}

	updated := false
	for _, item := range items {
		if item.SKU != sku {
			continue
		}
		record := matchByLocation(ofProvider, item.Location)
		if record == nil {
			record = &entity.WarehouseStockRecord{
				ProductID:   productID,
				WarehouseID: warehouseIDFor(code, item.Location),
				Provider:    code,
				SKU:         sku,
			}
			*records = append(*records, record)
			ofProvider = append(ofProvider, record)
		}
		record.Quantity = item.Available
		record.Location = item.Location
		record.UpdatedBy = userID
		if err := stockRepo.Upsert(ctx, record); err != nil {
			return false, err
		}
		updated = true
	}
	return updated, nil
}

func matchByLocation(records []*entity.WarehouseStockRecord, location string) *entity.WarehouseStockRecord {
	for _, r := range records {
		if r.Location == location {
			return r
		}
	}
	if len(records) == 1 {
		return records[0]
	}
	return nil
}

func warehouseIDFor(code provider.Code, location string) string {
	if location != "" {
		return fmt.Sprintf("%s-%s", code, location)
	}
	return fmt.Sprintf("%s-main", code)
}
