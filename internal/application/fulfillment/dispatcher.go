// Package fulfillment despacha pedidos contra los proveedores de bodega:
// selecciona bodega por línea, agrupa por proveedor, crea los envíos y
// registra el resultado. Un envío físico creado no se puede deshacer, así que
// el fallo parcial se modela como estado explícito del pedido en lugar de
// intentar revertir a los proveedores que sí despacharon.
package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/inventory"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// shipmentInitialStatus estado con el que nace un ShipmentRecord; el estado
// real se consulta después contra el tracking del proveedor.
const shipmentInitialStatus = "Processing"

// DispatchFailure fallo de un grupo de proveedor durante el despacho.
type DispatchFailure struct {
	Provider provider.Code
	Err      error
}

// DispatchResult resultado del despacho de un pedido.
type DispatchResult struct {
	Status    entity.FulfillmentStatus
	Shipments []entity.ShipmentRecord
	Failures  []DispatchFailure
}

// Dispatcher caso de uso de despacho de pedidos.
type Dispatcher struct {
	registry    *provider.Registry
	orders      repository.OrderRepository
	sellers     repository.SellerRepository
	stocks      repository.WarehouseStockRepository
	selector    WarehouseSelector
	tx          TxRunner
	notifier    Notifier
	invalidator ViewInvalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewDispatcher construye el despachador. selector nil = bodega con más
// disponibilidad; notifier e invalidator nil = sin efectos externos.
func NewDispatcher(
	registry *provider.Registry,
	orders repository.OrderRepository,
	sellers repository.SellerRepository,
	stocks repository.WarehouseStockRepository,
	selector WarehouseSelector,
	tx TxRunner,
	notifier Notifier,
	invalidator ViewInvalidator,
	log *logger.Logger,
) *Dispatcher {
	if selector == nil {
		selector = HighestAvailableSelector{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		registry:    registry,
		orders:      orders,
		sellers:     sellers,
		stocks:      stocks,
		selector:    selector,
		tx:          tx,
		notifier:    notifier,
		invalidator: invalidator,
		log:         log,
		now:         time.Now,
	}
}

// plannedItem línea con su bodega elegida.
type plannedItem struct {
	item        entity.OrderItem
	warehouseID string
}

// plannedGroup líneas de un mismo proveedor que viajan en un solo envío.
type plannedGroup struct {
	code      provider.Code
	channelID string
	items     []plannedItem
}

// Dispatch despacha el pedido completo. Primero verifica que todas las líneas
// tienen bodega capaz de cubrirlas (sin llamadas externas); solo entonces
// empieza a crear envíos, en orden determinista de proveedor.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID, userID string) (*DispatchResult, error) {
	order, err := d.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: pedido %s", domain.ErrNotFound, orderID)
	}
	if len(order.Shipments) > 0 {
		return nil, fmt.Errorf("%w: el pedido %s ya tiene envíos creados", domain.ErrConflict, orderID)
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: el pedido %s no tiene líneas", domain.ErrInvalidInput, orderID)
	}

	seller, err := d.sellers.GetByID(ctx, order.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSellerNotFound, order.SellerID)
	}

	groups, err := d.plan(ctx, order, seller)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}
	touched := make(map[string]struct{})
	for _, group := range groups {
		shipment, err := d.dispatchGroup(ctx, order, group, userID, touched)
		if err != nil {
			d.log.Error().Err(err).
				Str("order_id", orderID).
				Str("provider", group.code.String()).
				Msg("grupo de despacho fallido")
			result.Failures = append(result.Failures, DispatchFailure{Provider: group.code, Err: err})
			continue
		}
		result.Shipments = append(result.Shipments, *shipment)
	}

	switch {
	case len(result.Failures) == 0:
		result.Status = entity.FulfillmentFulfilled
	case len(result.Shipments) > 0:
		result.Status = entity.FulfillmentPartial
	default:
		result.Status = entity.FulfillmentUnfulfilled
	}

	if result.Status != entity.FulfillmentUnfulfilled {
		if err := d.orders.UpdateFulfillmentStatus(ctx, orderID, result.Status); err != nil {
			return nil, fmt.Errorf("actualizar estado del pedido: %w", err)
		}
		d.notify(ctx, order, result)
	}

	if d.invalidator != nil {
		for productID := range touched {
			d.invalidator.InvalidateProduct(ctx, productID)
		}
	}

	if result.Status == entity.FulfillmentUnfulfilled {
		return result, fmt.Errorf("ningún envío creado para el pedido %s: %w", orderID, result.Failures[0].Err)
	}

	d.log.Info().
		Str("order_id", orderID).
		Str("status", string(result.Status)).
		Int("shipments", len(result.Shipments)).
		Int("failures", len(result.Failures)).
		Msg("pedido despachado")
	return result, nil
}

// plan elige bodega para cada línea y agrupa por proveedor. Cualquier línea
// sin bodega capaz aborta el despacho completo antes de tocar un proveedor.
func (d *Dispatcher) plan(ctx context.Context, order *entity.Order, seller *entity.Seller) ([]plannedGroup, error) {
	byProvider := make(map[provider.Code]*plannedGroup)
	reserved := make(map[string]map[string]int) // productID → warehouseID → unidades ya comprometidas

	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: la línea %s tiene cantidad %d", domain.ErrInvalidInput, item.SKU, item.Quantity)
		}

		records, err := d.stocks.ListByProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		record := d.selector.Select(discountReserved(records, reserved[item.ProductID]), item)
		if record == nil {
			return nil, fmt.Errorf("%w: ninguna bodega cubre %d unidades de %s",
				domain.ErrInsufficientStock, item.Quantity, item.SKU)
		}
		if reserved[item.ProductID] == nil {
			reserved[item.ProductID] = make(map[string]int)
		}
		reserved[item.ProductID][record.WarehouseID] += item.Quantity

		channelID := seller.ChannelFor(record.Provider)
		if channelID == "" {
			return nil, fmt.Errorf("%w: el vendedor %s no tiene canal en %s",
				domain.ErrInvalidInput, seller.ID, record.Provider)
		}

		group, ok := byProvider[record.Provider]
		if !ok {
			group = &plannedGroup{code: record.Provider, channelID: channelID}
			byProvider[record.Provider] = group
		}
		group.items = append(group.items, plannedItem{item: item, warehouseID: record.WarehouseID})
	}

	codes := make([]provider.Code, 0, len(byProvider))
	for code := range byProvider {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	groups := make([]plannedGroup, 0, len(codes))
	for _, code := range codes {
		groups = append(groups, *byProvider[code])
	}
	return groups, nil
}

// discountReserved resta de cada registro las unidades ya comprometidas por
// líneas anteriores del mismo pedido, para que dos líneas sobre el mismo
// producto no cuenten el mismo stock dos veces. No muta los registros.
func discountReserved(records []*entity.WarehouseStockRecord, reserved map[string]int) []*entity.WarehouseStockRecord {
	if len(reserved) == 0 {
		return records
	}
	out := make([]*entity.WarehouseStockRecord, len(records))
	for i, r := range records {
		qty := reserved[r.WarehouseID]
		if qty == 0 {
			out[i] = r
			continue
		}
		cp := *r
		cp.Quantity -= qty
		out[i] = &cp
	}
	return out
}

// dispatchGroup crea el envío del grupo en el proveedor y, con el envío ya
// confirmado, descuenta el stock interno y registra el ShipmentRecord en una
// transacción. El descuento es solo interno: la bodega ya reservó las
// unidades al aceptar el envío.
func (d *Dispatcher) dispatchGroup(ctx context.Context, order *entity.Order, group plannedGroup, userID string, touched map[string]struct{}) (*entity.ShipmentRecord, error) {
	client, err := d.registry.Get(group.code)
	if err != nil {
		return nil, err
	}

	input := provider.ShipmentInput{
		OrderRef: order.ID,
		Address: provider.Address{
			FullName:   order.ShippingAddress.FullName,
			Phone:      order.ShippingAddress.Phone,
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
	}
	declared := decimal.Zero
	for _, planned := range group.items {
		input.Items = append(input.Items, provider.ShipmentItem{
			SKU:      planned.item.SKU,
			Name:     planned.item.Name,
			Quantity: planned.item.Quantity,
		})
		declared = declared.Add(planned.item.Price.Mul(decimal.NewFromInt(int64(planned.item.Quantity))))
	}
	input.DeclaredValue = declared

	created, err := client.CreateShipment(ctx, group.channelID, input)
	if err != nil {
		return nil, err
	}

	shipment := &entity.ShipmentRecord{
		Provider:   group.code,
		TrackingID: created.TrackingID,
		Status:     shipmentInitialStatus,
		CreatedAt:  d.now(),
		CreatedBy:  userID,
	}

	err = d.tx.Run(ctx, func(stockRepo repository.WarehouseStockRepository, productRepo repository.ProductRepository, orderRepo repository.OrderRepository) error {
		for _, planned := range group.items {
			records, err := stockRepo.ListByProductForUpdate(ctx, planned.item.ProductID)
			if err != nil {
				return err
			}

			var record *entity.WarehouseStockRecord
			for _, r := range records {
				if r.WarehouseID == planned.warehouseID {
					record = r
					break
				}
			}
			if record == nil {
				return fmt.Errorf("registro de stock %s/%s desapareció durante el despacho",
					planned.item.ProductID, planned.warehouseID)
			}

			record.Quantity -= planned.item.Quantity
			if record.Quantity < 0 {
				record.Quantity = 0
			}
			record.UpdatedBy = userID
			if err := stockRepo.Upsert(ctx, record); err != nil {
				return err
			}

			agg := inventory.AggregateStock(records)
			if err := productRepo.UpdateAggregate(ctx, planned.item.ProductID, agg.CountInStock, agg.Status); err != nil {
				return err
			}
			touched[planned.item.ProductID] = struct{}{}
		}
		return orderRepo.AppendShipment(ctx, order.ID, shipment)
	})
	if err != nil {
		// El envío físico existe pero no quedó registrado: error operativo
		// que requiere conciliación manual.
		d.log.Error().Err(err).
			Str("order_id", order.ID).
			Str("provider", group.code.String()).
			Str("tracking_id", created.TrackingID).
			Msg("envío creado en el proveedor pero sin registrar localmente")
		return nil, fmt.Errorf("registrar envío %s: %w", created.TrackingID, err)
	}
	return shipment, nil
}

// notify publica el evento de fulfillment. Fire-and-forget.
func (d *Dispatcher) notify(ctx context.Context, order *entity.Order, result *DispatchResult) {
	if d.notifier == nil {
		return
	}
	event := FulfillmentEvent{
		OrderID:    order.ID,
		SellerID:   order.SellerID,
		Status:     result.Status,
		OccurredAt: d.now(),
	}
	for _, s := range result.Shipments {
		event.Shipments = append(event.Shipments, ShipmentEventRecord{
			Provider:   s.Provider,
			TrackingID: s.TrackingID,
		})
	}
	if err := d.notifier.Notify(ctx, event); err != nil {
		d.log.Warn().Err(err).Str("order_id", order.ID).Msg("publicar evento de fulfillment")
	}
}
