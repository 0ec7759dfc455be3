package fulfillment

import (
	"context"
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

// TxRunner ejecuta el callback dentro de una transacción con los repositorios
// que necesita el despacho: stock (con locks), productos y pedidos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.WarehouseStockRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// FulfillmentEvent evento emitido al confirmar el despacho de un pedido.
type FulfillmentEvent struct {
	OrderID    string                   `json:"order_id"`
	SellerID   string                   `json:"seller_id"`
	Status     entity.FulfillmentStatus `json:"status"`
	Shipments  []ShipmentEventRecord    `json:"shipments"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// ShipmentEventRecord envío incluido en el evento.
type ShipmentEventRecord struct {
	Provider   provider.Code `json:"provider"`
	TrackingID string        `json:"tracking_id"`
}

// Notifier publica eventos de fulfillment. Fire-and-forget: un fallo de
// publicación se registra y no afecta al despacho ya confirmado.
type Notifier interface {
	Notify(ctx context.Context, event FulfillmentEvent) error
}

// ViewInvalidator invalida las vistas de producto cacheadas tras el descuento
// de stock del despacho.
type ViewInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string)
}
