package repository

import (
	"context"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
)

// OrderRepository puerto de lectura/escritura de pedidos (entidad externa:
// el motor añade envíos y estado de fulfillment, nada más).
type OrderRepository interface {
	// GetByID devuelve el pedido con sus líneas y envíos, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)

	// AppendShipment añade un ShipmentRecord al pedido. El registro es
	// inmutable una vez añadido.
	AppendShipment(ctx context.Context, orderID string, shipment *entity.ShipmentRecord) error

	// UpdateFulfillmentStatus fija el estado de despacho del pedido.
	UpdateFulfillmentStatus(ctx context.Context, orderID string, status entity.FulfillmentStatus) error
}
