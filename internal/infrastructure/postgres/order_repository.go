package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL. Las líneas,
// la dirección y los envíos se persisten como JSONB: el motor los lee y añade
// envíos, el CRUD del pedido vive en otro servicio.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// GetByID devuelve el pedido con sus líneas y envíos, o nil si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `
		SELECT id, seller_id, items, shipping_address, shipments,
		       fulfillment_status, total, created_at, updated_at
		FROM orders WHERE id = $1`

	var o entity.Order
	var items, address, shipments []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.SellerID, &items, &address, &shipments,
		&o.FulfillmentStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("deserializar líneas del pedido %s: %w", id, err)
		}
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("deserializar dirección del pedido %s: %w", id, err)
		}
	}
	if len(shipments) > 0 {
		if err := json.Unmarshal(shipments, &o.Shipments); err != nil {
			return nil, fmt.Errorf("deserializar envíos del pedido %s: %w", id, err)
		}
	}
	return &o, nil
}

// AppendShipment añade un ShipmentRecord al array de envíos del pedido.
// Concatena sobre el JSONB existente: los envíos previos son inmutables.
func (r *OrderRepo) AppendShipment(ctx context.Context, orderID string, shipment *entity.ShipmentRecord) error {
	if shipment.ID == "" {
		shipment.ID = uuid.NewString()
	}
	raw, err := json.Marshal(shipment)
	if err != nil {
		return fmt.Errorf("serializar envío: %w", err)
	}

	query := `
		UPDATE orders
		SET shipments = COALESCE(shipments, '[]'::jsonb) || $2::jsonb,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, raw)
	if err != nil {
		return fmt.Errorf("append shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append shipment: pedido %s no existe", orderID)
	}
	return nil
}

// UpdateFulfillmentStatus fija el estado de despacho del pedido.
func (r *OrderRepo) UpdateFulfillmentStatus(ctx context.Context, orderID string, status entity.FulfillmentStatus) error {
	query := `
		UPDATE orders
		SET fulfillment_status = $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("update fulfillment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update fulfillment status: pedido %s no existe", orderID)
	}
	return nil
}
