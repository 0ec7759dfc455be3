package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// FulfillmentStatus estado de despacho de un pedido.
type FulfillmentStatus string

const (
	// FulfillmentUnfulfilled sin envíos creados.
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	// FulfillmentFulfilled todos los grupos de proveedor despachados.
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
	// FulfillmentPartial estado terminal degradado: algunos envíos se crearon
	// y otros fallaron. Los envíos físicos ya creados no se pueden deshacer,
	// así que el estado mixto se modela explícitamente en lugar de revertir.
	FulfillmentPartial FulfillmentStatus = "partially_fulfilled"
)

// OrderItem línea de pedido que referencia un producto del marketplace.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ShippingAddress dirección de entrega del pedido.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ShipmentRecord envío creado en un proveedor para un pedido. Uno por
// proveedor usado en el despacho; inmutable una vez creado (el estado se
// refresca desde el tracking del proveedor, no se edita aquí).
type ShipmentRecord struct {
	ID         string        `json:"id"`
	Provider   provider.Code `json:"provider"`
	TrackingID string        `json:"tracking_id"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	CreatedBy  string        `json:"created_by"`
}

// Order pedido del marketplace (entidad externa: el motor la consume, no la
// posee). Gana Shipments y FulfillmentStatus tras el despacho.
type Order struct {
	ID                string
	SellerID          string
	Items             []OrderItem
	ShippingAddress   ShippingAddress
	Shipments         []ShipmentRecord
	FulfillmentStatus FulfillmentStatus
	Total             decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
