package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStatus estado agregado de stock de un producto, derivado siempre
// del recálculo sobre sus registros por bodega; nunca se edita a mano.
type InventoryStatus string

const (
	// StatusInStock stock total por encima del mínimo.
	StatusInStock InventoryStatus = "IN_STOCK"
	// StatusLowStock stock total > 0 pero en o por debajo del mínimo configurado.
	StatusLowStock InventoryStatus = "LOW_STOCK"
	// StatusOutOfStock stock total en cero.
	StatusOutOfStock InventoryStatus = "OUT_OF_STOCK"
)

// Dimensions dimensiones físicas del producto (cm / kg) para registro en bodega.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Weight decimal.Decimal `json:"weight"`
}

// Product producto del marketplace. CountInStock e InventoryStatus son el
// agregado derivado de los WarehouseStockRecord del producto.
type Product struct {
	ID              string
	SellerID        string
	SKU             string // referencia única por vendedor; se usa como reference_id externo
	Name            string
	Description     string
	Price           decimal.Decimal
	CountInStock    int
	InventoryStatus InventoryStatus
	Dimensions      Dimensions
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
