package entity

import (
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// SizeStock cantidad disponible de una talla dentro de un color.
type SizeStock struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	InStock  bool   `json:"in_stock"`
}

// ColorStock desglose de variantes de un registro de stock: color → tallas.
type ColorStock struct {
	Color string      `json:"color"`
	Sizes []SizeStock `json:"sizes"`
}

// WarehouseStockRecord stock autoritativo de un producto en una bodega
// concreta de un proveedor. Único por (ProductID, WarehouseID). Se crea en la
// primera sincronización con el proveedor y nunca se borra: al retirar el
// producto de una bodega se deja la cantidad en cero.
type WarehouseStockRecord struct {
	ID           string
	ProductID    string
	WarehouseID  string
	Provider     provider.Code
	SKU          string
	Quantity     int
	Location     string
	MinimumStock int
	ReorderPoint int
	Variants     []ColorStock // desglose color→tallas, persistido como JSONB
	LastUpdated  time.Time
	UpdatedBy    string // UserID
}

// Available devuelve la cantidad disponible; nunca negativa.
func (r *WarehouseStockRecord) Available() int {
	if r.Quantity < 0 {
		return 0
	}
	return r.Quantity
}
