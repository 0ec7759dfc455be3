package dto

import "github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"

// UpdateStockRequest cuerpo de POST /api/warehouse/stock.
type UpdateStockRequest struct {
	ProductID    string              `json:"product_id"`
	WarehouseID  string              `json:"warehouse_id"`
	Provider     string              `json:"provider"`
	ChannelID    string              `json:"channel_id"`
	SKU          string              `json:"sku"`
	Quantity     int                 `json:"quantity"`
	Location     string              `json:"location"`
	MinimumStock int                 `json:"minimum_stock"`
	ReorderPoint int                 `json:"reorder_point"`
	Variants     []entity.ColorStock `json:"variants,omitempty"`
}

// UpdateStockResponse resultado de la actualización.
type UpdateStockResponse struct {
	ProductID    string `json:"product_id"`
	WarehouseID  string `json:"warehouse_id"`
	Quantity     int    `json:"quantity"`
	CountInStock int    `json:"count_in_stock"`
	Status       string `json:"status"`
}

// SyncWarehouseRequest cuerpo de POST /api/warehouse/sync.
type SyncWarehouseRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Provider    string `json:"provider"`
	ChannelID   string `json:"channel_id"`
}

// SyncWarehouseResponse resultado del registro producto-bodega.
type SyncWarehouseResponse struct {
	ExternalProductID string `json:"external_product_id"`
	Quantity          int    `json:"quantity"`
	CountInStock      int    `json:"count_in_stock"`
	Status            string `json:"status"`
}

// SyncProductResponse resultado de la sincronización multi-proveedor.
type SyncProductResponse struct {
	CountInStock int      `json:"count_in_stock"`
	Status       string   `json:"status"`
	Synced       []string `json:"synced"`
	Failed       []string `json:"failed,omitempty"`
}
