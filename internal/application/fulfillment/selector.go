package fulfillment

import "github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"

// WarehouseSelector decide desde qué bodega se despacha una línea de pedido.
// Devuelve nil si ninguna bodega puede cubrir la cantidad completa: las
// líneas no se parten entre bodegas.
type WarehouseSelector interface {
	Select(records []*entity.WarehouseStockRecord, item entity.OrderItem) *entity.WarehouseStockRecord
}

var _ WarehouseSelector = (*HighestAvailableSelector)(nil)

// HighestAvailableSelector estrategia por defecto: la bodega con más unidades
// disponibles que cubra la línea completa. Empate por WarehouseID para que la
// elección sea determinista.
type HighestAvailableSelector struct{}

// Select elige la bodega para la línea.
func (HighestAvailableSelector) Select(records []*entity.WarehouseStockRecord, item entity.OrderItem) *entity.WarehouseStockRecord {
	var best *entity.WarehouseStockRecord
	for _, r := range records {
		if r == nil || r.Available() < item.Quantity || item.Quantity <= 0 {
			continue
		}
		if best == nil ||
			r.Available() > best.Available() ||
			(r.Available() == best.Available() && r.WarehouseID < best.WarehouseID) {
			best = r
		}
	}
	return best
}
