package inventory

import (
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
)

// Aggregate vista agregada de stock de un producto sobre todas sus bodegas.
// Siempre se recalcula desde los registros; nunca se persiste a mano.
type Aggregate struct {
	CountInStock int
	Status       entity.InventoryStatus
	MergedColors []entity.ColorStock
}

// AggregateStock recalcula el agregado de un producto a partir de sus
// registros por bodega. Función pura: sin efectos secundarios.
//
// Reglas:
//   - CountInStock = Σ Quantity de todos los registros.
//   - Status: total 0 → OUT_OF_STOCK sin importar mínimos; total > 0 y
//     total ≤ min(MinimumStock entre registros) → LOW_STOCK; si no IN_STOCK.
//   - Colores con el mismo nombre entre bodegas se fusionan sumando cantidades
//     por talla; InStock de la talla fusionada = suma > 0.
func AggregateStock(records []*entity.WarehouseStockRecord) Aggregate {
	total := 0
	minStock := -1
	for _, r := range records {
		if r == nil {
			continue
		}
		total += r.Available()
		if minStock < 0 || r.MinimumStock < minStock {
			minStock = r.MinimumStock
		}
	}

	status := entity.StatusInStock
	switch {
	case total == 0:
		status = entity.StatusOutOfStock
	case minStock >= 0 && total <= minStock:
		status = entity.StatusLowStock
	}

	return Aggregate{
		CountInStock: total,
		Status:       status,
		MergedColors: mergeColors(records),
	}
}

// mergeColors fusiona los desgloses de variantes de todas las bodegas.
// Mantiene el orden de primera aparición de colores y tallas.
func mergeColors(records []*entity.WarehouseStockRecord) []entity.ColorStock {
	var order []string
	byColor := make(map[string]map[string]int)
	sizeOrder := make(map[string][]string)

	for _, r := range records {
		if r == nil {
			continue
		}
		for _, color := range r.Variants {
			sizes, ok := byColor[color.Color]
			if !ok {
				sizes = make(map[string]int)
				byColor[color.Color] = sizes
				order = append(order, color.Color)
			}
			for _, size := range color.Sizes {
				if _, seen := sizes[size.Size]; !seen {
					sizeOrder[color.Color] = append(sizeOrder[color.Color], size.Size)
				}
				sizes[size.Size] += size.Quantity
			}
		}
	}

	if len(order) == 0 {
		return nil
	}

	merged := make([]entity.ColorStock, 0, len(order))
	for _, colorName := range order {
		sizes := byColor[colorName]
		out := entity.ColorStock{Color: colorName, Sizes: make([]entity.SizeStock, 0, len(sizes))}
		for _, sizeName := range sizeOrder[colorName] {
			qty := sizes[sizeName]
			out.Sizes = append(out.Sizes, entity.SizeStock{
				Size:     sizeName,
				Quantity: qty,
				InStock:  qty > 0,
			})
		}
		merged = append(merged, out)
	}
	return merged
}
